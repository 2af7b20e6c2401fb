package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

// Extractor derives titles and main text from raw article HTML, using
// readability first and goquery heuristics as the fallback.
type Extractor struct{}

var _ ports.Extractor = (*Extractor)(nil)

// New builds a stateless extractor.
func New() *Extractor {
	return &Extractor{}
}

// readability wants a page URL for resolving relative references; the text
// content we keep does not depend on it.
var placeholderURL, _ = url.Parse("https://localhost/")

var loginPaywallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsign\s*in\b`),
	regexp.MustCompile(`(?i)\blog\s*in\b`),
	regexp.MustCompile(`(?i)\bsubscribe\b`),
	regexp.MustCompile(`(?i)\bsubscription\b`),
	regexp.MustCompile(`(?i)\bcreate\s+an?\s+account\b`),
	regexp.MustCompile(`(?i)\bregister\b`),
	regexp.MustCompile(`(?i)\bstart\s+your\s+free\s+trial\b`),
	regexp.MustCompile(`(?i)\balready\s+a\s+subscriber\b`),
	regexp.MustCompile(`(?i)\bto\s+continue\b.*\b(sign\s*in|log\s*in|subscribe)\b`),
	regexp.MustCompile(`(?i)\byou\s+have\s+reached\s+your\s+limit\b`),
	regexp.MustCompile(`(?i)\baccess\s+denied\b`),
}

var collapseNewlinesRe = regexp.MustCompile(`\n{3,}`)

// ExtractTitle is best-effort title extraction from an article page. Returns
// "" when nothing usable is found.
func (e *Extractor) ExtractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	for _, sel := range []string{
		`meta[property="og:title"]`,
		`meta[name="twitter:title"]`,
		`meta[name="title"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if t := strings.TrimSpace(content); t != "" {
				return t
			}
		}
	}

	if t := collapseSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return collapseSpace(doc.Find("title").First().Text())
}

// ExtractMainText returns the noise-stripped, paragraph-joined body of an
// article page.
func (e *Extractor) ExtractMainText(html string) string {
	if article, err := readability.FromReader(strings.NewReader(html), placeholderURL); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}
	return paragraphText(html)
}

// paragraphText is the goquery fallback: drop noisy blocks, prefer <article>,
// then join paragraph-like content.
func paragraphText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript, nav, footer, header, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var parts []string
	root.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	text := strings.Join(parts, "\n")
	text = collapseNewlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ExtractPlainText converts an HTML snippet (e.g. a feed summary) to plain
// text.
func (e *Extractor) ExtractPlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	return collapseSpace(doc.Text())
}

// LooksLikeLoginOrPaywall heuristically detects pages that require login or
// subscription. Kept intentionally conservative: it is only used to drop
// pages that would otherwise yield empty or junk text.
func (e *Extractor) LooksLikeLoginOrPaywall(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}

	// Drop header/footer chrome so a "Sign in" nav link does not trip this.
	doc.Find("script, style, noscript, nav, footer, header, aside").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	visible := strings.ToLower(collapseSpace(root.Text()))
	if visible == "" {
		return true
	}

	// Extremely small visible text often means a JS shell or a blocked page.
	if len([]rune(visible)) < 120 {
		return true
	}

	for _, pat := range loginPaywallPatterns {
		if pat.MatchString(visible) {
			return true
		}
	}

	if strings.Contains(visible, "enable javascript") || strings.Contains(visible, "enable cookies") {
		return true
	}

	return doc.Find(`input[type="password"]`).Length() > 0
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
