package discover

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link is one candidate article URL pulled from a listing page.
type Link struct {
	URL   string
	Title string
}

// Options tune a single discovery call.
type Options struct {
	MaxLinks       int
	ScanLimit      int
	AllowPattern   *regexp.Regexp
	DenyPattern    *regexp.Regexp
	SameDomainOnly bool
}

var denySubstrings = []string{
	"/video/",
	"/live/",
	"/podcast",
	"/subscribe",
	"/signin",
	"/login",
	"/account",
	"#",
	"javascript:",
}

var trackingParams = map[string]bool{
	"fbclid":            true,
	"gclid":             true,
	"msclkid":           true,
	"mc_cid":            true,
	"mc_eid":            true,
	"guccounter":        true,
	"guce_referrer":     true,
	"guce_referrer_sig": true,
	"soc_src":           true,
	"soc_trk":           true,
	"cmpid":             true,
}

var hubPathSubstrings = []string{
	"/topic/",
	"/topics/",
	"/tag/",
	"/tags/",
	"/category/",
	"/categories/",
	"/section/",
	"/sections/",
	"/author/",
	"/authors/",
	"/search",
	"/quote/",
	"/quotes/",
	"/calendar/",
	"/screener/",
}

var sectionRoots = map[string]bool{
	"news":     true,
	"business": true,
	"markets":  true,
	"world":    true,
	"finance":  true,
}

var dateInPathRe = regexp.MustCompile(`(?i)/\d{4}/\d{2}/\d{2}/|/\d{4}-\d{2}-\d{2}/`)

// FromHTML extracts candidate article links from a listing/home page.
//
// This is heuristic-based: it walks <a href> anchors up to the scan limit,
// normalizes and filters obvious non-article URLs, optionally applies
// allow/deny patterns, and returns the highest-scoring candidates first.
func FromHTML(seedURL, html string, opts Options) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var candidates []Link
	seen := map[string]bool{}
	scanned := 0

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if opts.ScanLimit > 0 && scanned >= opts.ScanLimit {
			return false
		}
		scanned++

		href, _ := a.Attr("href")
		resolved := resolveHref(seedURL, href)
		if resolved == "" {
			return true
		}

		candidate := StripTracking(resolved)
		lower := strings.ToLower(candidate)
		for _, s := range denySubstrings {
			if strings.Contains(lower, s) {
				return true
			}
		}

		if opts.SameDomainOnly && !sameDomain(seedURL, candidate) {
			return true
		}
		if opts.DenyPattern != nil && opts.DenyPattern.MatchString(candidate) {
			return true
		}
		if opts.AllowPattern != nil && !opts.AllowPattern.MatchString(candidate) {
			return true
		}

		// Drop root and single-segment section listings; they are hubs, not
		// articles.
		segs := pathSegments(candidate)
		if len(segs) == 0 {
			return true
		}
		if len(segs) == 1 && sectionRoots[segs[0]] {
			return true
		}

		if seen[lower] {
			return true
		}
		seen[lower] = true

		title := strings.Join(strings.Fields(a.Text()), " ")
		candidates = append(candidates, Link{URL: candidate, Title: title})
		return true
	})

	type scored struct {
		link  Link
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{link: c, score: Score(seedURL, c.URL, c.Title)}
	}
	// stable keeps document order on score ties
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]Link, 0, len(ranked))
	for _, r := range ranked {
		if opts.MaxLinks > 0 && len(out) >= opts.MaxLinks {
			break
		}
		out = append(out, r.link)
	}
	return out
}

// resolveHref makes href absolute against the seed page, rejecting mail/phone
// targets and unparsable values.
func resolveHref(seedURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}

	base, err := url.Parse(seedURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// StripTracking removes the URL fragment and common tracking query parameters
// so near-identical links dedupe to one candidate. Parameter order and
// unrelated parameters are preserved; blank-valued parameters are dropped.
func StripTracking(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}

	var kept []string
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		if value == "" {
			continue
		}
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, "utm_") || trackingParams[lower] {
			continue
		}
		kept = append(kept, pair)
	}

	u.RawQuery = strings.Join(kept, "&")
	u.Fragment = ""
	return u.String()
}

func sameDomain(seedURL, candidate string) bool {
	a, err := url.Parse(seedURL)
	if err != nil {
		return false
	}
	b, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return strings.EqualFold(a.Host, b.Host)
}

func pathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(strings.ToLower(u.Path), "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func looksLikeArticleURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)

	if dateInPathRe.MatchString(path) {
		return true
	}
	if strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm") {
		return true
	}
	if strings.Contains(path, "/article/") {
		return true
	}
	if strings.Contains(path, "/news/") && len(strings.Split(path, "/")) >= 4 {
		return true
	}
	return false
}

func isHubOrNavURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, s := range hubPathSubstrings {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}

// Score rates a candidate URL: higher means more likely a real article page
// rather than a hub/listing page.
func Score(seedURL, candidate, title string) float64 {
	u, err := url.Parse(candidate)
	if err != nil {
		return -1e9
	}
	path := strings.ToLower(u.Path)
	segs := pathSegments(candidate)

	score := 0.0

	n := len(segs)
	if n > 8 {
		n = 8
	}
	score += float64(n) * 0.4

	// Section roots are listing pages, not articles.
	if len(segs) == 1 && sectionRoots[segs[0]] {
		score -= 10.0
	}

	if looksLikeArticleURL(candidate) {
		score += 8.0
	}
	if dateInPathRe.MatchString(path) {
		score += 4.0
	}
	if strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm") {
		score += 2.0
	}

	if len(segs) > 0 && strings.Contains(segs[len(segs)-1], "-") {
		score += 1.5
	}

	if isHubOrNavURL(candidate) {
		score -= 8.0
	}

	if path == "/" || path == "" {
		score -= 10.0
	}

	if strings.TrimRight(StripTracking(candidate), "/") == strings.TrimRight(StripTracking(seedURL), "/") {
		score -= 10.0
	}

	if t := strings.TrimSpace(title); t != "" {
		if len(t) >= 16 {
			score += 0.6
		} else if len(t) <= 5 {
			score -= 0.6
		}
	}

	if u.RawQuery != "" {
		score -= 0.5
	}

	return score
}
