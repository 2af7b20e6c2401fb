package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/TrueDMGDev/FintechFinalProject/internal/config"
	"github.com/TrueDMGDev/FintechFinalProject/internal/dedup"
	"github.com/TrueDMGDev/FintechFinalProject/internal/discover"
	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
	"github.com/TrueDMGDev/FintechFinalProject/internal/nlp"
	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

const (
	keywordTopK = 10
	// extractions shorter than this trigger the login/paywall check
	minExtractedChars = 120
)

// PipelineDeps wires all collaborators into the orchestration pipeline.
type PipelineDeps struct {
	Fetcher   ports.Fetcher
	Feeds     ports.FeedSource
	Extractor ports.Extractor
	Entities  ports.EntityRecognizer // optional; regex fallback used when nil or empty
	Store     ports.ArticleStore     // optional; nil disables persistence and window fallback
	RSS       config.RSSConfig
	Crawl     config.CrawlConfig
	Dedup     config.DedupConfig
	Logger    *slog.Logger
}

// Pipeline implements one full fetch cycle: gather candidates from feeds and
// seed-page crawling, merge and cap them fairly, scrape concurrently, enrich,
// dedup against history, and optionally persist.
type Pipeline struct {
	fetcher   ports.Fetcher
	feeds     ports.FeedSource
	extractor ports.Extractor
	entities  ports.EntityRecognizer
	store     ports.ArticleStore
	rss       config.RSSConfig
	crawl     config.CrawlConfig
	dedup     config.DedupConfig
	logger    *slog.Logger
}

// CycleRequest carries the caller-owned state for one cycle. The pipeline
// itself keeps no state between cycles.
type CycleRequest struct {
	Sources  []config.SourceConfig
	MaxItems int
	SkipURLs map[string]bool

	// Recent history for dedup; index-aligned.
	RecentTexts []string
	RecentURLs  []string

	Persist bool
}

// NewPipeline constructs the orchestrator, failing fast on missing required
// collaborators.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("pipeline needs a fetcher")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("pipeline needs an extractor")
	}
	return &Pipeline{
		fetcher:   deps.Fetcher,
		feeds:     deps.Feeds,
		extractor: deps.Extractor,
		entities:  deps.Entities,
		store:     deps.Store,
		rss:       deps.RSS,
		crawl:     deps.Crawl,
		dedup:     deps.Dedup,
		logger:    deps.Logger,
	}, nil
}

// RunCycle executes one fetch cycle and returns the enriched, dedup-marked
// articles. Per-source and per-item failures are absorbed: a degraded cycle
// still returns whatever could be produced.
func (p *Pipeline) RunCycle(ctx context.Context, req CycleRequest) []domain.Article {
	feedStubs, crawlStubs := p.gather(ctx, req)
	p.debug("candidates gathered", "feed", len(feedStubs), "crawl", len(crawlStubs))

	// merge: feed stubs deduped and skip-filtered first, then interleaved
	// with discoveries so neither stream dominates order
	feedStubs = dropSkipped(dedupeByURL(feedStubs), req.SkipURLs)
	merged := dedupeByURL(interleave(feedStubs, crawlStubs))
	merged = dropSkipped(merged, req.SkipURLs)

	merged = p.capFairly(merged, req.MaxItems)
	if len(merged) == 0 {
		p.debug("no candidates after merge and cap")
		return nil
	}

	kept := p.scrapeAll(ctx, merged)
	p.debug("scraped", "candidates", len(merged), "kept", len(kept))
	if len(kept) == 0 {
		return nil
	}

	enriched := p.enrich(ctx, kept)
	final := p.markDuplicates(ctx, req, enriched)

	if req.Persist && p.store != nil {
		p.persist(ctx, final)
	}
	return final
}

type fetchTask struct {
	sourceID string
	url      string
	allow    *regexp.Regexp
	deny     *regexp.Regexp
}

// gather runs feed ingestion and seed-page discovery fully concurrently
// across all sources. Each task writes into its own slot so the flattened
// result order is deterministic regardless of completion order; a failing
// feed or seed simply contributes nothing.
func (p *Pipeline) gather(ctx context.Context, req CycleRequest) (feedStubs, crawlStubs []domain.Article) {
	var feedTasks, crawlTasks []fetchTask
	for _, s := range req.Sources {
		if !s.Enabled {
			continue
		}
		if p.rss.Enabled && p.feeds != nil {
			for _, u := range s.RSSURLs {
				if u != "" {
					feedTasks = append(feedTasks, fetchTask{sourceID: s.ID, url: u})
				}
			}
		}
		if p.crawl.Enabled {
			allow := compilePattern(s.AllowRegex)
			deny := compilePattern(s.DenyRegex)
			for _, u := range s.CrawlURLs {
				if u != "" {
					crawlTasks = append(crawlTasks, fetchTask{sourceID: s.ID, url: u, allow: allow, deny: deny})
				}
			}
		}
	}

	feedResults := make([][]domain.Article, len(feedTasks))
	crawlResults := make([][]domain.Article, len(crawlTasks))

	var wg sync.WaitGroup
	for i, task := range feedTasks {
		wg.Add(1)
		go func(i int, task fetchTask) {
			defer wg.Done()
			feedResults[i] = p.feeds.FetchEntries(ctx, task.sourceID, task.url, req.MaxItems)
		}(i, task)
	}
	for i, task := range crawlTasks {
		wg.Add(1)
		go func(i int, task fetchTask) {
			defer wg.Done()
			crawlResults[i] = p.crawlSeed(ctx, task)
		}(i, task)
	}
	wg.Wait()

	return flatten(feedResults), flatten(crawlResults)
}

// crawlSeed fetches one listing page and turns its ranked links into stub
// articles tagged with the source id.
func (p *Pipeline) crawlSeed(ctx context.Context, task fetchTask) []domain.Article {
	html := p.fetcher.GetText(ctx, task.url)
	if html == "" {
		p.debug("seed unavailable", "source", task.sourceID, "url", task.url)
		return nil
	}

	links := discover.FromHTML(task.url, html, discover.Options{
		MaxLinks:       p.crawl.MaxLinksPerSeed,
		ScanLimit:      p.crawl.ScanLimit,
		AllowPattern:   task.allow,
		DenyPattern:    task.deny,
		SameDomainOnly: p.crawl.SameDomainOnly,
	})

	stubs := make([]domain.Article, 0, len(links))
	for _, l := range links {
		if l.URL == "" {
			continue
		}
		stubs = append(stubs, domain.Article{
			Source: task.sourceID,
			Title:  l.Title,
			URL:    l.URL,
		})
	}
	return stubs
}

// capFairly applies the per-cycle hard cap with round-robin selection across
// sources, so one prolific source cannot crowd out the others.
func (p *Pipeline) capFairly(merged []domain.Article, maxItems int) []domain.Article {
	hardCap := 0
	if p.crawl.MaxArticlesPerRun > 0 {
		hardCap = p.crawl.MaxArticlesPerRun
	}
	if maxItems > 0 && (hardCap == 0 || maxItems < hardCap) {
		hardCap = maxItems
	}
	if hardCap == 0 || len(merged) <= hardCap {
		return merged
	}
	return roundRobinBySource(merged, hardCap)
}

// scrapeAll fetches every candidate concurrently, collects results back into
// input order, and applies the terminal quality gate.
func (p *Pipeline) scrapeAll(ctx context.Context, candidates []domain.Article) []domain.Article {
	scraped := make([]domain.Article, len(candidates))
	var wg sync.WaitGroup
	for i, a := range candidates {
		wg.Add(1)
		go func(i int, a domain.Article) {
			defer wg.Done()
			scraped[i] = p.scrape(ctx, a)
		}(i, a)
	}
	wg.Wait()

	var kept []domain.Article
	for _, a := range scraped {
		if a.URL == "" {
			continue
		}
		text := strings.TrimSpace(a.Text)
		if text == "" || utf8.RuneCountInString(text) < p.crawl.MinArticleTextChars {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// scrape fetches one article page and extracts title and body, falling back
// to the feed summary when the fetch fails or the page looks like a
// login/paywall wall.
func (p *Pipeline) scrape(ctx context.Context, a domain.Article) domain.Article {
	html := p.fetcher.GetText(ctx, a.URL)
	if html == "" {
		if a.Summary != "" {
			return a.WithText(a.Title, p.summaryText(a.Summary))
		}
		return a
	}

	title := a.Title
	if title == "" {
		if t := p.extractor.ExtractTitle(html); t != "" {
			title = t
		}
	}

	text := nlp.NormalizeText(p.extractor.ExtractMainText(html))

	// Only discard the extraction as login/paywall when it is poor anyway.
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minExtractedChars &&
		p.extractor.LooksLikeLoginOrPaywall(html) {
		if a.Summary != "" {
			if summary := p.summaryText(a.Summary); summary != "" {
				return a.WithText(title, summary)
			}
		}
		return a.WithText(title, "")
	}

	return a.WithText(title, text)
}

func (p *Pipeline) summaryText(summary string) string {
	return nlp.NormalizeText(p.extractor.ExtractPlainText(summary))
}

// enrich attaches keywords (batch TF-IDF), entities (model first, regex
// fallback), tags and the breaking score.
func (p *Pipeline) enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Text
	}
	keywordLists := nlp.KeywordsTFIDF(texts, keywordTopK)

	enriched := make([]domain.Article, 0, len(articles))
	for i, a := range articles {
		var ents []domain.Entity
		if p.entities != nil {
			ents = p.entities.Recognize(ctx, a.Text)
		}
		if len(ents) == 0 {
			ents = nlp.FallbackEntities(a.Text)
		}

		tags := nlp.AutoTags(keywordLists[i], ents)
		score := nlp.BreakingScore(a.Text, tags, keywordLists[i])
		enriched = append(enriched, a.WithEnrichment(keywordLists[i], ents, tags, score))
	}
	return enriched
}

// markDuplicates checks every article against the recent history window, not
// against siblings in this cycle. When the caller supplied no window
// and persistence is on, a best-effort window is derived from storage.
func (p *Pipeline) markDuplicates(ctx context.Context, req CycleRequest, articles []domain.Article) []domain.Article {
	recentTexts := req.RecentTexts
	recentURLs := req.RecentURLs
	if req.Persist && len(recentTexts) == 0 && p.store != nil {
		recentTexts, recentURLs = p.recentFromStore(ctx)
	}

	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		r := dedup.AgainstRecent(a.Text, a.URL, recentTexts, recentURLs, p.dedup.SimilarityThreshold)
		if r.IsDuplicate {
			a = a.WithDuplicate(r.DuplicateOfURL)
		}
		out = append(out, a)
	}
	return out
}

// recentFromStore reads the tail of every per-source storage as a fallback
// dedup window. Any failure silently yields a smaller or empty window.
func (p *Pipeline) recentFromStore(ctx context.Context) ([]string, []string) {
	sources, err := p.store.Sources(ctx)
	if err != nil {
		p.debug("recent window unavailable", "error", err)
		return nil, nil
	}

	var texts, urls []string
	for _, src := range sources {
		t, u, err := p.store.Tail(ctx, src, p.dedup.CompareWindow)
		if err != nil {
			p.debug("tail failed", "source", src, "error", err)
			continue
		}
		texts = append(texts, t...)
		urls = append(urls, u...)
	}

	if len(texts) > p.dedup.CompareWindow {
		texts = texts[len(texts)-p.dedup.CompareWindow:]
		urls = urls[len(urls)-p.dedup.CompareWindow:]
	}
	return texts, urls
}

// persist upserts final articles into per-source storage; failures are
// logged and absorbed.
func (p *Pipeline) persist(ctx context.Context, articles []domain.Article) {
	groups := map[string][]domain.Article{}
	var order []string
	for _, a := range articles {
		if _, ok := groups[a.Source]; !ok {
			order = append(order, a.Source)
		}
		groups[a.Source] = append(groups[a.Source], a)
	}

	for _, src := range order {
		count, err := p.store.Upsert(ctx, src, groups[src])
		if err != nil {
			p.warn("persist failed", "source", src, "error", err)
			continue
		}
		p.debug("persisted", "source", src, "rows", count)
	}
}

func compilePattern(expr string) *regexp.Regexp {
	if expr == "" {
		return nil
	}
	// validated at config load; a broken pattern here just disables itself
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return re
}

func flatten(groups [][]domain.Article) []domain.Article {
	var out []domain.Article
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// interleave alternates one article from each stream per round, preserving
// each stream's internal order.
func interleave(a, b []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = append(out, a[i])
		}
		if i < len(b) {
			out = append(out, b[i])
		}
	}
	return out
}

// dedupeByURL keeps the first occurrence of every URL and drops entries with
// no URL at all.
func dedupeByURL(articles []domain.Article) []domain.Article {
	seen := map[string]bool{}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" || seen[a.URL] {
			continue
		}
		seen[a.URL] = true
		out = append(out, a)
	}
	return out
}

func dropSkipped(articles []domain.Article, skip map[string]bool) []domain.Article {
	if len(skip) == 0 {
		return articles
	}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if skip[a.URL] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// roundRobinBySource buckets candidates per source (preserving bucket order)
// and pops one from each non-empty bucket per round until the limit is hit.
func roundRobinBySource(articles []domain.Article, limit int) []domain.Article {
	if limit <= 0 {
		return nil
	}

	buckets := map[string][]domain.Article{}
	var order []string
	for _, a := range articles {
		if _, ok := buckets[a.Source]; !ok {
			order = append(order, a.Source)
		}
		buckets[a.Source] = append(buckets[a.Source], a)
	}

	out := make([]domain.Article, 0, limit)
	for len(out) < limit {
		progressed := false
		for _, src := range order {
			bucket := buckets[src]
			if len(bucket) == 0 {
				continue
			}
			out = append(out, bucket[0])
			buckets[src] = bucket[1:]
			progressed = true
			if len(out) >= limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
