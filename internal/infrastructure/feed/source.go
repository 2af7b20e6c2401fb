package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

// Source ingests RSS/Atom feeds through the shared fetch client, so feed
// polls respect the same rate limits and concurrency cap as page scrapes.
type Source struct {
	fetcher ports.Fetcher
	logger  *slog.Logger
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource wires the shared fetcher.
func NewSource(fetcher ports.Fetcher, logger *slog.Logger) *Source {
	return &Source{fetcher: fetcher, logger: logger}
}

// FetchEntries pulls up to maxItems stub articles from one feed. Malformed
// feeds, unreachable hosts, and incomplete items all degrade to fewer or
// zero entries.
func (s *Source) FetchEntries(ctx context.Context, sourceID, feedURL string, maxItems int) []domain.Article {
	body := s.fetcher.GetText(ctx, feedURL)
	if body == "" {
		s.debug("feed unavailable", "source", sourceID, "url", feedURL)
		return nil
	}

	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		s.debug("feed unparsable", "source", sourceID, "url", feedURL, "error", err)
		return nil
	}

	var out []domain.Article
	for _, item := range parsed.Items {
		if maxItems > 0 && len(out) >= maxItems {
			break
		}
		if item == nil || item.Title == "" || item.Link == "" {
			continue
		}
		out = append(out, domain.Article{
			Source:      sourceID,
			Title:       item.Title,
			URL:         item.Link,
			PublishedAt: itemTime(item),
			Summary:     item.Description,
		})
	}

	s.debug("feed ingested", "source", sourceID, "url", feedURL, "entries", len(out))
	return out
}

// itemTime prefers the published timestamp, falling back to updated; both are
// normalized to UTC for consistent comparisons.
func itemTime(item *gofeed.Item) *time.Time {
	when := item.PublishedParsed
	if when == nil {
		when = item.UpdatedParsed
	}
	if when == nil {
		return nil
	}
	utc := when.UTC()
	return &utc
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
