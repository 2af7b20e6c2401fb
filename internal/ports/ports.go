package ports

import (
	"context"
	"time"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
)

// Fetcher retrieves the decoded body of a URL. An empty string means the
// content could not be fetched; fetch failures are never surfaced as errors.
type Fetcher interface {
	GetText(ctx context.Context, url string) string
}

// FeedSource pulls stub articles from one feed URL. Malformed feeds and
// network failures yield fewer or zero entries, never an error.
type FeedSource interface {
	FetchEntries(ctx context.Context, sourceID, feedURL string, maxItems int) []domain.Article
}

// Extractor turns raw page HTML into usable text.
type Extractor interface {
	ExtractTitle(html string) string
	ExtractMainText(html string) string
	ExtractPlainText(fragment string) string
	LooksLikeLoginOrPaywall(html string) bool
}

// EntityRecognizer extracts named entities from article text. Implementations
// return an empty slice when the capability is unavailable or fails.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) []domain.Entity
}

// ArticleStore persists finalized articles per source, keyed by URL.
type ArticleStore interface {
	// Upsert merges articles into the source's storage (newest write wins per
	// URL) and returns the merged row count.
	Upsert(ctx context.Context, sourceID string, articles []domain.Article) (int, error)
	// Tail returns the newest n (text, url) pairs in oldest-first order.
	Tail(ctx context.Context, sourceID string, n int) (texts, urls []string, err error)
	// Sources lists the source ids that have existing storage.
	Sources(ctx context.Context) ([]string, error)
}

// Notifier pushes breaking-news digests to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
