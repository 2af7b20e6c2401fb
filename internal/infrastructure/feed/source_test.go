package feed

import (
	"context"
	"testing"
)

type staticFetcher struct {
	pages map[string]string
}

func (f *staticFetcher) GetText(_ context.Context, url string) string {
	return f.pages[url]
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example Feed</title>
  <item>
    <title>Fed raises rates</title>
    <link>https://example.com/news/2024/05/01/fed-raises-rates.html</link>
    <description>The central bank moved again.</description>
    <pubDate>Wed, 01 May 2024 12:00:00 GMT</pubDate>
  </item>
  <item>
    <title></title>
    <link>https://example.com/untitled</link>
  </item>
  <item>
    <title>Oil climbs</title>
    <link>https://example.com/news/2024/05/01/oil-climbs.html</link>
  </item>
</channel>
</rss>`

func TestFetchEntries(t *testing.T) {
	t.Parallel()

	fetcher := &staticFetcher{pages: map[string]string{"https://example.com/rss": sampleRSS}}
	source := NewSource(fetcher, nil)

	entries := source.FetchEntries(context.Background(), "example", "https://example.com/rss", 0)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries (untitled skipped), got %d", len(entries))
	}
	first := entries[0]
	if first.Source != "example" {
		t.Fatalf("unexpected source: %q", first.Source)
	}
	if first.Title != "Fed raises rates" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Summary != "The central bank moved again." {
		t.Fatalf("unexpected summary: %q", first.Summary)
	}
	if first.PublishedAt == nil {
		t.Fatal("expected published timestamp")
	}
	if entries[1].PublishedAt != nil {
		t.Fatal("expected nil timestamp for dateless item")
	}
}

func TestFetchEntriesCapsItems(t *testing.T) {
	t.Parallel()

	fetcher := &staticFetcher{pages: map[string]string{"https://example.com/rss": sampleRSS}}
	source := NewSource(fetcher, nil)

	entries := source.FetchEntries(context.Background(), "example", "https://example.com/rss", 1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestFetchEntriesUnavailableFeed(t *testing.T) {
	t.Parallel()

	source := NewSource(&staticFetcher{}, nil)
	if entries := source.FetchEntries(context.Background(), "example", "https://example.com/missing", 0); entries != nil {
		t.Fatalf("expected nil for unreachable feed, got %v", entries)
	}
}

func TestFetchEntriesMalformedFeed(t *testing.T) {
	t.Parallel()

	fetcher := &staticFetcher{pages: map[string]string{"u": "this is not xml at all"}}
	source := NewSource(fetcher, nil)

	if entries := source.FetchEntries(context.Background(), "example", "u", 0); entries != nil {
		t.Fatalf("expected nil for malformed feed, got %v", entries)
	}
}
