package storage

import (
	"context"
	"testing"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
)

func TestSafeSourceID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"reuters", "reuters"},
		{"Yahoo Finance!", "yahoo_finance_"},
		{"ft-markets_2", "ft-markets_2"},
		{"", "unknown"},
		{"///", "___"},
	}
	for _, c := range cases {
		if got := SafeSourceID(c.in); got != c.want {
			t.Fatalf("SafeSourceID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestUpsertReplacesByURL(t *testing.T) {
	t.Parallel()

	store := NewSQLiteStore(t.TempDir())
	defer store.Close()
	ctx := context.Background()

	first := domain.Article{Source: "reuters", URL: "https://x.com/a", Title: "Old title", Text: "old text"}
	count, err := store.Upsert(ctx, "reuters", []domain.Article{first})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	second := first
	second.Title = "New title"
	second.Text = "new text"
	count, err = store.Upsert(ctx, "reuters", []domain.Article{second})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if count != 1 {
		t.Fatalf("same URL must not add a row, got %d", count)
	}

	texts, urls, err := store.Tail(ctx, "reuters", 10)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(texts) != 1 || texts[0] != "new text" {
		t.Fatalf("expected replaced text, got %v", texts)
	}
	if urls[0] != "https://x.com/a" {
		t.Fatalf("unexpected url: %q", urls[0])
	}
}

func TestUpsertSkipsEmptyURL(t *testing.T) {
	t.Parallel()

	store := NewSQLiteStore(t.TempDir())
	defer store.Close()
	ctx := context.Background()

	count, err := store.Upsert(ctx, "reuters", []domain.Article{
		{Source: "reuters", Title: "no url", Text: "x"},
		{Source: "reuters", URL: "https://x.com/a", Title: "ok", Text: "y"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestTailReturnsNewestOldestFirst(t *testing.T) {
	t.Parallel()

	store := NewSQLiteStore(t.TempDir())
	defer store.Close()
	ctx := context.Background()

	articles := []domain.Article{
		{Source: "s", URL: "u1", Text: "t1"},
		{Source: "s", URL: "u2", Text: "t2"},
		{Source: "s", URL: "u3", Text: "t3"},
	}
	if _, err := store.Upsert(ctx, "s", articles); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	texts, urls, err := store.Tail(ctx, "s", 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(texts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(texts))
	}
	if texts[0] != "t2" || texts[1] != "t3" {
		t.Fatalf("expected oldest-first tail, got %v", texts)
	}
	if urls[0] != "u2" || urls[1] != "u3" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestTailZeroLimit(t *testing.T) {
	t.Parallel()

	store := NewSQLiteStore(t.TempDir())
	defer store.Close()

	texts, urls, err := store.Tail(context.Background(), "s", 0)
	if err != nil || texts != nil || urls != nil {
		t.Fatalf("expected empty result, got %v %v %v", texts, urls, err)
	}
}

func TestSourcesListsExistingFiles(t *testing.T) {
	t.Parallel()

	store := NewSQLiteStore(t.TempDir())
	defer store.Close()
	ctx := context.Background()

	if _, err := store.Upsert(ctx, "Reuters", []domain.Article{{Source: "Reuters", URL: "u", Text: "t"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	ids, err := store.Sources(ctx)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(ids) != 1 || ids[0] != "reuters" {
		t.Fatalf("unexpected sources: %v", ids)
	}
}

func TestSourcesMissingDir(t *testing.T) {
	t.Parallel()

	store := NewSQLiteStore("does-not-exist-anywhere")
	ids, err := store.Sources(context.Background())
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no sources, got %v", ids)
	}
}
