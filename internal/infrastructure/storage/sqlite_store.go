package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/TrueDMGDev/FintechFinalProject/internal/domain"
	"github.com/TrueDMGDev/FintechFinalProject/internal/ports"
)

const filePrefix = "news_"

// SQLiteStore keeps one sqlite file per source under a shared output
// directory, with articles keyed by URL and the newest write winning.
type SQLiteStore struct {
	dir string

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

var _ ports.ArticleStore = (*SQLiteStore)(nil)

// NewSQLiteStore wires the output directory; files are created lazily.
func NewSQLiteStore(dir string) *SQLiteStore {
	return &SQLiteStore{dir: dir, dbs: map[string]*sql.DB{}}
}

// SafeSourceID maps a source id to a filesystem-safe lowercase token.
func SafeSourceID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// Upsert merges articles into the source's file, replacing rows that share a
// URL, and returns the merged row count.
func (s *SQLiteStore) Upsert(ctx context.Context, sourceID string, articles []domain.Article) (int, error) {
	db, err := s.open(sourceID)
	if err != nil {
		return 0, err
	}

	for _, a := range articles {
		if a.URL == "" {
			continue
		}

		authors, _ := json.Marshal(a.Authors)
		tags, _ := json.Marshal(a.Tags)
		entities, _ := json.Marshal(a.Entities)
		keywords, _ := json.Marshal(a.Keywords)

		var publishedAt any
		if a.PublishedAt != nil {
			publishedAt = a.PublishedAt.UTC().Format(time.RFC3339)
		}

		query, args, err := sq.Insert("articles").
			Columns("url", "source", "title", "published_at", "summary", "text",
				"authors", "tags", "entities", "keywords",
				"score", "is_duplicate", "duplicate_of_url", "updated_at").
			Values(a.URL, a.Source, a.Title, publishedAt, a.Summary, a.Text,
				string(authors), string(tags), string(entities), string(keywords),
				a.Score, a.IsDuplicate, a.DuplicateOfURL, time.Now().UTC().Format(time.RFC3339)).
			Suffix(`ON CONFLICT(url) DO UPDATE SET
				source = excluded.source,
				title = excluded.title,
				published_at = excluded.published_at,
				summary = excluded.summary,
				text = excluded.text,
				authors = excluded.authors,
				tags = excluded.tags,
				entities = excluded.entities,
				keywords = excluded.keywords,
				score = excluded.score,
				is_duplicate = excluded.is_duplicate,
				duplicate_of_url = excluded.duplicate_of_url,
				updated_at = excluded.updated_at`).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build upsert: %w", err)
		}

		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", a.URL, err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}

// Tail returns the newest n (text, url) pairs in oldest-first order, for use
// as a dedup comparison window.
func (s *SQLiteStore) Tail(ctx context.Context, sourceID string, n int) ([]string, []string, error) {
	if n <= 0 {
		return nil, nil, nil
	}

	db, err := s.open(sourceID)
	if err != nil {
		return nil, nil, err
	}

	query, args, err := sq.Select("text", "url").
		From("articles").
		OrderBy("rowid DESC").
		Limit(uint64(n)).
		ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build tail query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query tail: %w", err)
	}
	defer rows.Close()

	var texts, urls []string
	for rows.Next() {
		var text, url string
		if err := rows.Scan(&text, &url); err != nil {
			return nil, nil, fmt.Errorf("scan tail row: %w", err)
		}
		texts = append(texts, text)
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("tail rows: %w", err)
	}

	// query returned newest first; callers want oldest first
	for i, j := 0, len(texts)-1; i < j; i, j = i+1, j-1 {
		texts[i], texts[j] = texts[j], texts[i]
		urls[i], urls[j] = urls[j], urls[i]
	}
	return texts, urls, nil
}

// Sources lists the source ids that already have a storage file.
func (s *SQLiteStore) Sources(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".db") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), ".db"))
	}
	return ids, nil
}

// Close releases all open database handles.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for id, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, id)
	}
	return firstErr
}

func (s *SQLiteStore) open(sourceID string) (*sql.DB, error) {
	id := SafeSourceID(sourceID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[id]; ok {
		return db, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	path := filepath.Join(s.dir, filePrefix+id+".db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS articles (
		url TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT,
		published_at TEXT,
		summary TEXT,
		text TEXT,
		authors TEXT,
		tags TEXT,
		entities TEXT,
		keywords TEXT,
		score REAL NOT NULL DEFAULT 0,
		is_duplicate INTEGER NOT NULL DEFAULT 0,
		duplicate_of_url TEXT,
		updated_at TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s.dbs[id] = db
	return db, nil
}
