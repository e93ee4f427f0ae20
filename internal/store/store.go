// Package store provides SQLite-backed persistence for labeled news items.
//
// The news table is an append-only log keyed by URL: uniqueness is enforced
// by the store itself (UNIQUE constraint + INSERT OR IGNORE), so concurrent
// fetches racing on the same URL cannot produce duplicate rows.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/finpulse/finpulse/pkg/models"
)

// Schema is the SQLite schema for stored news.
const Schema = `
CREATE TABLE IF NOT EXISTS news (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    title        TEXT NOT NULL,
    description  TEXT,
    url          TEXT NOT NULL UNIQUE,
    source       TEXT,
    region       TEXT,
    published_at TIMESTAMP,
    sentiment    TEXT NOT NULL,
    score        REAL NOT NULL,
    fallback     INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_news_published ON news(published_at DESC);
CREATE INDEX IF NOT EXISTS idx_news_region ON news(region);
`

// Store provides news persistence.
type Store struct {
	db *sql.DB
}

// Open creates a Store at dbPath and initializes the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL improves concurrent read behavior while a fetch is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// InsertArticle persists a labeled article if its URL is not already stored.
// Returns true when a new row was written. Articles without a URL are
// rejected without error. The conditional insert is a single atomic
// statement; the UNIQUE constraint on url is the idempotence guarantee.
func (s *Store) InsertArticle(ctx context.Context, a models.Article, label models.Sentiment, score float64) (bool, error) {
	if a.URL == "" {
		return false, nil
	}

	var published any
	if !a.PublishedAt.IsZero() {
		published = a.PublishedAt.UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO news (title, description, url, source, region, published_at, sentiment, score, fallback)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.Title, a.Description, a.URL, a.Source, a.Region, published, string(label), score, boolToInt(a.Fallback))
	if err != nil {
		return false, fmt.Errorf("insert news item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Recent returns the most recent n stored items ordered by publication time
// descending, rows without a publication time last.
func (s *Store) Recent(ctx context.Context, n int) ([]models.StoredNewsItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, url, source, region, published_at, sentiment, score, fallback, created_at
		FROM news
		ORDER BY published_at DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent news: %w", err)
	}
	defer rows.Close()

	var items []models.StoredNewsItem
	for rows.Next() {
		var item models.StoredNewsItem
		var desc, source, region sql.NullString
		var published, created sql.NullTime
		var fallback int
		if err := rows.Scan(&item.ID, &item.Title, &desc, &item.URL, &source, &region,
			&published, &item.Sentiment, &item.Score, &fallback, &created); err != nil {
			return nil, fmt.Errorf("scan news row: %w", err)
		}
		item.Description = desc.String
		item.Source = source.String
		item.Region = region.String
		item.Fallback = fallback != 0
		if published.Valid {
			item.PublishedAt = published.Time
		}
		if created.Valid {
			item.CreatedAt = created.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the total number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news").Scan(&count)
	return count, err
}

// CountBySentiment returns stored item counts keyed by sentiment label.
func (s *Store) CountBySentiment(ctx context.Context) (map[models.Sentiment]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT sentiment, COUNT(*) FROM news GROUP BY sentiment")
	if err != nil {
		return nil, fmt.Errorf("count by sentiment: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Sentiment]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, err
		}
		counts[models.Sentiment(label)] = n
	}
	return counts, rows.Err()
}

// HasURL reports whether a URL is already stored. Read-only helper for
// callers that want to pre-filter; InsertArticle does not depend on it.
func (s *Store) HasURL(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM news WHERE url = ?", url).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
