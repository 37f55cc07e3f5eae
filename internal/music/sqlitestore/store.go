// SPDX-License-Identifier: MIT

// Package sqlitestore backs the music lookup service with SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/glintworks/reels/internal/music"
)

// Store provides SQLite persistence for product music rows.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// busy_timeout avoids "database locked" errors under concurrent reads.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS product_music (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		audio_url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		artist TEXT NOT NULL DEFAULT '',
		start_at REAL NOT NULL DEFAULT 0,
		end_at REAL,
		priority INTEGER NOT NULL DEFAULT 100,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_product_music_product ON product_music(product_id, active, priority);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ActiveByProduct implements music.LookupService. Rows come back in
// priority order so ties preserve insertion order downstream.
func (s *Store) ActiveByProduct(ctx context.Context, productID int64) ([]music.Row, error) {
	query := `
	SELECT audio_url, title, artist, start_at, end_at, priority
	FROM product_music
	WHERE product_id = ? AND active = 1
	ORDER BY priority ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("query product music: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []music.Row
	for rows.Next() {
		var r music.Row
		var endAt sql.NullFloat64
		if err := rows.Scan(&r.AudioURL, &r.Title, &r.Artist, &r.StartAt, &endAt, &r.Priority); err != nil {
			return nil, fmt.Errorf("scan product music row: %w", err)
		}
		if endAt.Valid {
			v := endAt.Float64
			r.EndAt = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Upsert inserts a music row for a product. Used by ingest tooling and
// tests; the playback path is read-only.
func (s *Store) Upsert(ctx context.Context, productID int64, r music.Row, active bool) error {
	query := `
	INSERT INTO product_music (product_id, audio_url, title, artist, start_at, end_at, priority, active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var endAt any
	if r.EndAt != nil {
		endAt = *r.EndAt
	}
	activeFlag := 0
	if active {
		activeFlag = 1
	}
	_, err := s.db.ExecContext(ctx, query, productID, r.AudioURL, r.Title, r.Artist, r.StartAt, endAt, r.Priority, activeFlag)
	return err
}
