package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kwchan/pricewatch/internal/engine"
	"github.com/kwchan/pricewatch/internal/store"
)

var _ store.SnapshotStore = (*Store)(nil)

// Store persists the latest snapshot in a local sqlite file so the
// dashboard survives a restart. One row, overwritten per run.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS snapshot (
  id           INTEGER PRIMARY KEY CHECK (id = 1),
  generated_at TEXT NOT NULL,
  payload      TEXT NOT NULL
);
	`); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, snap *engine.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshot (id, generated_at, payload) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET generated_at = excluded.generated_at, payload = excluded.payload
	`, snap.GeneratedAt.UTC().Format(time.RFC3339), string(payload))
	return err
}

func (s *Store) Latest(ctx context.Context) (*engine.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshot WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
