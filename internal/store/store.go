// Package store handles SQLite persistence of the session history.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkazakov/reax/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// historyKey is the well-known snapshot key holding the full record array.
const historyKey = "reactionTestHistory"

// Store wraps SQLite access for the append-only history.
//
// The history lives as one JSON array under a single key: it is loaded
// wholesale at startup and rewritten wholesale on every append. There is no
// update or delete-by-record operation; the only destruction is ClearAll.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		payload TEXT NOT NULL
	);`)
	return err
}

// LoadAll returns all history records in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]model.HistoryRecord, error) {
	return s.loadLocked(ctx, s.db.QueryRowContext)
}

type rowQuerier func(ctx context.Context, query string, args ...any) *sql.Row

func (s *Store) loadLocked(ctx context.Context, queryRow rowQuerier) ([]model.HistoryRecord, error) {
	var payload string
	err := queryRow(ctx, `SELECT payload FROM snapshots WHERE key = ?`, historyKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	var records []model.HistoryRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return records, nil
}

// Append adds one record to the history. The snapshot is rewritten in a
// single transaction; on failure the stored history is unchanged and the
// caller keeps the in-memory record.
func (s *Store) Append(ctx context.Context, record model.HistoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	records, err := s.loadLocked(ctx, tx.QueryRowContext)
	if err != nil {
		return err
	}
	records = append(records, record)
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (key, payload) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload`,
		historyKey, string(payload)); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// ClearAll erases the entire history.
func (s *Store) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, historyKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
