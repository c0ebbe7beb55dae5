package db

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/hpungsan/curatr/internal/errors"
)

// GetEntry reads the whole value stored under key.
// Returns found=false (no error) when the key has never been written.
func GetEntry(ctx context.Context, db *sql.DB, key string) ([]byte, bool, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewStorageUnavailable(err)
	}
	return value, true, nil
}

// PutEntries overwrites every given key in one transaction.
func PutEntries(ctx context.Context, db *sql.DB, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return errors.NewStorageUnavailable(err)
	}
	defer stmt.Close()

	// Deterministic write order keeps lock acquisition predictable.
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UnixMilli()
	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, entries[k], now); err != nil {
			return errors.NewStorageUnavailable(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageUnavailable(err)
	}
	return nil
}

// EntryUpdatedAt returns the last write time (unix ms) for key, or 0.
func EntryUpdatedAt(ctx context.Context, db *sql.DB, key string) (int64, error) {
	var updatedAt int64
	err := db.QueryRowContext(ctx, `SELECT updated_at FROM kv_entries WHERE key = ?`, key).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.NewStorageUnavailable(err)
	}
	return updatedAt, nil
}
