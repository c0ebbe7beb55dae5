package store

import (
	"context"
	"database/sql"

	"github.com/hpungsan/curatr/internal/db"
)

// SQLite is a KV backed by the kv_entries table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an initialized database (see db.Init).
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{db: conn}
}

// Get implements KV.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return db.GetEntry(ctx, s.db, key)
}

// Put implements KV.
func (s *SQLite) Put(ctx context.Context, entries map[string][]byte) error {
	return db.PutEntries(ctx, s.db, entries)
}
