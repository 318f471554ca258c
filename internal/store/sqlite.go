// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paperstore/pkg/types"
)

const defaultDBPath = "paperstore.db"

// SQLite is a Store backed by a SQLite database. Each record is a row in
// records plus one row per field in fields.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens or creates the database at cfg.Path and creates the
// schema if it does not exist.
func NewSQLite(cfg types.StoreConfig) (*SQLite, error) {
	path := cfg.Path
	if path == "" {
		path = defaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			key TEXT PRIMARY KEY,
			modified TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fields (
			record_key TEXT NOT NULL REFERENCES records(key) ON DELETE CASCADE,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (record_key, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fields_name_value ON fields(name, value)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

func (s *SQLite) GetRecord(ctx context.Context, key string) (*Record, error) {
	var modified string
	err := s.db.QueryRowContext(ctx, `SELECT modified FROM records WHERE key = ?`, key).Scan(&modified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading record %s: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM fields WHERE record_key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("reading fields of %s: %w", key, err)
	}
	defer rows.Close()

	rec := &Record{Key: key, Fields: make(map[string]string)}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		rec.Fields[name] = value
	}
	return rec, rows.Err()
}

const notDraft = `NOT EXISTS (SELECT 1 FROM fields d WHERE d.record_key = f.record_key AND d.name = '` + FieldDraftOf + `')`

func (s *SQLite) FindRecordsByField(ctx context.Context, field, value string) ([]string, error) {
	return s.keys(ctx,
		`SELECT f.record_key FROM fields f WHERE f.name = ? AND f.value = ? AND `+notDraft+` ORDER BY f.record_key`,
		field, value)
}

func (s *SQLite) FindRecordsWithField(ctx context.Context, field string) ([]string, error) {
	return s.keys(ctx,
		`SELECT f.record_key FROM fields f WHERE f.name = ? AND f.value != '' AND `+notDraft+` ORDER BY f.record_key`,
		field)
}

func (s *SQLite) keys(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// PutRecord replaces the record's fields in one transaction.
func (s *SQLite) PutRecord(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	modified := s.now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (key, modified) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET modified=excluded.modified`,
		rec.Key, modified,
	); err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.Key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fields WHERE record_key = ?`, rec.Key); err != nil {
		return fmt.Errorf("clearing fields of %s: %w", rec.Key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fields (record_key, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for name, value := range rec.Fields {
		if _, err := stmt.ExecContext(ctx, rec.Key, name, value); err != nil {
			return fmt.Errorf("inserting field %s of %s: %w", name, rec.Key, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.key, f.name, f.value FROM records r
		 LEFT JOIN fields f ON f.record_key = r.key
		 ORDER BY r.key`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var key string
		var name, value sql.NullString
		if err := rows.Scan(&key, &name, &value); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Key != key {
			out = append(out, Record{Key: key, Fields: make(map[string]string)})
		}
		if name.Valid {
			out[len(out)-1].Fields[name.String] = value.String
		}
	}
	return out, rows.Err()
}
