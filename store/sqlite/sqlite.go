// Package sqlite stores catalog records in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	snapcatalog "github.com/anatolykoptev/go-snapcatalog"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS catalog (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  note TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL DEFAULT '',
  date_added TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS catalog_name ON catalog(name);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create catalog table: %w", err)
	}
	return nil
}

// Insert appends rec. Rows are never updated.
func (s *Store) Insert(ctx context.Context, rec snapcatalog.CatalogRecord) error {
	const stmt = `
INSERT INTO catalog (name, type, note, link, date_added, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`
	_, err := s.db.ExecContext(ctx, stmt,
		rec.Name,
		rec.Type.String(),
		rec.Note,
		rec.Link,
		rec.DateAdded.Format(snapcatalog.DateLayout),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert %q: %w", rec.Name, err)
	}
	return nil
}

func (s *Store) ListNames(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM catalog`)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan name: %w", err)
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

// Records returns every row in insertion order.
func (s *Store) Records(ctx context.Context) ([]snapcatalog.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, note, link, date_added FROM catalog ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []snapcatalog.CatalogRecord
	for rows.Next() {
		var (
			rec       snapcatalog.CatalogRecord
			typ, date string
		)
		if err := rows.Scan(&rec.Name, &typ, &rec.Note, &rec.Link, &date); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Type = snapcatalog.ParseSubjectType(typ)
		if t, err := time.Parse(snapcatalog.DateLayout, date); err == nil {
			rec.DateAdded = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
