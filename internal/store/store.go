// Package store keeps a history of capture records in SQLite so that two runs
// against the same site can be compared.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/apiextract/internal/capture"
	"github.com/raysh454/apiextract/internal/logging"

	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrCaptureNotFound = errors.New("capture not found")

const defaultListLimit = 50

type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Open opens (creating if needed) the SQLite database at path and applies the schema.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure store dir %s: %w", dir, err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	s, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and runs the embedded schema.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}

	return &Store{db: db, logger: logger.With(logging.Field{Key: "component", Value: "store"})}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists rec and its URLs in one transaction.
func (s *Store) Save(ctx context.Context, rec *capture.Record) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("saving capture: record has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO captures (id, base_url, target, requests, responses, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.BaseURL, rec.Target, rec.Requests, rec.Responses, rec.StartedAt.UnixNano(), rec.DurationMS)
	if err != nil {
		return fmt.Errorf("insert capture %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO capture_urls (capture_id, position, url) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare url insert: %w", err)
	}
	defer stmt.Close()

	for i, u := range rec.URLs {
		if _, err := stmt.ExecContext(ctx, rec.ID, i, u); err != nil {
			return fmt.Errorf("insert url for capture %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit capture %s: %w", rec.ID, err)
	}
	s.logger.Debug("saved capture",
		logging.Field{Key: "id", Value: rec.ID},
		logging.Field{Key: "urls", Value: len(rec.URLs)})
	return nil
}

// Get loads one capture with its URLs in captured order.
func (s *Store) Get(ctx context.Context, id string) (*capture.Record, error) {
	rec := &capture.Record{}
	var startedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, base_url, target, requests, responses, started_at, duration_ms
		FROM captures WHERE id = ?`, id).
		Scan(&rec.ID, &rec.BaseURL, &rec.Target, &rec.Requests, &rec.Responses, &startedAt, &rec.DurationMS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCaptureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query capture %s: %w", id, err)
	}
	rec.StartedAt = time.Unix(0, startedAt).UTC()

	rec.URLs, err = s.urls(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) urls(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM capture_urls WHERE capture_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query urls for %s: %w", id, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// List returns the most recent captures first, without their URLs.
func (s *Store) List(ctx context.Context, limit int) ([]*capture.Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, base_url, target, requests, responses, started_at, duration_ms
		FROM captures ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	out := []*capture.Record{}
	for rows.Next() {
		rec := &capture.Record{}
		var startedAt int64
		if err := rows.Scan(&rec.ID, &rec.BaseURL, &rec.Target, &rec.Requests, &rec.Responses, &startedAt, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		rec.StartedAt = time.Unix(0, startedAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Diff compares the URL lists of two stored captures.
func (s *Store) Diff(ctx context.Context, fromID, toID string) (*Diff, error) {
	from, err := s.Get(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", fromID, err)
	}
	to, err := s.Get(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", toID, err)
	}
	d := DiffURLs(from.URLs, to.URLs)
	d.From = fromID
	d.To = toID
	return d, nil
}
