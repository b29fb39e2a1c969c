package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var errNotOpened = errors.New("database not opened")

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance. A nil logger
// discards output.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// NewWithDB wraps an existing connection; the schema must already exist.
func NewWithDB(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	s := NewSQLiteStore(logger)
	s.db = db
	return s
}

// Open opens the database at path and migrates it.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := MigrateWithDB(db); err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened state store", slog.String("path", path))
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// RecordExport inserts rec, filling in ID and CreatedAt when unset.
func (s *SQLiteStore) RecordExport(ctx context.Context, rec *ExportRecord) error {
	if s.db == nil {
		return errNotOpened
	}
	if rec.ID == "" {
		rec.ID = generateID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (id, exporter, source, target, digest, size, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Exporter, rec.Source, rec.Target, rec.Digest, rec.Size, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record export of %s: %w", rec.Target, err)
	}
	s.logger.Debug("recorded export",
		slog.String("exporter", rec.Exporter),
		slog.String("target", rec.Target),
		slog.String("digest", rec.Digest))
	return nil
}

// LastDigest returns the digest of the newest export of target.
func (s *SQLiteStore) LastDigest(ctx context.Context, target string) (string, error) {
	if s.db == nil {
		return "", errNotOpened
	}
	var digest string
	err := s.db.QueryRowContext(ctx,
		`SELECT digest FROM exports WHERE target = ? ORDER BY seq DESC LIMIT 1`, target,
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last digest of %s: %w", target, err)
	}
	return digest, nil
}

// ListExports returns export records, newest first.
func (s *SQLiteStore) ListExports(ctx context.Context, limit int) ([]*ExportRecord, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exporter, source, target, digest, size, created_at FROM exports ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	var out []*ExportRecord
	for rows.Next() {
		rec := &ExportRecord{}
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Exporter, &rec.Source, &rec.Target, &rec.Digest, &rec.Size, &created); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		rec.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return out, nil
}
