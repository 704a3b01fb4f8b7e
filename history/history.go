// Package history records completed conversions in SQLite so a package can
// be downloaded again, listed or deleted after the request that produced it.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/odfpack/dbopen"
	"github.com/hazyhaar/odfpack/idgen"
	"github.com/hazyhaar/odfpack/odf"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("history: conversion not found")

// ErrNoArchive is returned by Archive when the record was stored without
// its package bytes.
var ErrNoArchive = errors.New("history: archive not kept")

// DocTypeBatch marks records whose archive bundles several packages.
const DocTypeBatch odf.DocumentType = "batch"

// Record is one completed conversion.
type Record struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	OutputName  string           `json:"output_name"`
	DocType     odf.DocumentType `json:"doc_type"`
	InputSize   int64            `json:"input_size"`
	InputSHA256 string           `json:"input_sha256"`
	OutputSize  int64            `json:"output_size"`
	HasArchive  bool             `json:"has_archive"`
	CreatedAt   int64            `json:"created_at"`

	// Archive is the package bytes. Nil means the archive is not kept.
	Archive []byte `json:"-"`
}

// Stats summarizes the store.
type Stats struct {
	Total     int            `json:"total"`
	ByType    map[string]int `json:"by_type"`
	Archived  int            `json:"archived"`
	InputSize int64          `json:"input_bytes"`
}

const schema = `
CREATE TABLE IF NOT EXISTS conversions (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    output_name  TEXT NOT NULL,
    doc_type     TEXT NOT NULL,
    input_size   INTEGER NOT NULL,
    input_sha256 TEXT NOT NULL,
    output_size  INTEGER NOT NULL,
    archive      BLOB,
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversions_created ON conversions(created_at DESC);
`

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the record ID generator (default: cnv_ + UUIDv7).
func WithIDGenerator(gen idgen.Generator) Option { return func(s *Store) { s.newID = gen } }

// WithClock overrides the clock stamping created_at.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// Store reads and writes conversion records.
type Store struct {
	db     *sql.DB
	newID  idgen.Generator
	now    func() time.Time
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and initializes the
// schema. Close the returned store when done.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(schema))
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return NewStore(db, opts...), nil
}

// NewStore wraps an open database. Call Init before use unless the database
// came from Open.
func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		newID:  idgen.Prefixed("cnv_", idgen.UUIDv7()),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init creates the schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("history: schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Checksum returns the hex SHA-256 of content, as stored in InputSHA256.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Insert stores rec and returns its ID. ID and CreatedAt are filled in when
// empty.
func (s *Store) Insert(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now().UnixMilli()
	}
	var archive any
	if rec.Archive != nil {
		archive = rec.Archive
	}

	_, err := dbopen.Exec(ctx, s.db,
		`INSERT INTO conversions (id, name, output_name, doc_type, input_size, input_sha256, output_size, archive, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.OutputName, string(rec.DocType), rec.InputSize, rec.InputSHA256,
		rec.OutputSize, archive, rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("history: insert: %w", err)
	}
	s.logger.DebugContext(ctx, "history: recorded conversion", "id", rec.ID, "name", rec.OutputName)
	return rec.ID, nil
}

const selectColumns = `id, name, output_name, doc_type, input_size, input_sha256, output_size, archive IS NOT NULL, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var docType string
	err := row.Scan(&rec.ID, &rec.Name, &rec.OutputName, &docType, &rec.InputSize,
		&rec.InputSHA256, &rec.OutputSize, &rec.HasArchive, &rec.CreatedAt)
	rec.DocType = odf.DocumentType(docType)
	return rec, err
}

// Get returns the record metadata for id, without the archive bytes.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM conversions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history: get: %w", err)
	}
	return &rec, nil
}

// List returns up to limit records, newest first. limit <= 0 means 50.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM conversions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Archive returns the stored package bytes for id.
func (s *Store) Archive(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT archive FROM conversions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("history: archive: %w", err)
	}
	if data == nil {
		return nil, ErrNoArchive
	}
	return data, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM conversions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every record and returns how many were deleted.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := dbopen.Exec(ctx, s.db, `DELETE FROM conversions`)
	if err != nil {
		return 0, fmt.Errorf("history: delete all: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "history: cleared", "deleted", n)
	return n, nil
}

// Stats counts records per document type.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByType: map[string]int{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_type, COUNT(*), SUM(archive IS NOT NULL), COALESCE(SUM(input_size), 0)
		 FROM conversions GROUP BY doc_type`)
	if err != nil {
		return nil, fmt.Errorf("history: stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docType string
		var count, archived int
		var size int64
		if err := rows.Scan(&docType, &count, &archived, &size); err != nil {
			return nil, fmt.Errorf("history: stats scan: %w", err)
		}
		st.ByType[docType] = count
		st.Total += count
		st.Archived += archived
		st.InputSize += size
	}
	return st, rows.Err()
}
