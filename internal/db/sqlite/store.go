// Package sqlite is a single-file descriptor store on modernc.org/sqlite. Stored-field
// ranges and namespace prefixes run as SQL; the rest of the plan runs in process.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/db/sqlite/migrations"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
	"github.com/kailas-cloud/audiodex/internal/pipeline/eval"
)

var _ db.DescriptorStore = (*Store)(nil)

// Store keeps descriptor documents in one table, with the numeric fields used for
// pushdown copied into their own columns.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies pending migrations.
// ":memory:" opens a private in-memory database.
func NewStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
	}

	s := &Store{db: conn}
	if err := s.migrate(migrations.FS); err != nil {
		conn.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}
	return s, nil
}

// migrate runs every *.up.sql newer than the recorded schema version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			upFiles = append(upFiles, e.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// EnsureCollection is a no-op: all collections share the descriptors table.
func (s *Store) EnsureCollection(context.Context, string) error { return nil }

// Upsert inserts or replaces a document.
func (s *Store) Upsert(ctx context.Context, collection string, doc descriptor.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	var chordConfidence *float64
	if v, ok := doc.Number(pipeline.FieldChordsConfidence); ok {
		chordConfidence = &v
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO descriptors (collection, id, doc, tempo, tuning, duration, chord_confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, id) DO UPDATE SET
			doc = excluded.doc,
			tempo = excluded.tempo,
			tuning = excluded.tuning,
			duration = excluded.duration,
			chord_confidence = excluded.chord_confidence,
			updated_at = excluded.updated_at
	`, collection, doc.ID, string(data), doc.Tempo, doc.Tuning, doc.Duration, chordConfidence)
	if err != nil {
		return &db.Error{Op: db.OpReplace, Err: err}
	}
	return nil
}

// Get loads one document.
func (s *Store) Get(ctx context.Context, collection, id string) (descriptor.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM descriptors WHERE collection = ? AND id = ?", collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return descriptor.Document{}, db.ErrKeyNotFound
	}
	if err != nil {
		return descriptor.Document{}, &db.Error{Op: db.OpFind, Err: err}
	}
	return decode(raw)
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM descriptors WHERE collection = ?", collection,
	).Scan(&n)
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return n, nil
}

// Execute selects candidates with the pushed-down WHERE clause and evaluates the
// residual stages over them. Pagination over id order runs in SQL.
func (s *Store) Execute(
	ctx context.Context, collection string, stages []pipeline.Stage,
) ([]pipeline.Row, error) {
	pushed, residual := pipeline.SplitPushdown(stages, pipeline.StoredPredicate)
	expr, err := db.PushdownFilter(pushed)
	if err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}
	where, args := buildWhere(collection, expr)

	query := "SELECT doc FROM descriptors WHERE " + where + " ORDER BY id"
	if body, offset, limit, ok := pipeline.PushdownPaging(residual); ok {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
		residual = body
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer rows.Close()

	var docs []descriptor.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	out, err := eval.Run(docs, residual)
	if err != nil {
		return nil, &db.Error{Op: db.OpExecute, Err: err}
	}
	return out, nil
}

func decode(raw string) (descriptor.Document, error) {
	var doc descriptor.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return descriptor.Document{}, &db.Error{Op: db.OpDecode, Err: err}
	}
	return doc, nil
}
