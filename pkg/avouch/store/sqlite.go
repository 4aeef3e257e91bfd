// Package store persists assessments in SQLite and prunes them on a
// retention schedule.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/chosenoffset/avouch/pkg/avouch"
)

// DefaultListLimit bounds List queries that do not set their own limit.
const DefaultListLimit = 100

// SQLiteStore persists assessments in a SQLite database. It uses a
// write-ahead log for concurrent reads and a single writer connection.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	mu        sync.RWMutex
	closeOnce sync.Once

	saveStmt   *sql.Stmt
	countStmt  *sql.Stmt
	deleteStmt *sql.Stmt
}

// Config configures the SQLite store.
type Config struct {
	// Path is the path to the SQLite database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the assessment database at path with
// default settings.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(Config{Path: path})
}

// NewSQLiteStoreWithConfig opens the assessment database with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		version INTEGER NOT NULL,
		origin TEXT NOT NULL,
		level TEXT NOT NULL,
		label TEXT NOT NULL,
		color TEXT NOT NULL,
		rule TEXT,
		encoded TEXT NOT NULL,
		context TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	CREATE INDEX IF NOT EXISTS idx_assessments_origin ON assessments(origin);
	CREATE INDEX IF NOT EXISTS idx_assessments_level ON assessments(level);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse. List builds its
// query dynamically from the filter and is not prepared.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO assessments (id, created_at, version, origin, level, label, color, rule, encoded, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.countStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM assessments`)
	if err != nil {
		return fmt.Errorf("failed to prepare count statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`DELETE FROM assessments WHERE created_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Save persists one assessment.
func (s *SQLiteStore) Save(ctx context.Context, a *avouch.Assessment) error {
	if a == nil {
		return fmt.Errorf("assessment cannot be nil")
	}
	if a.ID == "" {
		return fmt.Errorf("assessment id cannot be empty")
	}

	var contextJSON []byte
	if a.Context != nil {
		var err error
		contextJSON, err = json.Marshal(a.Context)
		if err != nil {
			return fmt.Errorf("failed to marshal context: %w", err)
		}
	}

	created := a.Time
	if created.IsZero() {
		created = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.saveStmt.ExecContext(ctx,
		a.ID,
		created.Unix(),
		a.Version,
		a.Origin,
		a.Outcome.Level,
		a.Outcome.Label,
		a.Outcome.Color,
		a.Rule,
		a.Encoded,
		string(contextJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save assessment: %w", err)
	}

	return nil
}

// Filter narrows List results. Zero fields are ignored.
type Filter struct {
	// Origin keeps only assessments from this origin.
	Origin string

	// Level keeps only assessments classified at this level.
	Level string

	// Since keeps assessments created at or after this time.
	Since time.Time

	// Until keeps assessments created before this time.
	Until time.Time

	// Limit caps the number of rows returned. Zero means DefaultListLimit.
	Limit int
}

// List returns stored assessments matching the filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]*avouch.Assessment, error) {
	query := strings.Builder{}
	query.WriteString(`
		SELECT id, created_at, version, origin, level, label, color, rule, encoded, context
		FROM assessments
	`)

	var conds []string
	var args []any
	if f.Origin != "" {
		conds = append(conds, "origin = ?")
		args = append(args, f.Origin)
	}
	if f.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, f.Level)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.Since.Unix())
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, f.Until.Unix())
	}
	if len(conds) > 0 {
		query.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*avouch.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return assessments, nil
}

// Count returns the number of stored assessments.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	if err := s.countStmt.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}

// DeleteBefore removes assessments created before the cutoff and returns
// how many rows were deleted.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.deleteStmt.ExecContext(ctx, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete assessments: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Close releases the database and prepared statements. Close is
// idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.countStmt != nil {
			s.countStmt.Close()
		}
		if s.deleteStmt != nil {
			s.deleteStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

func scanAssessment(rows *sql.Rows) (*avouch.Assessment, error) {
	var (
		id          string
		createdAt   int64
		version     int
		origin      string
		level       string
		label       string
		color       string
		rule        string
		encoded     string
		contextJSON string
	)

	if err := rows.Scan(&id, &createdAt, &version, &origin, &level, &label, &color, &rule, &encoded, &contextJSON); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	a := &avouch.Assessment{
		ID:      id,
		Time:    time.Unix(createdAt, 0).UTC(),
		Version: version,
		Origin:  origin,
		Encoded: encoded,
		Outcome: avouch.Outcome{Level: level, Label: label, Color: color},
		Rule:    rule,
	}

	if contextJSON != "" {
		ctx, err := decodeContext(contextJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
		a.Context = ctx
	}

	return a, nil
}

// decodeContext rebuilds an evaluation context from its JSON form.
func decodeContext(raw string) (avouch.Context, error) {
	var ctx avouch.Context
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}
