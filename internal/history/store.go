package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded render.
type Run struct {
	ID           string
	Title        string
	InputDir     string
	OutputPath   string
	Status       Status
	Stage        string
	Puzzles      int
	Pages        int
	Duration     time.Duration
	ErrorKind    string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Outcome is what Finish records for a run.
type Outcome struct {
	Stage        string
	OutputPath   string
	Puzzles      int
	Pages        int
	Duration     time.Duration
	ErrorKind    string
	ErrorMessage string
}

// Store persists runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tables int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tables == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// Start records a new running run.
func (s *Store) Start(ctx context.Context, id, inputDir string, startedAt time.Time) (*Run, error) {
	title := Title(inputDir)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, title, input_dir, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, title, inputDir, StatusRunning, startedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, id)
}

// Finish marks a run succeeded, or failed when out.ErrorKind is set.
func (s *Store) Finish(ctx context.Context, id string, out Outcome, finishedAt time.Time) error {
	status := StatusSucceeded
	if out.ErrorKind != "" {
		status = StatusFailed
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stage = ?, output_path = ?, puzzles = ?, pages = ?,
            duration_ms = ?, error_kind = ?, error_message = ?, finished_at = ?
        WHERE id = ?`,
		status,
		nullableString(out.Stage),
		nullableString(out.OutputPath),
		out.Puzzles,
		out.Pages,
		out.Duration.Milliseconds(),
		nullableString(out.ErrorKind),
		nullableString(out.ErrorMessage),
		finishedAt.UTC().Format(timeLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const runColumns = `id, title, input_dir, output_path, status, stage, puzzles, pages,
    duration_ms, error_kind, error_message, started_at, finished_at`

// Get returns one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Recent returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Prune deletes finished runs that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE status != ? AND started_at < ?",
		StatusRunning, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                                         Run
		output, stage, errKind, errMsg, finishedRaw sql.NullString
		status, startedRaw                          string
		durationMS                                  int64
	)
	if err := row.Scan(&run.ID, &run.Title, &run.InputDir, &output, &status, &stage,
		&run.Puzzles, &run.Pages, &durationMS, &errKind, &errMsg, &startedRaw, &finishedRaw); err != nil {
		return nil, err
	}
	run.OutputPath = output.String
	run.Status = Status(status)
	run.Stage = stage.String
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.ErrorKind = errKind.String
	run.ErrorMessage = errMsg.String
	started, err := time.Parse(timeLayout, startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedRaw.Valid {
		finished, err := time.Parse(timeLayout, finishedRaw.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
