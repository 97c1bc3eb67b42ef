// Package ledger persists job results in SQLite so runs can be browsed afterwards.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rxtech-lab/argo-replay/internal/scheduler"
)

const memoryPath = ":memory:"

// Entry is one recorded job result.
type Entry struct {
	ID     string
	Key    string
	Status scheduler.Status
	Error  string
	// Value is the job's return value as JSON.
	Value      string
	Logs       string
	StartedAt  time.Time
	Duration   time.Duration
	RecordedAt time.Time
}

// Ledger is a SQLite-backed scheduler.ResultSink.
type Ledger struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// Open opens or creates the ledger at path. An empty path keeps it in memory.
func Open(path string) (*Ledger, error) {
	dsn := path
	if path == "" || path == memoryPath {
		dsn = memoryPath
	} else if err := ensureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	if dsn == memoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			job_key TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			value TEXT,
			logs TEXT,
			started_at TIMESTAMP,
			duration_ms INTEGER,
			recorded_at TIMESTAMP
		)
	`)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to create jobs table: %w", err)
	}

	return &Ledger{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Record stores result. It implements scheduler.ResultSink.
func (l *Ledger) Record(ctx context.Context, result scheduler.Result) error {
	var errText string
	if result.Err != nil {
		errText = result.Err.Error()
	}

	var value string

	if result.Value != nil {
		data, err := json.Marshal(result.Value)
		if err != nil {
			return fmt.Errorf("failed to encode value of job %s: %w", result.Key, err)
		}

		value = string(data)
	}

	query, args, err := l.sq.Insert("jobs").
		Columns("id", "job_key", "status", "error", "value", "logs", "started_at", "duration_ms", "recorded_at").
		Values(uuid.New().String(), result.Key, string(result.Status), errText, value, result.Logs,
			result.Started.UTC(), result.Duration.Milliseconds(), time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	// A canceled run still records its results.
	if _, err := l.db.ExecContext(context.WithoutCancel(ctx), query, args...); err != nil {
		return fmt.Errorf("failed to record job %s: %w", result.Key, err)
	}

	return nil
}

// List returns entries with status, newest first. An empty status lists everything.
func (l *Ledger) List(ctx context.Context, status scheduler.Status) ([]Entry, error) {
	builder := l.sq.Select("id", "job_key", "status", "error", "value", "logs", "started_at", "duration_ms", "recorded_at").
		From("jobs").
		OrderBy("recorded_at DESC", "job_key")

	if status != "" {
		builder = builder.Where(squirrel.Eq{"status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e          Entry
			st         string
			errText    sql.NullString
			value      sql.NullString
			logs       sql.NullString
			durationMs int64
		)

		if err := rows.Scan(&e.ID, &e.Key, &st, &errText, &value, &logs, &e.StartedAt, &durationMs, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		e.Status = scheduler.Status(st)
		e.Error = errText.String
		e.Value = value.String
		e.Logs = logs.String
		e.Duration = time.Duration(durationMs) * time.Millisecond

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Counts tallies recorded entries by status.
func (l *Ledger) Counts(ctx context.Context) (map[scheduler.Status]int, error) {
	query, args, err := l.sq.Select("status", "COUNT(*)").From("jobs").GroupBy("status").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[scheduler.Status]int)

	for rows.Next() {
		var (
			st string
			n  int
		)

		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}

		counts[scheduler.Status(st)] = n
	}

	return counts, rows.Err()
}

func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}

	return l.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", path, err)
	}

	return nil
}
