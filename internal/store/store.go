// Package store persists cross-day summaries in SQLite so earlier runs can be
// listed and reloaded without reprocessing raw logs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/trialscope/internal/behavioral"
	"github.com/harrison/trialscope/internal/models"
)

// ErrRunNotFound is returned when a run ID has no stored summary
var ErrRunNotFound = errors.New("summary run not found")

// timeLayout is fixed width so created_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run describes one stored cross-day summary
type Run struct {
	ID           string
	Animal       string
	Protocol     string
	Subtitle     string
	CreatedAt    time.Time
	SessionCount int
}

// Store manages the SQLite database of summary runs
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens or creates the database at dbPath and applies migrations
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path
func (s *Store) Path() string {
	return s.dbPath
}

// SaveSummary stores a summary and its sessions under a new run ID
func (s *Store) SaveSummary(ctx context.Context, animal, protocol string, summary *behavioral.CrossDaySummary) (string, error) {
	if err := summary.Validate(); err != nil {
		return "", fmt.Errorf("invalid summary: %w", err)
	}

	runID := uuid.New().String()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	_, err = tx.ExecContext(ctx,
		`INSERT INTO summary_runs (id, animal, protocol, subtitle, created_at, session_count) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, animal, protocol, summary.Subtitle, time.Now().UTC().Format(timeLayout), len(summary.Entries))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO summary_sessions (run_id, day_index, date, box, source_file, metrics_json) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare session insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range summary.Entries {
		metricsJSON, err := json.Marshal(e.SessionMetrics)
		if err != nil {
			return "", fmt.Errorf("marshal day %d: %w", e.DayIndex, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, e.DayIndex, e.Date.UTC().Format(time.RFC3339), e.Box, e.SourceFile, string(metricsJSON)); err != nil {
			return "", fmt.Errorf("insert day %d: %w", e.DayIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns stored runs, newest first. An empty animal lists every run.
func (s *Store) ListRuns(ctx context.Context, animal string) ([]Run, error) {
	query := `SELECT id, animal, protocol, COALESCE(subtitle, ''), created_at, session_count FROM summary_runs`
	var args []interface{}
	if animal != "" {
		query += ` WHERE animal = ?`
		args = append(args, animal)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created string
		if err := rows.Scan(&r.ID, &r.Animal, &r.Protocol, &r.Subtitle, &created, &r.SessionCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(timeLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LoadSummary rebuilds a stored summary in day order
func (s *Store) LoadSummary(ctx context.Context, runID string) (*behavioral.CrossDaySummary, error) {
	summary := &behavioral.CrossDaySummary{}
	err := s.db.QueryRowContext(ctx,
		`SELECT animal, COALESCE(subtitle, '') FROM summary_runs WHERE id = ?`, runID,
	).Scan(&summary.Animal, &summary.Subtitle)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT day_index, metrics_json FROM summary_sessions WHERE run_id = ? ORDER BY day_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dayIndex int
		var metricsJSON string
		if err := rows.Scan(&dayIndex, &metricsJSON); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var m models.SessionMetrics
		if err := json.Unmarshal([]byte(metricsJSON), &m); err != nil {
			return nil, fmt.Errorf("decode day %d: %w", dayIndex, err)
		}
		summary.Entries = append(summary.Entries, behavioral.CrossDayEntry{DayIndex: dayIndex, SessionMetrics: m})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return summary, nil
}

// DeleteRun removes a run and its sessions
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM summary_sessions WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM summary_runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return tx.Commit()
}
