package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists render history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS render_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			end_date    INTEGER NOT NULL,
			trigger     TEXT,
			duration_ms INTEGER,
			aborted     INTEGER,
			symbols_ok  INTEGER,
			symbols_failed INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON render_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS symbol_renders (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id   INTEGER NOT NULL REFERENCES render_runs(id),
			position INTEGER NOT NULL,
			symbol   TEXT NOT NULL,
			points   INTEGER,
			status   TEXT,
			error    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_run ON symbol_renders(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run and its per-symbol outcomes in one transaction and sets run.ID.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	failed := run.Failed()
	res, err := tx.Exec(`INSERT INTO render_runs
		(timestamp, end_date, trigger, duration_ms, aborted, symbols_ok, symbols_failed)
		VALUES (?,?,?,?,?,?,?)`,
		run.StartedAt.Unix(), run.EndDate.Unix(), run.Trigger, run.Duration.Milliseconds(),
		run.Aborted, len(run.Symbols)-failed, failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	for i, s := range run.Symbols {
		if _, err := tx.Exec(`INSERT INTO symbol_renders
			(run_id, position, symbol, points, status, error)
			VALUES (?,?,?,?,?,?)`,
			id, i, s.Symbol, s.Points, s.Status, s.Error,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", s.Symbol, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	run.ID = id
	return nil
}

// RecentRuns returns up to limit runs, newest first, with their symbol outcomes in display order.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, timestamp, end_date, trigger, duration_ms, aborted
		FROM render_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var runs []RunRecord
	for rows.Next() {
		var (
			run         RunRecord
			ts, endDate int64
			durationMs  int64
		)
		if err := rows.Scan(&run.ID, &ts, &endDate, &run.Trigger, &durationMs, &run.Aborted); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(ts, 0)
		run.EndDate = time.Unix(endDate, 0)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		symbols, err := r.symbolsFor(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Symbols = symbols
	}
	return runs, nil
}

func (r *SQLiteRecorder) symbolsFor(runID int64) ([]SymbolOutcome, error) {
	rows, err := r.db.Query(`SELECT symbol, points, status, error
		FROM symbol_renders WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolOutcome
	for rows.Next() {
		var s SymbolOutcome
		if err := rows.Scan(&s.Symbol, &s.Points, &s.Status, &s.Error); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
