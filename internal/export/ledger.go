package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger persists per-run tallies so completed, cancelled, and failed runs
// stay inspectable after the process exits.
type Ledger struct {
	db   *sql.DB
	path string
}

// RunRecord is one export run's outcome.
type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      string
	LengthFilter *int
	Force        bool
	Processed    int64
	Regenerated  int64
	Skipped      int64
	Failed       int64
	Total        int64
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS export_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    outcome TEXT NOT NULL,
    length_filter INTEGER,
    force_regenerate INTEGER NOT NULL DEFAULT 0,
    processed INTEGER NOT NULL DEFAULT 0,
    regenerated INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    total INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_export_runs_started_at ON export_runs (started_at DESC);
`

// OpenLedger initializes or connects to the run ledger under dir.
func OpenLedger(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	dbPath := filepath.Join(dir, "export_runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	return &Ledger{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Path returns the on-disk location of the ledger database.
func (l *Ledger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Record inserts one run's final tally.
func (l *Ledger) Record(ctx context.Context, record RunRecord) error {
	if l == nil {
		return nil
	}
	if record.RunID == "" {
		return errors.New("ledger: run id is empty")
	}

	var lengthFilter sql.NullInt64
	if record.LengthFilter != nil {
		lengthFilter = sql.NullInt64{Int64: int64(*record.LengthFilter), Valid: true}
	}

	_, err := l.db.ExecContext(
		ctx,
		`INSERT INTO export_runs (
            run_id, started_at, finished_at, outcome, length_filter,
            force_regenerate, processed, regenerated, skipped, failed, total
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
		record.Outcome,
		lengthFilter,
		boolToInt(record.Force),
		record.Processed,
		record.Regenerated,
		record.Skipped,
		record.Failed,
		record.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. A limit of 0 returns all.
func (l *Ledger) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if l == nil {
		return nil, nil
	}

	query := `SELECT run_id, started_at, finished_at, outcome, length_filter,
        force_regenerate, processed, regenerated, skipped, failed, total
        FROM export_runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list run records: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record       RunRecord
			startedAt    string
			finishedAt   string
			lengthFilter sql.NullInt64
			force        int
		)
		if err := rows.Scan(
			&record.RunID, &startedAt, &finishedAt, &record.Outcome, &lengthFilter,
			&force, &record.Processed, &record.Regenerated, &record.Skipped,
			&record.Failed, &record.Total,
		); err != nil {
			return nil, fmt.Errorf("scan run record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			record.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, finishedAt); err == nil {
			record.FinishedAt = ts
		}
		if lengthFilter.Valid {
			value := int(lengthFilter.Int64)
			record.LengthFilter = &value
		}
		record.Force = force != 0
		records = append(records, record)
	}
	return records, rows.Err()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
