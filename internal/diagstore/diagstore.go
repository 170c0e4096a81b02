// Package diagstore is an optional, off-by-default history of emitted
// diagnostics, backed by SQLite. It exists so a CI pipeline can track
// error-code stability across commits ("did E0001 start firing on files
// that used to compile clean?") without the compiler's own determinism
// ever depending on a database being present.
package diagstore

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/oxide-computer/x4c/internal/diagnostics"
)

// Store wraps a SQLite-backed diagnostics history. A nil *Store is valid
// and every method on it is a no-op, so callers can leave diagnostics
// history disabled by simply never opening one.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics history at %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize diagnostics history schema: %w", err)
	}
	return &Store{db: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	root_file  TEXT NOT NULL,
	recorded_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS diagnostics (
	run_id   TEXT NOT NULL REFERENCES runs(run_id),
	code     TEXT NOT NULL,
	phase    TEXT NOT NULL,
	severity TEXT NOT NULL,
	file     TEXT NOT NULL,
	line     INTEGER NOT NULL,
	column   INTEGER NOT NULL,
	message  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS diagnostics_code_idx ON diagnostics(code);
`

// Close closes the underlying database handle. Safe to call on a nil
// Store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun persists every diagnostic from one compilation run, tagged
// with runID and rootFile, timestamped by recordedAt (passed in by the
// caller since this package never calls time.Now() itself, keeping the
// store deterministic to drive from tests).
func (s *Store) RecordRun(runID, rootFile string, recordedAt time.Time, diags []*diagnostics.Diagnostic) error {
	if s == nil || s.db == nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin diagnostics history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs(run_id, root_file, recorded_at) VALUES (?, ?, ?)`,
		runID, rootFile, recordedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert run row: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO diagnostics(run_id, code, phase, severity, file, line, column, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare diagnostics insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.Exec(runID, string(d.Code), string(d.Phase), string(d.Severity),
			d.Span.File, d.Span.Line, d.Span.Column, d.Message); err != nil {
			return fmt.Errorf("insert diagnostic row: %w", err)
		}
	}

	return tx.Commit()
}

// CodeHistory is the count of times a single error code has fired across
// every recorded run, used to answer "is this code getting noisier?".
type CodeHistory struct {
	Code  string
	Count int
}

// CodeFrequency returns how often each error code has fired across all
// recorded runs, most frequent first.
func (s *Store) CodeFrequency() ([]CodeHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT code, COUNT(*) AS n FROM diagnostics GROUP BY code ORDER BY n DESC`)
	if err != nil {
		return nil, fmt.Errorf("query code frequency: %w", err)
	}
	defer rows.Close()

	var out []CodeHistory
	for rows.Next() {
		var ch CodeHistory
		if err := rows.Scan(&ch.Code, &ch.Count); err != nil {
			return nil, fmt.Errorf("scan code frequency row: %w", err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}
