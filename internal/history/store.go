// Package history keeps an optional SQLite ledger of tool invocations so CI
// operators can see past commit, smoke test and cleanup outcomes.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Tool names recorded in the ledger
const (
	ToolCommitter = "result-committer"
	ToolSmoke     = "smoke-test"
	ToolCleanup   = "resultdir-cleanup"
)

// Run is one recorded tool invocation
type Run struct {
	ID         string
	Tool       string
	Subject    string // result dir, AI binary, or prefix depending on the tool
	Success    bool
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
	Checks     []CheckRecord
}

// CheckRecord is one smoke check outcome attached to a run
type CheckRecord struct {
	Name    string
	Passed  bool
	Message string
}

// Store provides SQLite-backed run persistence
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at dbPath. ":memory:" is accepted.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating history dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// in-memory databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRun returns a run with a fresh ID and start time
func NewRun(tool, subject string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Tool:      tool,
		Subject:   subject,
		StartedAt: time.Now(),
	}
}

// Finish stamps the run outcome
func (r *Run) Finish(success bool, detail string) {
	r.Success = success
	r.Detail = detail
	r.FinishedAt = time.Now()
}

// SaveRun inserts a run together with its checks
func (s *Store) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, tool, subject, success, detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Tool, run.Subject, run.Success, run.Detail, run.StartedAt.UTC(), run.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.ID, err)
	}

	for i, c := range run.Checks {
		_, err := tx.Exec(`
			INSERT INTO checks (run_id, position, name, passed, message)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, c.Name, c.Passed, c.Message)
		if err != nil {
			return fmt.Errorf("inserting check %q: %w", c.Name, err)
		}
	}

	return tx.Commit()
}

// ListOptions specifies filters for listing runs
type ListOptions struct {
	Tool  string
	Limit int
}

// ListRuns returns runs newest first, with their checks
func (s *Store) ListRuns(opts ListOptions) ([]*Run, error) {
	query := `SELECT id, tool, subject, success, detail, started_at, finished_at FROM runs WHERE 1=1`
	var args []interface{}

	if opts.Tool != "" {
		query += " AND tool = ?"
		args = append(args, opts.Tool)
	}

	query += " ORDER BY started_at DESC, id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, run := range runs {
		checks, err := s.listChecks(run.ID)
		if err != nil {
			return nil, err
		}
		run.Checks = checks
	}

	return runs, nil
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, tool, subject, success, detail, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	run.Checks, err = s.listChecks(id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) listChecks(runID string) ([]CheckRecord, error) {
	rows, err := s.db.Query(`SELECT name, passed, message FROM checks WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []CheckRecord
	for rows.Next() {
		var c CheckRecord
		var message sql.NullString
		if err := rows.Scan(&c.Name, &c.Passed, &message); err != nil {
			return nil, err
		}
		c.Message = message.String
		checks = append(checks, c)
	}
	return checks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var subject, detail sql.NullString

	err := row.Scan(&run.ID, &run.Tool, &subject, &run.Success, &detail, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return nil, err
	}
	run.Subject = subject.String
	run.Detail = detail.String
	return &run, nil
}
