// Package store persists crew run history in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/leadscout-ai/leadscout/pkg/errors"
	"github.com/leadscout-ai/leadscout/pkg/leads"

	_ "modernc.org/sqlite"
)

const runTable = "runs"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one persisted crew run.
type Run struct {
	ID               string       `json:"id"`
	Industry         string       `json:"industry"`
	Country          string       `json:"country"`
	Status           RunStatus    `json:"status"`
	Model            string       `json:"model"`
	Leads            []leads.Lead `json:"leads,omitempty"`
	Raw              string       `json:"raw,omitempty"`
	Report           string       `json:"report,omitempty"`
	PromptTokens     int          `json:"prompt_tokens"`
	CompletionTokens int          `json:"completion_tokens"`
	TotalTokens      int          `json:"total_tokens"`
	TotalCost        float64      `json:"total_cost"`
	Error            string       `json:"error,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	FinishedAt       time.Time    `json:"finished_at,omitempty"`
}

// Open opens (and creates if needed) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to open run database", err).
			WithContext("path", path)
	}
	return db, nil
}

// RunStore persists runs in a SQLite database.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a SQLite-backed run store and ensures the schema.
func NewRunStore(db *sql.DB) (*RunStore, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if err := ensureSchema(db); err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to ensure run schema", err)
	}
	return &RunStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + runTable + ` (
			id TEXT PRIMARY KEY,
			industry TEXT NOT NULL,
			country TEXT NOT NULL,
			status TEXT NOT NULL,
			model TEXT NOT NULL DEFAULT '',
			leads_json BLOB,
			raw TEXT NOT NULL DEFAULT '',
			report TEXT NOT NULL DEFAULT '',
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			total_cost REAL NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_` + runTable + `_created ON ` + runTable + `(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_` + runTable + `_status ON ` + runTable + `(status);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun inserts or replaces a run. Callers save once when the run starts
// and again when it finishes.
func (s *RunStore) SaveRun(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New(errors.CodeInvalidInput, "run id is required", nil)
	}

	var leadsJSON []byte
	if len(run.Leads) > 0 {
		var err error
		leadsJSON, err = json.Marshal(run.Leads)
		if err != nil {
			return errors.New(errors.CodeInternal, "failed to encode leads", err).
				WithContext("run_id", run.ID)
		}
	}

	var finishedAt int64
	if !run.FinishedAt.IsZero() {
		finishedAt = run.FinishedAt.UTC().UnixMilli()
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO `+runTable+` (
		id, industry, country, status, model, leads_json, raw, report,
		prompt_tokens, completion_tokens, total_tokens, total_cost, error,
		created_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Industry, run.Country, string(run.Status), run.Model,
		leadsJSON, run.Raw, run.Report,
		run.PromptTokens, run.CompletionTokens, run.TotalTokens, run.TotalCost,
		run.Error, createdAt.UnixMilli(), finishedAt,
	)
	if err != nil {
		return errors.New(errors.CodeInternal, "failed to save run", err).
			WithContext("run_id", run.ID)
	}
	return nil
}

// GetRun returns a run by id.
func (s *RunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id, industry, country, status, model, leads_json, raw, report,
		prompt_tokens, completion_tokens, total_tokens, total_cost, error,
		created_at, finished_at
	FROM `+runTable+` WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.CodeNotFound, "run not found", nil).
			WithContext("run_id", id)
	}
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to load run", err).
			WithContext("run_id", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0 means
// all runs.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT
		id, industry, country, status, model, leads_json, raw, report,
		prompt_tokens, completion_tokens, total_tokens, total_cost, error,
		created_at, finished_at
	FROM ` + runTable + ` ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.New(errors.CodeInternal, "failed to scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.CodeInternal, "failed to list runs", err)
	}
	return runs, nil
}

// DeleteRun removes a run by id.
func (s *RunStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+runTable+` WHERE id = ?`, id)
	if err != nil {
		return errors.New(errors.CodeInternal, "failed to delete run", err).
			WithContext("run_id", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.CodeNotFound, "run not found", nil).
			WithContext("run_id", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		status     string
		leadsJSON  []byte
		createdAt  int64
		finishedAt int64
	)
	err := row.Scan(
		&run.ID, &run.Industry, &run.Country, &status, &run.Model,
		&leadsJSON, &run.Raw, &run.Report,
		&run.PromptTokens, &run.CompletionTokens, &run.TotalTokens, &run.TotalCost,
		&run.Error, &createdAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if len(leadsJSON) > 0 {
		if err := json.Unmarshal(leadsJSON, &run.Leads); err != nil {
			return nil, err
		}
	}
	run.CreatedAt = time.UnixMilli(createdAt).UTC()
	if finishedAt > 0 {
		run.FinishedAt = time.UnixMilli(finishedAt).UTC()
	}
	return &run, nil
}
