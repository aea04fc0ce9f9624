package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL UNIQUE,
	created_at     TEXT NOT NULL,
	agent_model    TEXT NOT NULL,
	judge_model    TEXT NOT NULL DEFAULT '',
	source_csv     TEXT NOT NULL DEFAULT '',
	questions      INTEGER NOT NULL DEFAULT 0,
	agent_failures INTEGER NOT NULL DEFAULT 0,
	judged         INTEGER NOT NULL DEFAULT 0,
	skipped        INTEGER NOT NULL DEFAULT 0,
	overall_score  REAL NOT NULL DEFAULT 0,
	agent_cost_in  REAL NOT NULL DEFAULT 0,
	agent_cost_out REAL NOT NULL DEFAULT 0,
	judge_cost_in  REAL NOT NULL DEFAULT 0,
	judge_cost_out REAL NOT NULL DEFAULT 0,
	run_artifact   TEXT NOT NULL DEFAULT '',
	judge_artifact TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_runs_created_at ON runs(created_at);
`

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// SqlStore implements Store with SQLite.
type SqlStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .gauntlet) if it does not exist.
func Open(path string) (*SqlStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &SqlStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		if _, err := s.db.Exec(schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		v = schemaVersion
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", v); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

// SaveRun inserts a run record, or replaces the row with the same run_id so
// a rerun of the judge stage updates the history entry in place.
func (s *SqlStore) SaveRun(rec *RunRecord) (int64, error) {
	if rec.RunID == "" {
		return 0, fmt.Errorf("save run: run_id is required")
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = nowUTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, created_at, agent_model, judge_model, source_csv,
			questions, agent_failures, judged, skipped, overall_score,
			agent_cost_in, agent_cost_out, judge_cost_in, judge_cost_out,
			run_artifact, judge_artifact, state, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			judge_model=excluded.judge_model, judged=excluded.judged,
			skipped=excluded.skipped, overall_score=excluded.overall_score,
			judge_cost_in=excluded.judge_cost_in, judge_cost_out=excluded.judge_cost_out,
			judge_artifact=excluded.judge_artifact, state=excluded.state, error=excluded.error`,
		rec.RunID, rec.CreatedAt, rec.AgentModel, rec.JudgeModel, rec.SourceCSV,
		rec.Questions, rec.AgentFailures, rec.Judged, rec.Skipped, rec.OverallScore,
		rec.AgentCost.Input, rec.AgentCost.Output, rec.JudgeCost.Input, rec.JudgeCost.Output,
		rec.RunArtifact, rec.JudgeArtifact, rec.State, rec.Error)
	if err != nil {
		return 0, fmt.Errorf("save run %s: %w", rec.RunID, err)
	}
	// LastInsertId is stale on the DO UPDATE path, so read the row's id back.
	var id int64
	if err := s.db.QueryRow("SELECT id FROM runs WHERE run_id = ?", rec.RunID).Scan(&id); err != nil {
		return 0, fmt.Errorf("save run %s: %w", rec.RunID, err)
	}
	rec.ID = id
	return id, nil
}

const runColumns = `id, run_id, created_at, agent_model, judge_model, source_csv,
	questions, agent_failures, judged, skipped, overall_score,
	agent_cost_in, agent_cost_out, judge_cost_in, judge_cost_out,
	run_artifact, judge_artifact, state, error`

// GetRun returns the history entry for a run ID, or nil when absent.
func (s *SqlStore) GetRun(runID string) (*RunRecord, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// ListRuns returns history entries newest first. limit <= 0 means all.
func (s *SqlStore) ListRuns(limit int) ([]*RunRecord, error) {
	q := "SELECT " + runColumns + " FROM runs ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var rec RunRecord
	err := row.Scan(
		&rec.ID, &rec.RunID, &rec.CreatedAt, &rec.AgentModel, &rec.JudgeModel, &rec.SourceCSV,
		&rec.Questions, &rec.AgentFailures, &rec.Judged, &rec.Skipped, &rec.OverallScore,
		&rec.AgentCost.Input, &rec.AgentCost.Output, &rec.JudgeCost.Input, &rec.JudgeCost.Output,
		&rec.RunArtifact, &rec.JudgeArtifact, &rec.State, &rec.Error)
	if err != nil {
		return nil, err
	}
	rec.AgentCost.Total = rec.AgentCost.Input + rec.AgentCost.Output
	rec.JudgeCost.Total = rec.JudgeCost.Input + rec.JudgeCost.Output
	return &rec, nil
}
