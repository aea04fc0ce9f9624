// Package store persists the run history: one row per evaluation run with
// its artifact locations, aggregate score, and cost. The history command
// and the MCP server read from it; the pipeline writes to it.
package store

import "gauntlet/internal/cost"

// DefaultDBPath is the default relative path for the SQLite DB
// (per-workspace). Open() creates the parent dir (e.g. .gauntlet).
const DefaultDBPath = ".gauntlet/gauntlet.db"

// RunRecord is one evaluation run as recorded in history.
type RunRecord struct {
	ID            int64
	RunID         string // uuid assigned by the agent stage
	CreatedAt     string // RFC 3339 UTC
	AgentModel    string
	JudgeModel    string
	SourceCSV     string
	Questions     int
	AgentFailures int
	Judged        int
	Skipped       int
	OverallScore  float64 // mean criterion pass rate, 0 when unjudged
	AgentCost     cost.Info
	JudgeCost     cost.Info
	RunArtifact   string
	JudgeArtifact string
	State         string // final pipeline state, e.g. REPORTED or FAILED
	Error         string // failure reason when State is FAILED
}

// Store is the history persistence facade. CLI and pipeline use only this
// interface; implementation is SQLite or in-memory.
type Store interface {
	SaveRun(rec *RunRecord) (id int64, err error)
	GetRun(runID string) (*RunRecord, error)
	ListRuns(limit int) ([]*RunRecord, error)
	Close() error
}
