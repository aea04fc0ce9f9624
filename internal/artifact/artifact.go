// Package artifact reads and writes the durable stage snapshots that hand
// results from the agent stage to the judge stage and the inspector. An
// artifact is a self-describing versioned JSON envelope, so any stage can
// be re-run from disk without the stage that produced it.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gauntlet/internal/cost"
)

// FormatVersion is the current envelope format. Readers reject anything else.
const FormatVersion = 1

// ErrBadArtifact marks an unreadable, corrupt, or incompatible artifact.
// Stages treat it as fatal.
var ErrBadArtifact = errors.New("bad artifact")

// Kind identifies which stage produced an artifact.
type Kind string

const (
	KindAgentRun Kind = "agent-run"
	KindJudge    Kind = "judge"
)

// Metadata describes how a stage was invoked, enough to reproduce it.
type Metadata struct {
	Model       string `json:"model"`
	SourceCSV   string `json:"source_csv,omitempty"`
	Concurrency int    `json:"concurrency"`
	Adapter     string `json:"adapter,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	RunArtifact string `json:"run_artifact,omitempty"` // judge only: originating run
}

// Envelope is the on-disk artifact shape. Payload stays raw until the
// reader knows which record type to decode into.
type Envelope struct {
	FormatVersion int             `json:"format_version"`
	Kind          Kind            `json:"kind"`
	RunID         string          `json:"run_id"`
	CreatedAt     time.Time       `json:"created_at"`
	Metadata      Metadata        `json:"metadata"`
	Cost          cost.Info       `json:"cost"`
	Payload       json.RawMessage `json:"payload"`
}

// Write marshals payload into an envelope and writes it to path, creating
// parent directories as needed.
func Write(path string, kind Kind, runID string, meta Metadata, stageCost cost.Info, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	env := Envelope{
		FormatVersion: FormatVersion,
		Kind:          kind,
		RunID:         runID,
		CreatedAt:     time.Now().UTC(),
		Metadata:      meta,
		Cost:          stageCost,
		Payload:       raw,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// Read loads an envelope and verifies it has the expected kind and a
// supported format version.
func Read(path string, want Kind) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrBadArtifact, path, err)
	}
	if env.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has format_version %d, want %d", ErrBadArtifact, path, env.FormatVersion, FormatVersion)
	}
	if env.Kind != want {
		return nil, fmt.Errorf("%w: %s is a %q artifact, want %q", ErrBadArtifact, path, env.Kind, want)
	}
	return &env, nil
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](env *Envelope) (*T, error) {
	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return nil, fmt.Errorf("%w: decode %s payload: %v", ErrBadArtifact, env.Kind, err)
	}
	return &out, nil
}

// Stamp is the timestamp component of artifact filenames. Second resolution
// keeps back-to-back stage invocations from overwriting each other's
// artifacts.
const Stamp = "2006-01-02-15-04-05"

const (
	runPrefix   = "eval-run-"
	judgePrefix = "eval-judge-"
)

// RunPath builds the agent-run artifact path for a given time.
func RunPath(dir string, t time.Time) string {
	return filepath.Join(dir, runPrefix+t.Format(Stamp)+".json")
}

// JudgePathFor derives the judge artifact path from its originating run
// artifact, preserving the naming convention that pairs them.
func JudgePathFor(runPath string) (string, error) {
	dir, base := filepath.Split(runPath)
	if !strings.HasPrefix(base, runPrefix) {
		return "", fmt.Errorf("%q does not follow the %s* naming convention", runPath, runPrefix)
	}
	return filepath.Join(dir, judgePrefix+strings.TrimPrefix(base, runPrefix)), nil
}

// LatestRun returns the newest eval-run artifact in dir, or "" when none
// exist. Names sort lexicographically by timestamp, so the last one wins.
func LatestRun(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("list artifacts: %w", err)
	}
	var latest string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, runPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if name > latest {
			latest = name
		}
	}
	if latest == "" {
		return "", nil
	}
	return filepath.Join(dir, latest), nil
}
