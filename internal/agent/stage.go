package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gauntlet/internal/artifact"
	"gauntlet/internal/cost"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/logging"
	"gauntlet/internal/parallel"
	"gauntlet/internal/store"
)

// RunConfig configures one agent-stage invocation. All state flows through
// this struct; the stage keeps no globals.
type RunConfig struct {
	Model       string
	Adapter     string // "http" or "stub", recorded in artifact metadata
	BaseURL     string
	Concurrency int
	Timeout     time.Duration // per-call; 0 = client default
	Pricing     cost.Pricing
	ReportsDir  string
	SourceCSV   string
	Now         func() time.Time // nil = time.Now, injectable for tests

	// History is optional; when set, the run is recorded after the
	// artifact is written so standalone invocations show up in history.
	History store.Store
}

// RunOutput is what the agent stage hands to the judge stage and the
// orchestrator.
type RunOutput struct {
	RunID        string
	ArtifactPath string
	Cost         cost.Info
	Results      []Result
	Failures     int
}

// Run invokes the agent for every question with bounded concurrency,
// records per-question failures as failed result records, and persists the
// complete batch - partial failures included - to a run artifact.
func Run(ctx context.Context, questions []groundtruth.Question, ag Agent, cfg RunConfig, progress parallel.ProgressFunc) (*RunOutput, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("agent run: no questions to evaluate")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := logging.New("agent-run")
	runID := uuid.NewString()
	log.Info("agent stage starting",
		"run_id", runID, "questions", len(questions), "model", cfg.Model, "concurrency", cfg.Concurrency)

	results, errs := parallel.MapSettle(ctx, questions, cfg.Concurrency, func(ctx context.Context, q groundtruth.Question) (Result, error) {
		return answerOne(ctx, ag, q, cfg)
	}, progress)

	failures := 0
	var stageCost cost.Info
	for i, err := range errs {
		if err != nil {
			// MapSettle already produced a zero Result here; fill in the
			// failed record so the batch stays complete.
			results[i] = Result{
				Question: questions[i],
				Answer:   FailedAnswerMarker,
				Failed:   true,
				Error:    err.Error(),
			}
		}
		if results[i].Failed {
			failures++
			log.Warn("agent call failed", "question_index", results[i].Question.Index, "error", results[i].Error)
		}
		stageCost = stageCost.Add(results[i].Cost)
	}

	path := artifact.RunPath(cfg.ReportsDir, now())
	meta := artifact.Metadata{
		Model:       cfg.Model,
		SourceCSV:   cfg.SourceCSV,
		Concurrency: cfg.Concurrency,
		Adapter:     cfg.Adapter,
		BaseURL:     cfg.BaseURL,
	}
	if err := artifact.Write(path, artifact.KindAgentRun, runID, meta, stageCost, results); err != nil {
		return nil, fmt.Errorf("persist agent run: %w", err)
	}

	if cfg.History != nil {
		rec := &store.RunRecord{
			RunID:         runID,
			AgentModel:    cfg.Model,
			SourceCSV:     cfg.SourceCSV,
			Questions:     len(results),
			AgentFailures: failures,
			AgentCost:     stageCost,
			RunArtifact:   path,
			State:         "AGENT_DONE",
		}
		// Never fatal: the artifact on disk is the source of truth.
		if _, err := cfg.History.SaveRun(rec); err != nil {
			log.Warn("record run history", "run_id", runID, "error", err)
		}
	}

	log.Info("agent stage done",
		"run_id", runID, "artifact", path, "failures", failures, "cost_usd", stageCost.Total)
	return &RunOutput{
		RunID:        runID,
		ArtifactPath: path,
		Cost:         stageCost,
		Results:      results,
		Failures:     failures,
	}, nil
}

// answerOne performs a single agent call and converts it to a result
// record. The error return is always nil: failures become failed records.
func answerOne(ctx context.Context, ag Agent, q groundtruth.Question, cfg RunConfig) (Result, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := ag.Answer(ctx, q.Question)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return Result{
			Question:  q,
			Answer:    FailedAnswerMarker,
			ElapsedMs: elapsed,
			Failed:    true,
			Error:     err.Error(),
		}, nil
	}

	return Result{
		Question:  q,
		Answer:    resp.Answer,
		ToolCalls: extractToolCalls(resp.Messages),
		Messages:  resp.Messages,
		Usage:     resp.Usage,
		Cost:      cfg.Pricing.CostOf(cfg.Model, resp.Usage),
		ElapsedMs: elapsed,
	}, nil
}

// LoadResults reads the result records back out of a run artifact.
func LoadResults(path string) (*artifact.Envelope, []Result, error) {
	env, err := artifact.Read(path, artifact.KindAgentRun)
	if err != nil {
		return nil, nil, err
	}
	results, err := artifact.Decode[[]Result](env)
	if err != nil {
		return nil, nil, err
	}
	return env, *results, nil
}
