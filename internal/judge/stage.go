package judge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gauntlet/internal/agent"
	"gauntlet/internal/artifact"
	"gauntlet/internal/cost"
	"gauntlet/internal/logging"
	"gauntlet/internal/parallel"
	"gauntlet/internal/store"
)

// Judge evaluates one rubric prompt and returns the model's raw response
// plus token usage. The stage owns parsing; implementations just transport.
type Judge interface {
	Evaluate(ctx context.Context, prompt string) (string, cost.Usage, error)
}

// Func adapts a plain function to the Judge interface.
type Func func(ctx context.Context, prompt string) (string, cost.Usage, error)

func (f Func) Evaluate(ctx context.Context, prompt string) (string, cost.Usage, error) {
	return f(ctx, prompt)
}

// Config configures one judge-stage invocation.
type Config struct {
	Model       string
	Adapter     string
	BaseURL     string
	Concurrency int
	Timeout     time.Duration // per-call; 0 = client default
	Pricing     cost.Pricing

	// History is optional; when set, the stage upserts the history entry
	// the agent stage created for this run, or creates one from the run
	// artifact's metadata when judging standalone.
	History store.Store
}

// Output is what the judge stage hands to the orchestrator and reporters.
type Output struct {
	RunID        string
	ArtifactPath string
	Cost         cost.Info
	Records      []Record
	Metrics      MetricSet
}

// Run loads a run artifact, judges every result that actually has an
// answer, and persists the verdicts next to the run artifact. Records whose
// agent call failed are carried through as unjudged; a run with nothing
// judgeable is fatal.
func Run(ctx context.Context, runPath string, jd Judge, cfg Config, progress parallel.ProgressFunc) (*Output, error) {
	env, results, err := agent.LoadResults(runPath)
	if err != nil {
		return nil, fmt.Errorf("judge stage: %w", err)
	}

	judgeable := 0
	for _, r := range results {
		if !r.Failed {
			judgeable++
		}
	}
	if judgeable == 0 {
		return nil, fmt.Errorf("judge stage: no successful agent results in %s", runPath)
	}

	log := logging.New("judge")
	log.Info("judge stage starting",
		"run_id", env.RunID, "results", len(results), "judgeable", judgeable, "model", cfg.Model)

	records, errs := parallel.MapSettle(ctx, results, cfg.Concurrency, func(ctx context.Context, res agent.Result) (Record, error) {
		return judgeOne(ctx, jd, res, cfg)
	}, progress)

	var stageCost cost.Info
	for i, err := range errs {
		if err != nil {
			records[i] = Record{
				QuestionIndex: results[i].Question.Index,
				Question:      results[i].Question.Question,
				Checks:        AllUnknown(),
				JudgeFailed:   true,
				Error:         err.Error(),
			}
		}
		stageCost = stageCost.Add(records[i].Cost)
	}

	metrics := ComputeMetrics(records)
	for _, r := range records {
		if !r.Valid() {
			log.Warn("verdict unusable", "question_index", r.QuestionIndex,
				"parse_failed", r.ParseFailed, "agent_failed", r.AgentFailed, "judge_failed", r.JudgeFailed)
		}
	}

	path, err := artifact.JudgePathFor(runPath)
	if err != nil {
		return nil, fmt.Errorf("judge stage: %w", err)
	}
	meta := artifact.Metadata{
		Model:       cfg.Model,
		Concurrency: cfg.Concurrency,
		Adapter:     cfg.Adapter,
		BaseURL:     cfg.BaseURL,
		RunArtifact: runPath,
	}
	payload := Payload{Records: records, Metrics: metrics}
	if err := artifact.Write(path, artifact.KindJudge, env.RunID, meta, stageCost, payload); err != nil {
		return nil, fmt.Errorf("persist judge run: %w", err)
	}

	if cfg.History != nil {
		recordHistory(cfg, env, runPath, path, len(results), judgeable, metrics, stageCost, log)
	}

	log.Info("judge stage done",
		"run_id", env.RunID, "artifact", path, "judged", metrics.Judged, "skipped", metrics.Skipped, "cost_usd", stageCost.Total)
	return &Output{
		RunID:        env.RunID,
		ArtifactPath: path,
		Cost:         stageCost,
		Records:      records,
		Metrics:      metrics,
	}, nil
}

// recordHistory upserts the history entry for the judged run. A prior entry
// from the agent stage is updated in place; a standalone judge of an artifact
// with no entry gets one rebuilt from the run artifact's metadata. Write
// failures are logged, never fatal.
func recordHistory(cfg Config, env *artifact.Envelope, runPath, judgePath string, results, judgeable int, metrics MetricSet, stageCost cost.Info, log *slog.Logger) {
	rec, err := cfg.History.GetRun(env.RunID)
	if err != nil {
		log.Warn("load run history", "run_id", env.RunID, "error", err)
		rec = nil
	}
	if rec == nil {
		rec = &store.RunRecord{
			RunID:         env.RunID,
			AgentModel:    env.Metadata.Model,
			SourceCSV:     env.Metadata.SourceCSV,
			Questions:     results,
			AgentFailures: results - judgeable,
			AgentCost:     env.Cost,
			RunArtifact:   runPath,
		}
	}
	rec.JudgeModel = cfg.Model
	rec.Judged = metrics.Judged
	rec.Skipped = metrics.Skipped
	rec.OverallScore = metrics.Overall.Value
	rec.JudgeCost = stageCost
	rec.JudgeArtifact = judgePath
	rec.State = "JUDGE_DONE"
	if _, err := cfg.History.SaveRun(rec); err != nil {
		log.Warn("record run history", "run_id", env.RunID, "error", err)
	}
}

// Payload is the judge artifact payload: verdicts plus their aggregates.
type Payload struct {
	Records []Record  `json:"records"`
	Metrics MetricSet `json:"metrics"`
}

// judgeOne produces the verdict record for a single agent result. The
// error return is always nil; transport failures become judge-failed
// records and unparsable responses become parse-failed records.
func judgeOne(ctx context.Context, jd Judge, res agent.Result, cfg Config) (Record, error) {
	rec := Record{
		QuestionIndex: res.Question.Index,
		Question:      res.Question.Question,
		Checks:        AllUnknown(),
	}
	if res.Failed {
		rec.AgentFailed = true
		rec.Error = res.Error
		return rec, nil
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	raw, usage, err := jd.Evaluate(ctx, BuildPrompt(res))
	if err != nil {
		rec.JudgeFailed = true
		rec.Error = err.Error()
		return rec, nil
	}
	rec.Cost = cfg.Pricing.CostOf(cfg.Model, usage)

	checks, rationale, err := ParseVerdict(raw)
	if err != nil {
		rec.ParseFailed = true
		rec.Error = err.Error()
		return rec, nil
	}
	rec.Checks = checks
	rec.Rationale = rationale
	return rec, nil
}

// LoadPayload reads verdicts and metrics back out of a judge artifact.
func LoadPayload(path string) (*artifact.Envelope, *Payload, error) {
	env, err := artifact.Read(path, artifact.KindJudge)
	if err != nil {
		return nil, nil, err
	}
	payload, err := artifact.Decode[Payload](env)
	if err != nil {
		return nil, nil, err
	}
	return env, payload, nil
}
