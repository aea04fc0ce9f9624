package pipeline

import (
	"context"
	"fmt"
	"io"

	"gauntlet/internal/agent"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/judge"
	"gauntlet/internal/logging"
	"gauntlet/internal/parallel"
	"gauntlet/internal/store"
)

// Config wires the stages of a full evaluation together.
type Config struct {
	CSVPath string
	Sample  groundtruth.SampleParams

	Agent    agent.Agent
	AgentCfg agent.RunConfig

	Judge    judge.Judge
	JudgeCfg judge.Config

	// History is optional; nil skips run-history recording.
	History store.Store

	// Out receives the rendered report; nil discards it.
	Out io.Writer

	// Progress receives per-stage completion callbacks; may be nil.
	Progress parallel.ProgressFunc
}

// Outcome summarizes a completed (or failed) evaluation.
type Outcome struct {
	State     State
	RunID     string
	AgentOut  *agent.RunOutput
	JudgeOut  *judge.Output
	Questions int
	Err       error
}

// Run executes the full evaluation pipeline. The run fails outright only
// when a stage itself fails: sampling errors, artifact write errors, or an
// agent stage where every single call failed. Individual question failures
// flow through as failed records and judged metrics over the rest.
func Run(ctx context.Context, cfg Config) (*Outcome, error) {
	m := NewMachine()
	log := logging.New("pipeline")
	out := &Outcome{State: m.State()}

	// Stages share the pipeline's store so the history entry progresses
	// AGENT_DONE -> JUDGE_DONE -> REPORTED through upserts.
	if cfg.AgentCfg.History == nil {
		cfg.AgentCfg.History = cfg.History
	}
	if cfg.JudgeCfg.History == nil {
		cfg.JudgeCfg.History = cfg.History
	}

	fail := func(err error) (*Outcome, error) {
		_ = m.Fail()
		out.State = m.State()
		out.Err = err
		log.Error("pipeline failed", "state", StateFailed, "error", err)
		recordHistory(cfg, out)
		return out, err
	}

	// SAMPLING
	if err := m.To(StateSampling); err != nil {
		return fail(err)
	}
	questions, err := groundtruth.LoadCSV(cfg.CSVPath)
	if err != nil {
		return fail(fmt.Errorf("load ground truth: %w", err))
	}
	sample, err := groundtruth.Sample(questions, cfg.Sample)
	if err != nil {
		return fail(fmt.Errorf("sample ground truth: %w", err))
	}
	out.Questions = len(sample)
	log.Info("sampled ground truth", "total", len(questions), "sampled", len(sample))

	// AGENT
	if err := m.To(StateAgentRunning); err != nil {
		return fail(err)
	}
	agentOut, err := agent.Run(ctx, sample, cfg.Agent, cfg.AgentCfg, cfg.Progress)
	if err != nil {
		return fail(fmt.Errorf("agent stage: %w", err))
	}
	out.AgentOut = agentOut
	out.RunID = agentOut.RunID
	if err := m.To(StateAgentDone); err != nil {
		return fail(err)
	}
	if agentOut.Failures == len(agentOut.Results) {
		return fail(fmt.Errorf("agent stage: all %d calls failed", agentOut.Failures))
	}

	// JUDGE
	if err := m.To(StateJudging); err != nil {
		return fail(err)
	}
	judgeOut, err := judge.Run(ctx, agentOut.ArtifactPath, cfg.Judge, cfg.JudgeCfg, cfg.Progress)
	if err != nil {
		return fail(err)
	}
	out.JudgeOut = judgeOut
	if err := m.To(StateJudgeDone); err != nil {
		return fail(err)
	}

	// REPORT
	if cfg.Out != nil {
		if _, err := io.WriteString(cfg.Out, RenderReport(cfg, out)); err != nil {
			return fail(fmt.Errorf("write report: %w", err))
		}
	}
	if err := m.To(StateReported); err != nil {
		return fail(err)
	}
	out.State = m.State()
	recordHistory(cfg, out)
	log.Info("pipeline done", "run_id", out.RunID, "state", out.State,
		"overall", judgeOut.Metrics.Overall.Value)
	return out, nil
}

// recordHistory saves the run to the history store when one is configured.
// History write failures are logged, never fatal: the artifacts on disk
// remain the source of truth.
func recordHistory(cfg Config, out *Outcome) {
	if cfg.History == nil || out.RunID == "" {
		return
	}
	rec := &store.RunRecord{
		RunID:      out.RunID,
		AgentModel: cfg.AgentCfg.Model,
		JudgeModel: cfg.JudgeCfg.Model,
		SourceCSV:  cfg.CSVPath,
		Questions:  out.Questions,
		State:      string(out.State),
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if a := out.AgentOut; a != nil {
		rec.AgentFailures = a.Failures
		rec.AgentCost = a.Cost
		rec.RunArtifact = a.ArtifactPath
	}
	if j := out.JudgeOut; j != nil {
		rec.Judged = j.Metrics.Judged
		rec.Skipped = j.Metrics.Skipped
		rec.OverallScore = j.Metrics.Overall.Value
		rec.JudgeCost = j.Cost
		rec.JudgeArtifact = j.ArtifactPath
	}
	if _, err := cfg.History.SaveRun(rec); err != nil {
		logging.New("pipeline").Warn("record run history", "run_id", out.RunID, "error", err)
	}
}
