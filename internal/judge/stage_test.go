package judge

import (
	"context"
	"testing"
	"time"

	"gauntlet/internal/agent"
	"gauntlet/internal/artifact"
	"gauntlet/internal/cost"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/store"
)

func writeRunArtifact(t *testing.T, results []agent.Result) string {
	t.Helper()
	path := artifact.RunPath(t.TempDir(), time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC))
	err := artifact.Write(path, artifact.KindAgentRun, "run-test", artifact.Metadata{Model: "stub"}, cost.Info{}, results)
	if err != nil {
		t.Fatalf("write run artifact: %v", err)
	}
	return path
}

func okResult(idx int, question string) agent.Result {
	return agent.Result{
		Question: groundtruth.Question{Index: idx, Question: question, SummaryAnswer: "expected"},
		Answer:   "The setting lives in config.yaml.\n\n## References\n- docs/config.md",
		ToolCalls: []agent.ToolCall{
			{Name: "search", Args: []byte(`{"query":"config"}`)},
		},
		Usage: cost.Usage{InputTokens: 100, OutputTokens: 50, Requests: 1},
	}
}

func stageConfig() Config {
	return Config{Model: "stub", Adapter: "stub", Concurrency: 2, Pricing: cost.DefaultPricing()}
}

func TestRunOneUnparsableVerdict(t *testing.T) {
	results := []agent.Result{
		okResult(0, "how do I rotate logs"),
		okResult(1, "where is the retry budget set"),
		okResult(2, "garble this one"),
		okResult(3, "what does the sampler seed control"),
		okResult(4, "how are costs computed"),
	}
	path := writeRunArtifact(t, results)

	out, err := Run(context.Background(), path, &Stub{GarbleContaining: "garble this one"}, stageConfig(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Records) != 5 {
		t.Fatalf("records = %d, want 5", len(out.Records))
	}
	if out.Metrics.Judged != 4 || out.Metrics.Skipped != 1 {
		t.Errorf("judged=%d skipped=%d, want 4/1", out.Metrics.Judged, out.Metrics.Skipped)
	}

	bad := out.Records[2]
	if !bad.ParseFailed {
		t.Error("record 2 should be parse-failed")
	}
	if bad.Error == "" {
		t.Error("parse-failed record should carry the parse error")
	}
	for _, v := range bad.Checks.ByName() {
		if v != Unknown {
			t.Errorf("parse-failed verdict = %q, want unknown", v)
		}
	}
	// the judge call still happened, so its tokens are still billed
	if bad.Cost.Total <= 0 {
		t.Error("parse-failed record should still carry judge cost")
	}
}

func TestRunSkipsAgentFailedRecords(t *testing.T) {
	failed := agent.Result{
		Question: groundtruth.Question{Index: 1, Question: "broken"},
		Answer:   agent.FailedAnswerMarker,
		Failed:   true,
		Error:    "connection refused",
	}
	path := writeRunArtifact(t, []agent.Result{okResult(0, "ok question"), failed})

	out, err := Run(context.Background(), path, &Stub{}, stageConfig(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := out.Records[1]
	if !rec.AgentFailed || rec.Error != "connection refused" {
		t.Errorf("agent-failed record not carried through: %+v", rec)
	}
	if out.Metrics.Judged != 1 || out.Metrics.Skipped != 1 {
		t.Errorf("judged=%d skipped=%d, want 1/1", out.Metrics.Judged, out.Metrics.Skipped)
	}
}

func TestRunNothingJudgeableIsFatal(t *testing.T) {
	failed := agent.Result{
		Question: groundtruth.Question{Index: 0, Question: "broken"},
		Failed:   true,
		Error:    "timeout",
	}
	path := writeRunArtifact(t, []agent.Result{failed})

	if _, err := Run(context.Background(), path, &Stub{}, stageConfig(), nil); err == nil {
		t.Fatal("expected error when no result is judgeable")
	}
}

func TestRunJudgeCallFailureBecomesRecord(t *testing.T) {
	path := writeRunArtifact(t, []agent.Result{
		okResult(0, "fine"),
		okResult(1, "explode now"),
	})

	out, err := Run(context.Background(), path, &Stub{FailContaining: "explode now"}, stageConfig(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	rec := out.Records[1]
	if !rec.JudgeFailed {
		t.Errorf("expected judge-failed record, got %+v", rec)
	}
	if out.Metrics.Judged != 1 {
		t.Errorf("judged = %d, want 1", out.Metrics.Judged)
	}
}

func TestRunPersistsJudgeArtifact(t *testing.T) {
	runPath := writeRunArtifact(t, []agent.Result{okResult(0, "persisted")})

	out, err := Run(context.Background(), runPath, &Stub{}, stageConfig(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	wantPath, _ := artifact.JudgePathFor(runPath)
	if out.ArtifactPath != wantPath {
		t.Errorf("artifact path = %s, want %s", out.ArtifactPath, wantPath)
	}

	env, payload, err := LoadPayload(out.ArtifactPath)
	if err != nil {
		t.Fatalf("LoadPayload: %v", err)
	}
	if env.RunID != "run-test" {
		t.Errorf("run ID = %s, want run-test", env.RunID)
	}
	if env.Metadata.RunArtifact != runPath {
		t.Errorf("metadata run_artifact = %s, want %s", env.Metadata.RunArtifact, runPath)
	}
	if len(payload.Records) != 1 || payload.Metrics.Judged != 1 {
		t.Errorf("payload: %d records, %d judged", len(payload.Records), payload.Metrics.Judged)
	}
	if env.Cost.Total != out.Cost.Total {
		t.Errorf("envelope cost %v != stage cost %v", env.Cost.Total, out.Cost.Total)
	}
}

func TestRunUpdatesHistoryEntryFromAgentStage(t *testing.T) {
	history := store.NewMemStore()
	questions := []groundtruth.Question{
		{Index: 0, Question: "where are logs rotated", SummaryAnswer: "expected"},
		{Index: 1, Question: "where is the retry budget set", SummaryAnswer: "expected"},
	}
	agentOut, err := agent.Run(context.Background(), questions, &agent.Stub{}, agent.RunConfig{
		Model:       "gpt-4o-mini",
		Adapter:     "stub",
		Concurrency: 2,
		Pricing:     cost.DefaultPricing(),
		ReportsDir:  t.TempDir(),
		SourceCSV:   "gt.csv",
		History:     history,
	}, nil)
	if err != nil {
		t.Fatalf("agent.Run: %v", err)
	}

	before, err := history.GetRun(agentOut.RunID)
	if err != nil || before == nil {
		t.Fatalf("GetRun after agent stage: rec=%v err=%v", before, err)
	}
	if before.State != "AGENT_DONE" {
		t.Errorf("state after agent stage = %s, want AGENT_DONE", before.State)
	}

	cfg := stageConfig()
	cfg.History = history
	judgeOut, err := Run(context.Background(), agentOut.ArtifactPath, &Stub{}, cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	after, err := history.GetRun(agentOut.RunID)
	if err != nil || after == nil {
		t.Fatalf("GetRun after judge stage: rec=%v err=%v", after, err)
	}
	if after.ID != before.ID {
		t.Errorf("judge stage created row %d, want update of row %d", after.ID, before.ID)
	}
	if after.AgentModel != "gpt-4o-mini" || after.SourceCSV != "gt.csv" || after.RunArtifact != agentOut.ArtifactPath {
		t.Errorf("agent-side fields lost on update: %+v", after)
	}
	if after.State != "JUDGE_DONE" || after.JudgeModel != cfg.Model {
		t.Errorf("judge-side fields not applied: state=%s judge_model=%s", after.State, after.JudgeModel)
	}
	if after.Judged != judgeOut.Metrics.Judged || after.JudgeArtifact != judgeOut.ArtifactPath {
		t.Errorf("judge outcome not recorded: %+v", after)
	}
}

func TestRunRecordsHistoryWithoutPriorEntry(t *testing.T) {
	path := writeRunArtifact(t, []agent.Result{okResult(0, "standalone")})
	history := store.NewMemStore()
	cfg := stageConfig()
	cfg.History = history

	out, err := Run(context.Background(), path, &Stub{}, cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec, err := history.GetRun("run-test")
	if err != nil || rec == nil {
		t.Fatalf("GetRun: rec=%v err=%v", rec, err)
	}
	if rec.AgentModel != "stub" || rec.Questions != 1 || rec.RunArtifact != path {
		t.Errorf("record not rebuilt from run artifact metadata: %+v", rec)
	}
	if rec.State != "JUDGE_DONE" || rec.JudgeArtifact != out.ArtifactPath {
		t.Errorf("judge outcome not recorded: %+v", rec)
	}
}

func TestRunProgressCoversAllRecords(t *testing.T) {
	path := writeRunArtifact(t, []agent.Result{okResult(0, "a"), okResult(1, "b"), okResult(2, "c")})

	var calls int
	var last int
	done := func(d, total int) {
		calls++
		last = d
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	}
	if _, err := Run(context.Background(), path, &Stub{}, stageConfig(), done); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 || last != 3 {
		t.Errorf("progress calls=%d last=%d, want 3/3", calls, last)
	}
}
