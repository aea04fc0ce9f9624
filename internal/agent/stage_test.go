package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gauntlet/internal/cost"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/store"
)

func testQuestions(n int) []groundtruth.Question {
	qs := make([]groundtruth.Question, n)
	for i := range qs {
		qs[i] = groundtruth.Question{Index: i, Question: fmt.Sprintf("question %d", i)}
	}
	return qs
}

func testConfig(t *testing.T) RunConfig {
	t.Helper()
	return RunConfig{
		Model:       "gpt-4o-mini",
		Adapter:     "stub",
		Concurrency: 2,
		Pricing:     cost.DefaultPricing(),
		ReportsDir:  t.TempDir(),
		SourceCSV:   "gt.csv",
	}
}

func TestRunHappyPath(t *testing.T) {
	out, err := Run(context.Background(), testQuestions(3), &Stub{}, testConfig(t), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Results) != 3 || out.Failures != 0 {
		t.Fatalf("results=%d failures=%d", len(out.Results), out.Failures)
	}
	for i, r := range out.Results {
		if r.Question.Index != i {
			t.Errorf("result %d has question index %d: order not preserved", i, r.Question.Index)
		}
		if r.Failed || r.Answer == "" {
			t.Errorf("result %d unexpectedly failed: %+v", i, r)
		}
		if len(r.ToolCalls) == 0 {
			t.Errorf("result %d has no tool calls", i)
		}
		if r.Cost.Total <= 0 {
			t.Errorf("result %d has zero cost", i)
		}
	}
	if out.Cost.Total <= 0 {
		t.Error("stage cost not aggregated")
	}

	// Artifact round trip.
	env, results, err := LoadResults(out.ArtifactPath)
	if err != nil {
		t.Fatalf("LoadResults: %v", err)
	}
	if env.RunID != out.RunID {
		t.Errorf("artifact run_id = %q, want %q", env.RunID, out.RunID)
	}
	if env.Metadata.Model != "gpt-4o-mini" || env.Metadata.SourceCSV != "gt.csv" {
		t.Errorf("metadata = %+v", env.Metadata)
	}
	if len(results) != 3 {
		t.Errorf("artifact holds %d results, want 3", len(results))
	}
}

func TestRunRecordsPartialFailure(t *testing.T) {
	// Question #3 (index 2) raises; the other four succeed, the batch
	// completes, and the artifact is still written.
	boom := errors.New("network down")
	ag := Func(func(_ context.Context, q string) (*Response, error) {
		if q == "question 2" {
			return nil, boom
		}
		return (&Stub{}).Answer(context.Background(), q)
	})

	out, err := Run(context.Background(), testQuestions(5), ag, testConfig(t), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Results) != 5 {
		t.Fatalf("got %d results, want 5", len(out.Results))
	}
	if out.Failures != 1 {
		t.Errorf("failures = %d, want 1", out.Failures)
	}

	bad := out.Results[2]
	if !bad.Failed || bad.Answer != FailedAnswerMarker || bad.Error == "" {
		t.Errorf("failed record = %+v", bad)
	}
	for i, r := range out.Results {
		if i == 2 {
			continue
		}
		if r.Failed {
			t.Errorf("result %d unexpectedly failed", i)
		}
	}

	_, results, err := LoadResults(out.ArtifactPath)
	if err != nil {
		t.Fatalf("artifact not written or unreadable: %v", err)
	}
	if !results[2].Failed {
		t.Error("failure flag lost in artifact round trip")
	}
}

func TestRunAllFailedStillPersists(t *testing.T) {
	ag := Func(func(_ context.Context, _ string) (*Response, error) {
		return nil, errors.New("down")
	})
	out, err := Run(context.Background(), testQuestions(3), ag, testConfig(t), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Failures != 3 {
		t.Errorf("failures = %d, want 3", out.Failures)
	}
	if _, _, err := LoadResults(out.ArtifactPath); err != nil {
		t.Errorf("artifact should exist even with zero successes: %v", err)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.History = store.NewMemStore()
	ag := Func(func(_ context.Context, q string) (*Response, error) {
		if q == "question 1" {
			return nil, errors.New("down")
		}
		return (&Stub{}).Answer(context.Background(), q)
	})

	out, err := Run(context.Background(), testQuestions(3), ag, cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rec, err := cfg.History.GetRun(out.RunID)
	if err != nil || rec == nil {
		t.Fatalf("GetRun: rec=%v err=%v", rec, err)
	}
	if rec.State != "AGENT_DONE" {
		t.Errorf("state = %s, want AGENT_DONE", rec.State)
	}
	if rec.AgentModel != "gpt-4o-mini" || rec.SourceCSV != "gt.csv" {
		t.Errorf("invocation fields = %+v", rec)
	}
	if rec.Questions != 3 || rec.AgentFailures != 1 {
		t.Errorf("questions=%d failures=%d, want 3/1", rec.Questions, rec.AgentFailures)
	}
	if rec.RunArtifact != out.ArtifactPath || rec.AgentCost.Total != out.Cost.Total {
		t.Errorf("artifact/cost mismatch: %+v", rec)
	}
}

func TestRunEmptyInputIsError(t *testing.T) {
	if _, err := Run(context.Background(), nil, &Stub{}, testConfig(t), nil); err == nil {
		t.Error("expected error for empty question set")
	}
}

func TestRunTimeoutApplies(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timeout = 10 * time.Millisecond
	ag := Func(func(ctx context.Context, _ string) (*Response, error) {
		select {
		case <-time.After(time.Second):
			return &Response{Answer: "late"}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	out, err := Run(context.Background(), testQuestions(1), ag, cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.Results[0].Failed {
		t.Error("timed-out call should produce a failed record")
	}
}

func TestExtractToolCalls(t *testing.T) {
	msgs := []Message{
		{Kind: "user-prompt", Content: "q"},
		{Kind: "tool-call", ToolName: "search", Args: []byte(`{"query":"a"}`)},
		{Kind: "tool-return", ToolName: "search", Content: "hits"},
		{Kind: "tool-call", ToolName: "search", Args: []byte(`{"query":"b"}`)},
		{Kind: "text", Content: "answer"},
	}
	calls := extractToolCalls(msgs)
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].Name != "search" || string(calls[0].Args) != `{"query":"a"}` {
		t.Errorf("first call = %+v", calls[0])
	}
}
