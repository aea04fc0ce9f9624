package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"gauntlet/internal/groundtruth"
	"gauntlet/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	return NewServer(Options{
		ReportsDir: filepath.Join(dir, "reports"),
		DBPath:     filepath.Join(dir, ".gauntlet", "gauntlet.db"),
	})
}

func writeGroundTruth(t *testing.T, n int) string {
	t.Helper()
	questions := make([]groundtruth.Question, n)
	for i := range questions {
		questions[i] = groundtruth.Question{
			Question:      "question number " + string(rune('a'+i)),
			SummaryAnswer: "answer",
			Difficulty:    "easy",
			Intent:        "lookup",
		}
	}
	path := filepath.Join(t.TempDir(), "gt.csv")
	if err := groundtruth.SaveCSV(path, questions); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHandleSample(t *testing.T) {
	s := testServer(t)
	csv := writeGroundTruth(t, 10)
	outPath := filepath.Join(t.TempDir(), "sample.csv")

	_, out, err := s.handleSample(context.Background(), nil, sampleInput{
		CSV: csv, Size: 4, Seed: 42, ExtraIndices: []int{7}, Output: outPath,
	})
	if err != nil {
		t.Fatalf("handleSample: %v", err)
	}
	if out.Sampled != 4 || out.SetSize != 10 || out.Path != outPath {
		t.Errorf("output = %+v", out)
	}

	sample, err := groundtruth.LoadCSV(outPath)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if len(sample) != 4 {
		t.Errorf("sample size = %d, want 4", len(sample))
	}
}

func TestHandleSampleBadParams(t *testing.T) {
	s := testServer(t)
	csv := writeGroundTruth(t, 3)
	if _, _, err := s.handleSample(context.Background(), nil, sampleInput{CSV: csv, Size: 10}); err == nil {
		t.Error("expected error when size exceeds the set")
	}
}

func TestHandleRunAndJudgeStub(t *testing.T) {
	s := testServer(t)
	csv := writeGroundTruth(t, 3)

	_, runOut, err := s.handleRun(context.Background(), nil, runInput{
		CSV: csv, Model: "stub-model", Stub: true,
	})
	if err != nil {
		t.Fatalf("handleRun: %v", err)
	}
	if runOut.Questions != 3 || runOut.Failures != 0 || runOut.RunID == "" {
		t.Errorf("run output = %+v", runOut)
	}

	// judge with no explicit artifact picks the latest run
	_, judgeOut, err := s.handleJudge(context.Background(), nil, judgeInput{
		Model: "stub-judge", Stub: true,
	})
	if err != nil {
		t.Fatalf("handleJudge: %v", err)
	}
	if judgeOut.RunID != runOut.RunID {
		t.Errorf("judge run ID = %s, want %s", judgeOut.RunID, runOut.RunID)
	}
	if judgeOut.Metrics.Judged != 3 {
		t.Errorf("judged = %d, want 3", judgeOut.Metrics.Judged)
	}

	// both stages wrote to the same history entry
	_, histOut, err := s.handleHistory(context.Background(), nil, historyInput{})
	if err != nil {
		t.Fatalf("handleHistory: %v", err)
	}
	if len(histOut.Runs) != 1 || histOut.Runs[0].RunID != runOut.RunID {
		t.Fatalf("history = %+v", histOut.Runs)
	}
	if histOut.Runs[0].State != "JUDGE_DONE" || histOut.Runs[0].Judged != 3 {
		t.Errorf("history entry = %+v", histOut.Runs[0])
	}
}

func TestHandleRunRequiresAgentURL(t *testing.T) {
	s := testServer(t)
	csv := writeGroundTruth(t, 1)
	if _, _, err := s.handleRun(context.Background(), nil, runInput{CSV: csv, Model: "m"}); err == nil {
		t.Error("expected error without agent_url")
	}
}

func TestHandleJudgeNoRuns(t *testing.T) {
	s := testServer(t)
	if _, _, err := s.handleJudge(context.Background(), nil, judgeInput{Model: "m", Stub: true}); err == nil {
		t.Error("expected error when no run artifacts exist")
	}
}

func TestHandleHistory(t *testing.T) {
	s := testServer(t)

	st, err := store.Open(s.opts.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.SaveRun(&store.RunRecord{RunID: "run-1", State: "REPORTED"}); err != nil {
		t.Fatal(err)
	}
	st.Close()

	_, out, err := s.handleHistory(context.Background(), nil, historyInput{})
	if err != nil {
		t.Fatalf("handleHistory: %v", err)
	}
	if len(out.Runs) != 1 || out.Runs[0].RunID != "run-1" {
		t.Errorf("history = %+v", out.Runs)
	}
}
