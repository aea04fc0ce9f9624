package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gauntlet/internal/artifact"
	"gauntlet/internal/format"
	"gauntlet/internal/judge"
	"gauntlet/internal/store"
)

var judgeFlags struct {
	runArtifact string
	model       string
	adapter     string
	judgeURL    string
	concurrency int
	timeout     time.Duration
	reportsDir  string
	pricing     string
	dbPath      string
}

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Judge a run artifact against the answer rubric",
	Long: `Judge loads a run artifact, grades every answered question with the judge
model, and writes a judge artifact next to the run. Unparsable verdicts are
recorded and excluded from the aggregate scores.`,
	RunE: runJudge,
}

func init() {
	f := judgeCmd.Flags()
	f.StringVar(&judgeFlags.runArtifact, "run", "", "Run artifact path (default: latest in --reports-dir)")
	f.StringVar(&judgeFlags.model, "model", "gpt-4o", "Judge model name, used for cost accounting")
	f.StringVar(&judgeFlags.adapter, "adapter", "http", "Judge adapter (http, stub)")
	f.StringVar(&judgeFlags.judgeURL, "judge-url", "", "Judge service base URL (default: $GAUNTLET_JUDGE_URL)")
	f.IntVar(&judgeFlags.concurrency, "concurrency", 4, "Max in-flight judge calls")
	f.DurationVar(&judgeFlags.timeout, "timeout", 0, "Per-call timeout (0 = none)")
	f.StringVar(&judgeFlags.reportsDir, "reports-dir", "reports", "Artifact directory")
	f.StringVar(&judgeFlags.pricing, "pricing", "", "Pricing YAML overriding built-in model prices")
	f.StringVar(&judgeFlags.dbPath, "db", store.DefaultDBPath, "Run history SQLite database path")
}

// buildJudge resolves the adapter flag into a Judge implementation.
func buildJudge(adapter, baseURL, model string) (judge.Judge, error) {
	switch adapter {
	case "stub":
		return &judge.Stub{}, nil
	case "http":
		if baseURL == "" {
			return nil, fmt.Errorf("no judge URL: pass --judge-url or set GAUNTLET_JUDGE_URL")
		}
		return judge.NewClient(judge.ClientConfig{
			BaseURL: baseURL,
			APIKey:  envOr("GAUNTLET_API_KEY", ""),
			Model:   model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q (http, stub)", adapter)
	}
}

func runJudge(cmd *cobra.Command, _ []string) error {
	runPath := judgeFlags.runArtifact
	if runPath == "" {
		latest, err := artifact.LatestRun(judgeFlags.reportsDir)
		if err != nil {
			return err
		}
		if latest == "" {
			return fmt.Errorf("no run artifacts in %s", judgeFlags.reportsDir)
		}
		runPath = latest
	}

	pricing, err := loadPricing(judgeFlags.pricing)
	if err != nil {
		return err
	}
	baseURL := judgeFlags.judgeURL
	if baseURL == "" {
		baseURL = envOr("GAUNTLET_JUDGE_URL", "")
	}
	jd, err := buildJudge(judgeFlags.adapter, baseURL, judgeFlags.model)
	if err != nil {
		return err
	}
	history, err := store.Open(judgeFlags.dbPath)
	if err != nil {
		return err
	}
	defer history.Close()

	out, err := judge.Run(cmd.Context(), runPath, jd, judge.Config{
		Model:       judgeFlags.model,
		Adapter:     judgeFlags.adapter,
		BaseURL:     baseURL,
		Concurrency: judgeFlags.concurrency,
		Timeout:     judgeFlags.timeout,
		Pricing:     pricing,
		History:     history,
	}, stderrProgress("judge"))
	if err != nil {
		return err
	}

	fmt.Print(renderMetrics(out.Metrics))
	fmt.Printf("\njudge %s: %s -> %s\n", out.RunID, format.FmtUSD(out.Cost.Total), out.ArtifactPath)
	return nil
}

func renderMetrics(ms judge.MetricSet) string {
	t := format.NewTable(format.ASCII)
	t.Header("ID", "Criterion", "Rate", "Pass", "Detail")
	for _, m := range ms.Criteria {
		t.Row(m.ID, m.Name, format.FmtPercent(m.Value), format.BoolMark(m.Pass), m.Detail)
	}
	t.Footer("", ms.Overall.Name, format.FmtPercent(ms.Overall.Value),
		format.BoolMark(ms.Overall.Pass), ms.Overall.Detail)
	return t.String() + "\n"
}
