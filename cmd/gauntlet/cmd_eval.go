package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"gauntlet/internal/agent"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/judge"
	"gauntlet/internal/pipeline"
	"gauntlet/internal/store"
)

var evalFlags struct {
	csv         string
	sampleSize  int
	seed        int64
	extra       string
	agentModel  string
	judgeModel  string
	adapter     string
	agentURL    string
	judgeURL    string
	concurrency int
	timeout     time.Duration
	reportsDir  string
	pricing     string
	dbPath      string
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the full evaluation: sample, agent, judge, report",
	Long: `Eval drives the whole pipeline in one invocation: sample the ground truth,
run the agent, judge the answers, print the report, and record the run in
the history database. The run fails only when a whole stage fails;
individual question failures are carried through as failed records.`,
	RunE: runEval,
}

func init() {
	f := evalCmd.Flags()
	f.StringVar(&evalFlags.csv, "csv", "", "Ground-truth CSV (required)")
	f.IntVar(&evalFlags.sampleSize, "sample-size", 0, "Sample size (0 = whole set)")
	f.Int64Var(&evalFlags.seed, "random-state", 42, "Random seed for sampling")
	f.StringVar(&evalFlags.extra, "extra-indices", "", "Comma-separated row indices that must appear in the sample")
	f.StringVar(&evalFlags.agentModel, "agent-model", "gpt-4o-mini", "Agent model name")
	f.StringVar(&evalFlags.judgeModel, "judge-model", "gpt-4o", "Judge model name")
	f.StringVar(&evalFlags.adapter, "adapter", "http", "Adapter for both stages (http, stub)")
	f.StringVar(&evalFlags.agentURL, "agent-url", "", "Agent service base URL (default: $GAUNTLET_AGENT_URL)")
	f.StringVar(&evalFlags.judgeURL, "judge-url", "", "Judge service base URL (default: $GAUNTLET_JUDGE_URL)")
	f.IntVar(&evalFlags.concurrency, "concurrency", 4, "Max in-flight calls per stage")
	f.DurationVar(&evalFlags.timeout, "timeout", 0, "Per-call timeout (0 = none)")
	f.StringVar(&evalFlags.reportsDir, "reports-dir", "reports", "Artifact output directory")
	f.StringVar(&evalFlags.pricing, "pricing", "", "Pricing YAML overriding built-in model prices")
	f.StringVar(&evalFlags.dbPath, "db", store.DefaultDBPath, "History database path")
	_ = evalCmd.MarkFlagRequired("csv")
}

func runEval(cmd *cobra.Command, _ []string) error {
	extra, err := parseIndices(evalFlags.extra)
	if err != nil {
		return err
	}
	pricing, err := loadPricing(evalFlags.pricing)
	if err != nil {
		return err
	}

	agentURL := evalFlags.agentURL
	if agentURL == "" {
		agentURL = envOr("GAUNTLET_AGENT_URL", "")
	}
	judgeURL := evalFlags.judgeURL
	if judgeURL == "" {
		judgeURL = envOr("GAUNTLET_JUDGE_URL", "")
	}
	ag, err := buildAgent(evalFlags.adapter, agentURL, evalFlags.agentModel)
	if err != nil {
		return err
	}
	jd, err := buildJudge(evalFlags.adapter, judgeURL, evalFlags.judgeModel)
	if err != nil {
		return err
	}

	history, err := store.Open(evalFlags.dbPath)
	if err != nil {
		return err
	}
	defer history.Close()

	_, err = pipeline.Run(cmd.Context(), pipeline.Config{
		CSVPath: evalFlags.csv,
		Sample: groundtruth.SampleParams{
			Size:         evalFlags.sampleSize,
			Seed:         evalFlags.seed,
			ExtraIndices: extra,
		},
		Agent: ag,
		AgentCfg: agent.RunConfig{
			Model:       evalFlags.agentModel,
			Adapter:     evalFlags.adapter,
			BaseURL:     agentURL,
			Concurrency: evalFlags.concurrency,
			Timeout:     evalFlags.timeout,
			Pricing:     pricing,
			ReportsDir:  evalFlags.reportsDir,
			SourceCSV:   evalFlags.csv,
		},
		Judge: jd,
		JudgeCfg: judge.Config{
			Model:       evalFlags.judgeModel,
			Adapter:     evalFlags.adapter,
			BaseURL:     judgeURL,
			Concurrency: evalFlags.concurrency,
			Timeout:     evalFlags.timeout,
			Pricing:     pricing,
		},
		History:  history,
		Out:      os.Stdout,
		Progress: stderrProgress("eval"),
	})
	return err
}
