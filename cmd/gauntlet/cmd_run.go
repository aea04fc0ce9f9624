package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gauntlet/internal/agent"
	"gauntlet/internal/cost"
	"gauntlet/internal/format"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/store"
)

var runFlags struct {
	csv         string
	model       string
	adapter     string
	agentURL    string
	concurrency int
	timeout     time.Duration
	reportsDir  string
	pricing     string
	dbPath      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the search agent over a ground-truth CSV",
	Long: `Run calls the agent once per question with bounded concurrency and writes
a run artifact with the full transcripts, token usage, and costs. Failed
calls become failed records; the artifact is written either way.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.csv, "csv", "", "Ground-truth CSV to evaluate (required)")
	f.StringVar(&runFlags.model, "model", "gpt-4o-mini", "Agent model name, used for cost accounting")
	f.StringVar(&runFlags.adapter, "adapter", "http", "Agent adapter (http, stub)")
	f.StringVar(&runFlags.agentURL, "agent-url", "", "Agent service base URL (default: $GAUNTLET_AGENT_URL)")
	f.IntVar(&runFlags.concurrency, "concurrency", 4, "Max in-flight agent calls")
	f.DurationVar(&runFlags.timeout, "timeout", 0, "Per-call timeout (0 = none)")
	f.StringVar(&runFlags.reportsDir, "reports-dir", "reports", "Artifact output directory")
	f.StringVar(&runFlags.pricing, "pricing", "", "Pricing YAML overriding built-in model prices")
	f.StringVar(&runFlags.dbPath, "db", store.DefaultDBPath, "Run history SQLite database path")
	_ = runCmd.MarkFlagRequired("csv")
}

// buildAgent resolves the adapter flag into an Agent implementation.
func buildAgent(adapter, baseURL, model string) (agent.Agent, error) {
	switch adapter {
	case "stub":
		return &agent.Stub{}, nil
	case "http":
		if baseURL == "" {
			return nil, fmt.Errorf("no agent URL: pass --agent-url or set GAUNTLET_AGENT_URL")
		}
		return agent.NewClient(agent.ClientConfig{
			BaseURL: baseURL,
			APIKey:  envOr("GAUNTLET_API_KEY", ""),
			Model:   model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown adapter %q (http, stub)", adapter)
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	questions, err := groundtruth.LoadCSV(runFlags.csv)
	if err != nil {
		return err
	}
	pricing, err := loadPricing(runFlags.pricing)
	if err != nil {
		return err
	}
	baseURL := runFlags.agentURL
	if baseURL == "" {
		baseURL = envOr("GAUNTLET_AGENT_URL", "")
	}
	ag, err := buildAgent(runFlags.adapter, baseURL, runFlags.model)
	if err != nil {
		return err
	}
	history, err := store.Open(runFlags.dbPath)
	if err != nil {
		return err
	}
	defer history.Close()

	out, err := agent.Run(cmd.Context(), questions, ag, agent.RunConfig{
		Model:       runFlags.model,
		Adapter:     runFlags.adapter,
		BaseURL:     baseURL,
		Concurrency: runFlags.concurrency,
		Timeout:     runFlags.timeout,
		Pricing:     pricing,
		ReportsDir:  runFlags.reportsDir,
		SourceCSV:   runFlags.csv,
		History:     history,
	}, stderrProgress("agent"))
	if err != nil {
		return err
	}

	var usage cost.Usage
	for _, r := range out.Results {
		usage = usage.Add(r.Usage)
	}
	fmt.Printf("run %s: %d questions, %d failures, %s in / %s out, %s -> %s\n",
		out.RunID, len(out.Results), out.Failures,
		format.FmtTokens(usage.InputTokens), format.FmtTokens(usage.OutputTokens),
		format.FmtUSD(out.Cost.Total), out.ArtifactPath)
	return nil
}
