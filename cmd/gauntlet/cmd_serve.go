package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"gauntlet/internal/logging"
	mcpserver "gauntlet/internal/mcp"
	"gauntlet/internal/store"
)

var serveFlags struct {
	reportsDir string
	dbPath     string
	agentURL   string
	judgeURL   string
	pricing    string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the evaluation stages as
tools: sample_ground_truth, run_evaluation, judge_run, and get_history.

The server monitors for parent process death and self-terminates when the
MCP client disconnects, to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.reportsDir, "reports-dir", "reports", "Artifact output directory")
	f.StringVar(&serveFlags.dbPath, "db", store.DefaultDBPath, "History database path")
	f.StringVar(&serveFlags.agentURL, "agent-url", "", "Agent service base URL (default: $GAUNTLET_AGENT_URL)")
	f.StringVar(&serveFlags.judgeURL, "judge-url", "", "Judge service base URL (default: $GAUNTLET_JUDGE_URL)")
	f.StringVar(&serveFlags.pricing, "pricing", "", "Pricing YAML overriding built-in model prices")
}

func runServe(cmd *cobra.Command, _ []string) error {
	pricing, err := loadPricing(serveFlags.pricing)
	if err != nil {
		return err
	}

	agentURL := serveFlags.agentURL
	if agentURL == "" {
		agentURL = envOr("GAUNTLET_AGENT_URL", "")
	}
	judgeURL := serveFlags.judgeURL
	if judgeURL == "" {
		judgeURL = envOr("GAUNTLET_JUDGE_URL", "")
	}
	srv := mcpserver.NewServer(mcpserver.Options{
		ReportsDir: serveFlags.reportsDir,
		DBPath:     serveFlags.dbPath,
		AgentURL:   agentURL,
		JudgeURL:   judgeURL,
		APIKey:     envOr("GAUNTLET_API_KEY", ""),
		Pricing:    pricing,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting gauntlet MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
