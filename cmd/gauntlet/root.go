// gauntlet evaluates a documentation search agent against a ground-truth
// question set: sample questions, run the agent, judge the answers with an
// LLM rubric, and report aggregate scores and costs.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gauntlet/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "gauntlet",
	Short: "Ground-truth evaluation harness for documentation search agents",
	Long: "Gauntlet runs a search agent over a sampled ground-truth question set,\n" +
		"judges every answer against a seven-criterion rubric, and reports\npass rates and API costs per run.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// .env is optional; flags and real env vars win
		_ = godotenv.Load()
		return logging.Setup(rootFlags.logLevel, rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
