package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"gauntlet/internal/agent"
	"gauntlet/internal/artifact"
	"gauntlet/internal/corpus"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/inspect"
	"gauntlet/internal/judge"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Interactively browse ground truth or run results",
}

var inspectGTFlags struct {
	csv       string
	corpusDir string
	exportDir string
}

var inspectGTCmd = &cobra.Command{
	Use:   "gt",
	Short: "Browse and curate a ground-truth CSV",
	Long: `Opens a terminal browser over the ground-truth set. Filter by difficulty,
mark questions, view the source excerpt each question was written against,
and export the marked subset to a new CSV.`,
	RunE: runInspectGT,
}

var inspectRunFlags struct {
	runArtifact string
	reportsDir  string
}

var inspectRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Browse the results of an evaluation run",
	Long: `Opens a terminal browser over a run artifact, joined with its judge
verdicts when present. The issues filter surfaces answers worth a manual
look: failed calls, runaway or absent tool use, and extreme answer lengths.`,
	RunE: runInspectRun,
}

func init() {
	gf := inspectGTCmd.Flags()
	gf.StringVar(&inspectGTFlags.csv, "csv", "", "Ground-truth CSV to browse (required)")
	gf.StringVar(&inspectGTFlags.corpusDir, "corpus", "", "Corpus root for source excerpts (optional)")
	gf.StringVar(&inspectGTFlags.exportDir, "export-dir", ".", "Directory for exported CSVs")
	_ = inspectGTCmd.MarkFlagRequired("csv")

	rf := inspectRunCmd.Flags()
	rf.StringVar(&inspectRunFlags.runArtifact, "run", "", "Run artifact path (default: latest in --reports-dir)")
	rf.StringVar(&inspectRunFlags.reportsDir, "reports-dir", "reports", "Artifact directory")

	inspectCmd.AddCommand(inspectGTCmd)
	inspectCmd.AddCommand(inspectRunCmd)
}

func runInspectGT(_ *cobra.Command, _ []string) error {
	questions, err := groundtruth.LoadCSV(inspectGTFlags.csv)
	if err != nil {
		return err
	}
	var corp *corpus.Corpus
	if inspectGTFlags.corpusDir != "" {
		corp, err = corpus.Open(inspectGTFlags.corpusDir)
		if err != nil {
			return err
		}
	}
	model := inspect.NewGTModel(questions, corp, inspectGTFlags.exportDir)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func runInspectRun(_ *cobra.Command, _ []string) error {
	runPath := inspectRunFlags.runArtifact
	if runPath == "" {
		latest, err := artifact.LatestRun(inspectRunFlags.reportsDir)
		if err != nil {
			return err
		}
		if latest == "" {
			return fmt.Errorf("no run artifacts in %s", inspectRunFlags.reportsDir)
		}
		runPath = latest
	}

	env, results, err := agent.LoadResults(runPath)
	if err != nil {
		return err
	}

	// verdicts are optional: the run may not be judged yet
	var verdicts []judge.Record
	if judgePath, err := artifact.JudgePathFor(runPath); err == nil {
		if _, payload, err := judge.LoadPayload(judgePath); err == nil {
			verdicts = payload.Records
		}
	}

	model := inspect.NewRunModel(env.RunID, results, verdicts)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
