package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gauntlet/internal/groundtruth"
	"gauntlet/internal/logging"
)

var sampleFlags struct {
	csv    string
	size   int
	seed   int64
	extra  string
	output string
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a deterministic sample from a ground-truth CSV",
	Long: `Sample draws a seeded random subset from a ground-truth CSV and writes it
to a new CSV. Indices passed via --extra-indices are always included and
count toward the sample size, so reruns with the same seed are identical.`,
	RunE: runSample,
}

func init() {
	f := sampleCmd.Flags()
	f.StringVar(&sampleFlags.csv, "csv", "", "Ground-truth CSV to sample from (required)")
	f.IntVar(&sampleFlags.size, "sample-size", 0, "Sample size (0 = whole set)")
	f.Int64Var(&sampleFlags.seed, "random-state", 42, "Random seed")
	f.StringVar(&sampleFlags.extra, "extra-indices", "", "Comma-separated row indices that must appear in the sample")
	f.StringVar(&sampleFlags.output, "output", "", "Output CSV path (default: timestamped name)")
	_ = sampleCmd.MarkFlagRequired("csv")
}

func runSample(_ *cobra.Command, _ []string) error {
	extra, err := parseIndices(sampleFlags.extra)
	if err != nil {
		return err
	}
	set, err := groundtruth.LoadCSV(sampleFlags.csv)
	if err != nil {
		return err
	}
	sample, err := groundtruth.Sample(set, groundtruth.SampleParams{
		Size:         sampleFlags.size,
		Seed:         sampleFlags.seed,
		ExtraIndices: extra,
	})
	if err != nil {
		return err
	}

	out := sampleFlags.output
	if out == "" {
		out = groundtruth.DefaultSampleName(len(sample), time.Now())
	}
	if err := groundtruth.SaveCSV(out, sample); err != nil {
		return err
	}
	logging.New("sample").Info("sample written",
		"source", sampleFlags.csv, "set", len(set), "sampled", len(sample), "seed", sampleFlags.seed)
	fmt.Printf("sampled %d of %d questions -> %s\n", len(sample), len(set), out)
	return nil
}
