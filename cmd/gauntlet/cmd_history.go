package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gauntlet/internal/format"
	"gauntlet/internal/store"
)

var historyFlags struct {
	dbPath string
	limit  int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past evaluation runs",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.dbPath, "db", store.DefaultDBPath, "History database path")
	f.IntVar(&historyFlags.limit, "limit", 20, "Max runs to show (0 = all)")
}

func runHistory(_ *cobra.Command, _ []string) error {
	st, err := store.Open(historyFlags.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(historyFlags.limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	t := format.NewTable(format.ASCII)
	t.Header("When", "Run", "Agent", "Judge", "Qs", "Fail", "Score", "Cost", "State")
	for _, r := range runs {
		score := "-"
		if r.Judged > 0 {
			score = format.FmtPercent(r.OverallScore)
		}
		t.Row(
			r.CreatedAt,
			format.Truncate(r.RunID, 8),
			r.AgentModel,
			r.JudgeModel,
			r.Questions,
			r.AgentFailures,
			score,
			format.FmtUSD(r.AgentCost.Total+r.JudgeCost.Total),
			r.State,
		)
	}
	fmt.Println(t.String())
	return nil
}
