package pipeline

import (
	"fmt"
	"strings"
	"time"

	"gauntlet/internal/cost"
	"gauntlet/internal/format"
	"gauntlet/internal/judge"
)

// RenderReport produces the markdown evaluation report: run summary,
// criterion scores, worst answers, and the cost bill.
func RenderReport(cfg Config, out *Outcome) string {
	var b strings.Builder

	b.WriteString("\n# Evaluation report\n\n")
	b.WriteString(fmt.Sprintf("> run `%s` | agent: `%s` | judge: `%s` | %s\n\n",
		out.RunID, cfg.AgentCfg.Model, cfg.JudgeCfg.Model,
		time.Now().UTC().Format("2006-01-02 15:04 UTC")))

	writeSummary(&b, cfg, out)
	if out.JudgeOut != nil {
		writeCriteria(&b, out.JudgeOut.Metrics)
		writeFailures(&b, out.JudgeOut.Records)
	}
	writeCostBill(&b, out)
	return b.String()
}

func writeSummary(b *strings.Builder, cfg Config, out *Outcome) {
	b.WriteString("## Summary\n\n")
	t := format.NewTable(format.Markdown)
	t.Header("Metric", "Value")
	t.Row("Questions", out.Questions)
	if a := out.AgentOut; a != nil {
		t.Row("Agent failures", a.Failures)
	}
	if j := out.JudgeOut; j != nil {
		t.Row("Judged", j.Metrics.Judged)
		t.Row("Skipped", j.Metrics.Skipped)
		t.Row("**Overall score**", fmt.Sprintf("**%s**", format.FmtPercent(j.Metrics.Overall.Value)))
	}
	t.Row("Source", cfg.CSVPath)
	b.WriteString(t.String())
	b.WriteString("\n\n")
}

func writeCriteria(b *strings.Builder, ms judge.MetricSet) {
	b.WriteString("## Criterion scores\n\n")
	t := format.NewTable(format.Markdown)
	t.Header("ID", "Criterion", "Rate", "Threshold", "Pass", "Detail")
	for _, m := range ms.Criteria {
		t.Row(m.ID, m.Name, format.FmtPercent(m.Value), format.FmtPercent(m.Threshold),
			format.BoolMark(m.Pass), m.Detail)
	}
	t.Footer("", fmt.Sprintf("**%s**", ms.Overall.Name),
		fmt.Sprintf("**%s**", format.FmtPercent(ms.Overall.Value)),
		format.FmtPercent(ms.Overall.Threshold),
		format.BoolMark(ms.Overall.Pass), ms.Overall.Detail)
	b.WriteString(t.String())
	b.WriteString("\n\n")
}

// writeFailures lists the questions that failed outright or failed a
// majority of criteria, worst first. Passing runs get no section.
func writeFailures(b *strings.Builder, records []judge.Record) {
	type bad struct {
		rec    judge.Record
		failed int
	}
	var worst []bad
	for _, r := range records {
		if !r.Valid() {
			worst = append(worst, bad{r, len(judge.CriteriaNames)})
			continue
		}
		n := 0
		for _, v := range r.Checks.ByName() {
			if v == judge.Fail {
				n++
			}
		}
		if n >= 2 {
			worst = append(worst, bad{r, n})
		}
	}
	if len(worst) == 0 {
		return
	}

	b.WriteString("## Problem answers\n\n")
	t := format.NewTable(format.Markdown)
	t.Header("Q#", "Question", "Failing", "Why")
	for _, w := range worst {
		why := w.rec.Rationale
		switch {
		case w.rec.AgentFailed:
			why = "agent call failed: " + w.rec.Error
		case w.rec.JudgeFailed:
			why = "judge call failed: " + w.rec.Error
		case w.rec.ParseFailed:
			why = "judge verdict unparsable"
		}
		t.Row(w.rec.QuestionIndex, format.Truncate(w.rec.Question, 40),
			fmt.Sprintf("%d/%d", w.failed, len(judge.CriteriaNames)),
			format.Truncate(why, 60))
	}
	b.WriteString(t.String())
	b.WriteString("\n\n")
}

func writeCostBill(b *strings.Builder, out *Outcome) {
	b.WriteString("## Cost bill\n\n")
	t := format.NewTable(format.Markdown)
	t.Header("Stage", "Input", "Output", "Cost")

	var total cost.Info
	var tokens cost.Usage
	if a := out.AgentOut; a != nil {
		var u cost.Usage
		for _, r := range a.Results {
			u = u.Add(r.Usage)
		}
		t.Row("agent", format.FmtTokens(u.InputTokens), format.FmtTokens(u.OutputTokens), format.FmtUSD(a.Cost.Total))
		total = total.Add(a.Cost)
		tokens = tokens.Add(u)
	}
	if j := out.JudgeOut; j != nil {
		t.Row("judge", "-", "-", format.FmtUSD(j.Cost.Total))
		total = total.Add(j.Cost)
	}
	t.Footer("**TOTAL**",
		fmt.Sprintf("**%s**", format.FmtTokens(tokens.InputTokens)),
		fmt.Sprintf("**%s**", format.FmtTokens(tokens.OutputTokens)),
		fmt.Sprintf("**%s**", format.FmtUSD(total.Total)))
	b.WriteString(t.String())
	b.WriteString("\n")
}
