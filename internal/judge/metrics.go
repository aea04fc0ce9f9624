package judge

import "fmt"

// Metric is one computed score with a pass/fail threshold.
type Metric struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
	Detail    string  `json:"detail"` // e.g. "10/12"
}

// MetricSet holds the aggregate scores for one judged run.
type MetricSet struct {
	Criteria []Metric `json:"criteria"` // C1-C7, one per rubric criterion
	Overall  Metric   `json:"overall"`  // mean pass rate across criteria
	Judged   int      `json:"judged"`   // records with usable verdicts
	Skipped  int      `json:"skipped"`  // agent-failed, judge-failed, or unparsable
}

// criterion thresholds; tool_call_search is the loosest since some questions
// are answerable without a search.
var criterionThresholds = map[string]float64{
	"instructions_follow": 0.90,
	"instructions_avoid":  0.95,
	"answer_relevant":     0.85,
	"answer_clear":        0.85,
	"answer_citations":    0.75,
	"completeness":        0.70,
	"tool_call_search":    0.60,
}

// ComputeMetrics aggregates criterion pass rates over the records with
// usable verdicts. Records that failed at the agent, judge, or parse stage
// count as skipped and never dilute the rates.
func ComputeMetrics(records []Record) MetricSet {
	ms := MetricSet{}

	passes := make([]int, len(CriteriaNames))
	for _, r := range records {
		if !r.Valid() {
			ms.Skipped++
			continue
		}
		ms.Judged++
		for i, v := range r.Checks.ByName() {
			if v == Pass {
				passes[i]++
			}
		}
	}

	var sum float64
	for i, name := range CriteriaNames {
		threshold := criterionThresholds[name]
		val := safeDiv(passes[i], ms.Judged)
		sum += val
		ms.Criteria = append(ms.Criteria, Metric{
			ID: fmt.Sprintf("C%d", i+1), Name: name,
			Value: val, Threshold: threshold,
			Pass:   ms.Judged > 0 && val >= threshold,
			Detail: fmt.Sprintf("%d/%d", passes[i], ms.Judged),
		})
	}

	overall := sum / float64(len(CriteriaNames))
	ms.Overall = Metric{
		ID: "OVERALL", Name: "mean_criterion_pass_rate",
		Value: overall, Threshold: 0.80,
		Pass:   ms.Judged > 0 && overall >= 0.80,
		Detail: fmt.Sprintf("%d judged, %d skipped", ms.Judged, ms.Skipped),
	}
	return ms
}

func safeDiv(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
