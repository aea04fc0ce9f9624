// Package judge scores agent answers against ground truth with an external
// LLM judge and a fixed seven-criterion rubric, then aggregates pass rates
// into a metric set.
package judge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gauntlet/internal/cost"
)

// Verdict is the outcome of one rubric criterion.
type Verdict string

const (
	Pass    Verdict = "pass"
	Fail    Verdict = "fail"
	Unknown Verdict = "unknown" // judge output unusable for this criterion
)

// Checks holds the seven rubric criteria. Field order matches the rubric.
type Checks struct {
	InstructionsFollow Verdict `json:"instructions_follow"`
	InstructionsAvoid  Verdict `json:"instructions_avoid"`
	AnswerRelevant     Verdict `json:"answer_relevant"`
	AnswerClear        Verdict `json:"answer_clear"`
	AnswerCitations    Verdict `json:"answer_citations"`
	Completeness       Verdict `json:"completeness"`
	ToolCallSearch     Verdict `json:"tool_call_search"`
}

// CriteriaNames lists the rubric criteria in order.
var CriteriaNames = []string{
	"instructions_follow",
	"instructions_avoid",
	"answer_relevant",
	"answer_clear",
	"answer_citations",
	"completeness",
	"tool_call_search",
}

// ByName returns criterion verdicts keyed by rubric name, in order.
func (c Checks) ByName() []Verdict {
	return []Verdict{
		c.InstructionsFollow, c.InstructionsAvoid, c.AnswerRelevant,
		c.AnswerClear, c.AnswerCitations, c.Completeness, c.ToolCallSearch,
	}
}

// AllUnknown is the sentinel check set for records that could not be judged.
func AllUnknown() Checks {
	return Checks{Unknown, Unknown, Unknown, Unknown, Unknown, Unknown, Unknown}
}

// Record is one judge verdict record, one per agent result.
type Record struct {
	QuestionIndex int       `json:"question_index"`
	Question      string    `json:"question"`
	Checks        Checks    `json:"checks"`
	Rationale     string    `json:"rationale,omitempty"`
	Cost          cost.Info `json:"cost"`
	ParseFailed   bool      `json:"parse_failed,omitempty"` // judge responded, response unusable
	AgentFailed   bool      `json:"agent_failed,omitempty"` // nothing to judge
	JudgeFailed   bool      `json:"judge_failed,omitempty"` // judge call itself errored
	Error         string    `json:"error,omitempty"`
}

// Valid reports whether this record carries a usable verdict and should
// count toward aggregate metrics.
func (r Record) Valid() bool {
	return !r.ParseFailed && !r.AgentFailed && !r.JudgeFailed
}

// rawVerdict is the strict wire shape the judge model must produce. Every
// criterion is required; unknown fields are rejected.
type rawVerdict struct {
	InstructionsFollow *bool  `json:"instructions_follow"`
	InstructionsAvoid  *bool  `json:"instructions_avoid"`
	AnswerRelevant     *bool  `json:"answer_relevant"`
	AnswerClear        *bool  `json:"answer_clear"`
	AnswerCitations    *bool  `json:"answer_citations"`
	Completeness       *bool  `json:"completeness"`
	ToolCallSearch     *bool  `json:"tool_call_search"`
	Rationale          string `json:"rationale"`
}

// ParseVerdict decodes a judge response into Checks, tolerating markdown
// code fences but nothing else: missing criteria, unknown fields, or
// non-JSON all fail, and the caller records a parse-failed verdict.
func ParseVerdict(raw string) (Checks, string, error) {
	cleaned := cleanJSON([]byte(raw))

	dec := json.NewDecoder(bytes.NewReader(cleaned))
	dec.DisallowUnknownFields()
	var rv rawVerdict
	if err := dec.Decode(&rv); err != nil {
		return Checks{}, "", fmt.Errorf("parse verdict: %w", err)
	}

	fields := []*bool{
		rv.InstructionsFollow, rv.InstructionsAvoid, rv.AnswerRelevant,
		rv.AnswerClear, rv.AnswerCitations, rv.Completeness, rv.ToolCallSearch,
	}
	var verdicts [7]Verdict
	for i, f := range fields {
		if f == nil {
			return Checks{}, "", fmt.Errorf("parse verdict: criterion %q missing", CriteriaNames[i])
		}
		if *f {
			verdicts[i] = Pass
		} else {
			verdicts[i] = Fail
		}
	}
	return Checks{
		InstructionsFollow: verdicts[0],
		InstructionsAvoid:  verdicts[1],
		AnswerRelevant:     verdicts[2],
		AnswerClear:        verdicts[3],
		AnswerCitations:    verdicts[4],
		Completeness:       verdicts[5],
		ToolCallSearch:     verdicts[6],
	}, rv.Rationale, nil
}

// cleanJSON strips markdown code fences and surrounding whitespace from an
// LLM response. Handles ```json\n{...}\n```, ```\n{...}\n```, and bare JSON.
func cleanJSON(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if len(s) == 0 {
		return s
	}
	if bytes.HasPrefix(s, []byte("```")) {
		if idx := bytes.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		if bytes.HasSuffix(s, []byte("```")) {
			s = s[:len(s)-3]
		}
		s = bytes.TrimSpace(s)
	}
	return s
}
