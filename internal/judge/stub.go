package judge

import (
	"context"
	"fmt"
	"strings"

	"gauntlet/internal/cost"
)

// Stub is a deterministic offline judge for demos and tests. It passes
// every criterion except answer_citations when the answer has no
// "References" section, and can inject unparsable output on demand.
type Stub struct {
	// GarbleContaining returns non-JSON output when the prompt contains
	// this substring; empty disables.
	GarbleContaining string
	// FailContaining makes the call itself error on a substring match.
	FailContaining string
}

// Evaluate implements Judge.
func (s *Stub) Evaluate(_ context.Context, prompt string) (string, cost.Usage, error) {
	if s.FailContaining != "" && strings.Contains(prompt, s.FailContaining) {
		return "", cost.Usage{}, fmt.Errorf("stub judge: injected failure")
	}
	usage := cost.Usage{InputTokens: len(prompt) / 4, OutputTokens: 60, Requests: 1}
	if s.GarbleContaining != "" && strings.Contains(prompt, s.GarbleContaining) {
		return "I cannot grade this answer in the requested format.", usage, nil
	}

	citations := strings.Contains(prompt, "References")
	text := fmt.Sprintf("```json\n{\n  \"instructions_follow\": true,\n  \"instructions_avoid\": true,\n  \"answer_relevant\": true,\n  \"answer_clear\": true,\n  \"answer_citations\": %t,\n  \"completeness\": true,\n  \"tool_call_search\": true,\n  \"rationale\": \"stub verdict\"\n}\n```", citations)
	return text, usage, nil
}
