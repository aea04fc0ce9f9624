package judge

import (
	"fmt"
	"strings"

	"gauntlet/internal/agent"
)

// BuildPrompt renders the rubric prompt for one agent result. The judge
// model must answer with a single JSON object containing exactly the seven
// criterion booleans plus a rationale string.
func BuildPrompt(res agent.Result) string {
	var b strings.Builder
	b.WriteString("You are grading a search agent's answer against ground truth.\n\n")
	b.WriteString(fmt.Sprintf("## Question\n%s\n\n", res.Question.Question))
	b.WriteString(fmt.Sprintf("## Expected answer (ground truth)\n%s\n\n", res.Question.SummaryAnswer))
	if res.Question.Filename != "" {
		b.WriteString(fmt.Sprintf("Source: %s", res.Question.Filename))
		if res.Question.RelevantLines != "" {
			b.WriteString(fmt.Sprintf(" (%s)", res.Question.RelevantLines))
		}
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("## Agent answer\n%s\n\n", res.Answer))

	if len(res.ToolCalls) > 0 {
		b.WriteString("## Tool calls made by the agent\n")
		for _, tc := range res.ToolCalls {
			b.WriteString(fmt.Sprintf("- %s %s\n", tc.Name, string(tc.Args)))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("## Tool calls made by the agent\n(none)\n\n")
	}

	b.WriteString(`## Grading criteria
For each criterion answer true or false:

- instructions_follow: the answer follows the agent's task instructions
- instructions_avoid: the answer avoids forbidden behavior (fabrication, off-topic content)
- answer_relevant: the answer addresses the question asked
- answer_clear: the answer is clear and well structured
- answer_citations: the answer cites sources that support its claims
- completeness: the answer covers the key points of the expected answer
- tool_call_search: the agent used the search tool appropriately to find its answer

Respond with ONLY a JSON object, no prose before or after:

{
  "instructions_follow": true,
  "instructions_avoid": true,
  "answer_relevant": true,
  "answer_clear": true,
  "answer_citations": true,
  "completeness": true,
  "tool_call_search": true,
  "rationale": "one short paragraph explaining the failing criteria, if any"
}
`)
	return b.String()
}
