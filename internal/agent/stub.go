package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gauntlet/internal/cost"
)

// Stub is a deterministic offline agent for demos and tests. It fabricates
// a short answer with a few search tool calls and usage proportional to the
// text involved (~4 chars per token, same estimate the cost bill uses).
type Stub struct {
	// FailContaining marks calls as failed when the question contains this
	// substring; empty disables failure injection.
	FailContaining string
}

// Answer implements Agent.
func (s *Stub) Answer(_ context.Context, question string) (*Response, error) {
	if s.FailContaining != "" && strings.Contains(question, s.FailContaining) {
		return nil, fmt.Errorf("stub agent: injected failure for %q", question)
	}

	queries := []string{question, question + " example", question + " documentation"}
	messages := []Message{{Kind: "user-prompt", Content: question}}
	for _, q := range queries {
		args, _ := json.Marshal(map[string]string{"query": q})
		messages = append(messages,
			Message{Kind: "tool-call", ToolName: "search", Args: args},
			Message{Kind: "tool-return", ToolName: "search", Content: "3 documents matched"},
		)
	}
	answer := fmt.Sprintf("# %s\n\nThe documentation covers this topic directly; see the referenced pages for setup and examples.\n\n## References\n- [stub](docs/stub.md)\n", question)
	messages = append(messages, Message{Kind: "text", Content: answer})

	promptChars := len(question) + 400 // instructions overhead
	for _, m := range messages[:len(messages)-1] {
		promptChars += len(m.Content)
	}
	return &Response{
		Answer:   answer,
		Messages: messages,
		Usage: cost.Usage{
			InputTokens:  promptChars / 4,
			OutputTokens: len(answer) / 4,
			Requests:     1,
		},
	}, nil
}
