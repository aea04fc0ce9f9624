// Package agent invokes the external search agent over a sampled question
// set and persists the full result set as a run artifact. The agent itself
// is an external collaborator behind the Agent interface; this package only
// orchestrates calls, captures transcripts, and accounts cost.
package agent

import (
	"context"
	"encoding/json"

	"gauntlet/internal/cost"
	"gauntlet/internal/groundtruth"
)

// Message is one entry of the raw agent transcript.
type Message struct {
	Kind     string          `json:"kind"` // e.g. "user-prompt", "tool-call", "tool-return", "text"
	Content  string          `json:"content,omitempty"`
	ToolName string          `json:"tool_name,omitempty"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// ToolCall is one tool invocation extracted from the transcript, in order.
type ToolCall struct {
	Name string          `json:"tool_name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Response is what one agent call returns.
type Response struct {
	Answer   string     `json:"answer"`
	Messages []Message  `json:"messages"`
	Usage    cost.Usage `json:"usage"`
}

// Agent answers a single question. Implementations: the HTTP client for a
// live agent service, the stub for offline runs and tests.
type Agent interface {
	Answer(ctx context.Context, question string) (*Response, error)
}

// Func adapts a plain function to the Agent interface.
type Func func(ctx context.Context, question string) (*Response, error)

// Answer implements Agent.
func (f Func) Answer(ctx context.Context, question string) (*Response, error) {
	return f(ctx, question)
}

// FailedAnswerMarker is stored as the answer of a failed result record so
// downstream consumers never mistake it for agent output.
const FailedAnswerMarker = "ERROR: agent call failed"

// Result is one agent result record, one per sampled question. Failed calls
// are recorded, not dropped: Failed is set, Answer holds the marker, and
// Error holds the cause.
type Result struct {
	Question  groundtruth.Question `json:"question"`
	Answer    string               `json:"answer"`
	ToolCalls []ToolCall           `json:"tool_calls,omitempty"`
	Messages  []Message            `json:"messages,omitempty"`
	Usage     cost.Usage           `json:"usage"`
	Cost      cost.Info            `json:"cost"`
	ElapsedMs int64                `json:"elapsed_ms"`
	Failed    bool                 `json:"failed,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// extractToolCalls pulls the ordered tool-call log out of a transcript.
func extractToolCalls(messages []Message) []ToolCall {
	var calls []ToolCall
	for _, m := range messages {
		if m.Kind == "tool-call" {
			calls = append(calls, ToolCall{Name: m.ToolName, Args: m.Args})
		}
	}
	return calls
}
