package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gauntlet/internal/cost"
)

func TestClientAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/answer" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q", got)
		}
		var req answerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Question != "how to map columns" || req.Model != "gpt-4o-mini" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(Response{
			Answer: "Use the column mapping API.",
			Messages: []Message{
				{Kind: "tool-call", ToolName: "search", Args: []byte(`{"query":"column mapping"}`)},
			},
			Usage: cost.Usage{InputTokens: 120, OutputTokens: 40, Requests: 1},
		})
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/", APIKey: "sekrit", Model: "gpt-4o-mini"})
	resp, err := c.Answer(context.Background(), "how to map columns")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Answer != "Use the column mapping API." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 40 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestClientAnswerNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if _, err := c.Answer(context.Background(), "q"); err == nil {
		t.Error("expected error for 503")
	}
}
