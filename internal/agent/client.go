package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ClientConfig holds agent service connection settings.
type ClientConfig struct {
	BaseURL string // e.g. http://localhost:8100
	APIKey  string // bearer token, optional
	Model   string // forwarded so the service knows which model to drive
}

// Client calls a search-agent service over JSON HTTP: question in, answer
// plus transcript and token usage out.
type Client struct {
	HTTPClient *http.Client
	Config     ClientConfig
}

// NewClient returns a client with the given config. The zero http.Client is
// used when none is set; per-call deadlines come from the caller's context.
func NewClient(cfg ClientConfig) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{Config: cfg, HTTPClient: &http.Client{}}
}

type answerRequest struct {
	Question string `json:"question"`
	Model    string `json:"model,omitempty"`
}

// Answer implements Agent against the service's /v1/answer endpoint.
func (c *Client) Answer(ctx context.Context, question string) (*Response, error) {
	body, err := json.Marshal(answerRequest{Question: question, Model: c.Config.Model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u := c.Config.BaseURL + "/v1/answer"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("agent service returned %d: %s", resp.StatusCode, snippet)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse agent response: %w", err)
	}
	return &out, nil
}
