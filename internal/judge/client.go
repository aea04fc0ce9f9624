package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gauntlet/internal/cost"
)

// ClientConfig holds judge service connection settings.
type ClientConfig struct {
	BaseURL string // e.g. http://localhost:8200
	APIKey  string // bearer token, optional
	Model   string
}

// Client calls a judge model service over JSON HTTP: rubric prompt in,
// raw model text plus token usage out. Verdict parsing stays in the stage.
type Client struct {
	HTTPClient *http.Client
	Config     ClientConfig
}

// NewClient returns a client with the given config; per-call deadlines
// come from the caller's context.
func NewClient(cfg ClientConfig) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{Config: cfg, HTTPClient: &http.Client{}}
}

type judgeRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type judgeResponse struct {
	Text  string     `json:"text"`
	Usage cost.Usage `json:"usage"`
}

// Evaluate implements Judge against the service's /v1/judge endpoint.
func (c *Client) Evaluate(ctx context.Context, prompt string) (string, cost.Usage, error) {
	body, err := json.Marshal(judgeRequest{Prompt: prompt, Model: c.Config.Model})
	if err != nil {
		return "", cost.Usage{}, fmt.Errorf("marshal request: %w", err)
	}

	u := c.Config.BaseURL + "/v1/judge"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", cost.Usage{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", cost.Usage{}, fmt.Errorf("judge service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", cost.Usage{}, fmt.Errorf("read judge response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return "", cost.Usage{}, fmt.Errorf("judge service returned %d: %s", resp.StatusCode, snippet)
	}

	var out judgeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", cost.Usage{}, fmt.Errorf("parse judge response: %w", err)
	}
	return out.Text, out.Usage, nil
}
