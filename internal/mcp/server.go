// Package mcp exposes the evaluation harness over the Model Context
// Protocol so an orchestrating agent can drive sampling, runs, and judging
// as tools.
package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"gauntlet/internal/agent"
	"gauntlet/internal/artifact"
	"gauntlet/internal/cost"
	"gauntlet/internal/groundtruth"
	"gauntlet/internal/judge"
	"gauntlet/internal/logging"
	"gauntlet/internal/store"
)

// Options configures the MCP server's defaults for tool invocations that
// omit them.
type Options struct {
	ReportsDir string
	DBPath     string
	AgentURL   string
	JudgeURL   string
	APIKey     string
	Pricing    cost.Pricing
}

// Server wraps the MCP SDK server around the evaluation stages.
type Server struct {
	MCPServer   *sdkmcp.Server
	ProjectRoot string
	opts        Options
}

// NewServer creates an MCP server with the evaluation tools registered. It
// captures the current working directory as the project root so relative
// CSV and report paths resolve correctly.
func NewServer(opts Options) *Server {
	cwd, _ := os.Getwd()
	if opts.ReportsDir == "" {
		opts.ReportsDir = "reports"
	}
	if opts.DBPath == "" {
		opts.DBPath = store.DefaultDBPath
	}
	if opts.Pricing.Default == (cost.ModelPrice{}) {
		opts.Pricing = cost.DefaultPricing()
	}
	s := &Server{ProjectRoot: cwd, opts: opts}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "gauntlet", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "sample_ground_truth",
		Description: "Draw a deterministic sample from a ground-truth CSV and write it to a new CSV. Forced indices are always included.",
	}, s.handleSample)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_evaluation",
		Description: "Run the search agent over a ground-truth CSV with bounded concurrency. Writes a run artifact and returns its path plus failure and cost totals.",
	}, s.handleRun)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "judge_run",
		Description: "Judge a run artifact against the seven-criterion rubric. Writes a judge artifact and returns the aggregate metrics.",
	}, s.handleJudge)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_history",
		Description: "List past evaluation runs from the history database, newest first.",
	}, s.handleHistory)
}

// --- Tool input/output types ---

type sampleInput struct {
	CSV          string `json:"csv" jsonschema:"path to the ground-truth CSV"`
	Size         int    `json:"size" jsonschema:"sample size (0 = whole set)"`
	Seed         int64  `json:"seed,omitempty" jsonschema:"random seed for reproducible draws"`
	ExtraIndices []int  `json:"extra_indices,omitempty" jsonschema:"row indices that must appear in the sample"`
	Output       string `json:"output,omitempty" jsonschema:"output CSV path (default: timestamped name next to the input)"`
}

type sampleOutput struct {
	Path    string `json:"path"`
	Sampled int    `json:"sampled"`
	SetSize int    `json:"set_size"`
}

type runInput struct {
	CSV         string `json:"csv" jsonschema:"path to the ground-truth CSV to evaluate"`
	Model       string `json:"model" jsonschema:"agent model name, used for cost accounting"`
	AgentURL    string `json:"agent_url,omitempty" jsonschema:"agent service base URL (default: server option)"`
	Concurrency int    `json:"concurrency,omitempty" jsonschema:"max in-flight agent calls (default 4)"`
	TimeoutSec  int    `json:"timeout_sec,omitempty" jsonschema:"per-call timeout in seconds (0 = none)"`
	Stub        bool   `json:"stub,omitempty" jsonschema:"use the offline stub agent instead of the HTTP service"`
}

type runOutput struct {
	RunID        string  `json:"run_id"`
	ArtifactPath string  `json:"artifact_path"`
	Questions    int     `json:"questions"`
	Failures     int     `json:"failures"`
	CostUSD      float64 `json:"cost_usd"`
}

type judgeInput struct {
	RunArtifact string `json:"run_artifact,omitempty" jsonschema:"run artifact path (default: latest in the reports dir)"`
	Model       string `json:"model" jsonschema:"judge model name, used for cost accounting"`
	JudgeURL    string `json:"judge_url,omitempty" jsonschema:"judge service base URL (default: server option)"`
	Concurrency int    `json:"concurrency,omitempty" jsonschema:"max in-flight judge calls (default 4)"`
	Stub        bool   `json:"stub,omitempty" jsonschema:"use the offline stub judge instead of the HTTP service"`
}

type judgeOutput struct {
	RunID        string          `json:"run_id"`
	ArtifactPath string          `json:"artifact_path"`
	Metrics      judge.MetricSet `json:"metrics"`
	CostUSD      float64         `json:"cost_usd"`
}

type historyInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max entries to return (0 = all)"`
}

type historyOutput struct {
	Runs []*store.RunRecord `json:"runs"`
}

// --- Tool handlers ---

func (s *Server) handleSample(_ context.Context, _ *sdkmcp.CallToolRequest, input sampleInput) (*sdkmcp.CallToolResult, sampleOutput, error) {
	set, err := groundtruth.LoadCSV(input.CSV)
	if err != nil {
		return nil, sampleOutput{}, fmt.Errorf("sample_ground_truth: %w", err)
	}
	sample, err := groundtruth.Sample(set, groundtruth.SampleParams{
		Size:         input.Size,
		Seed:         input.Seed,
		ExtraIndices: input.ExtraIndices,
	})
	if err != nil {
		return nil, sampleOutput{}, fmt.Errorf("sample_ground_truth: %w", err)
	}
	path := input.Output
	if path == "" {
		path = groundtruth.DefaultSampleName(len(sample), time.Now())
	}
	if err := groundtruth.SaveCSV(path, sample); err != nil {
		return nil, sampleOutput{}, fmt.Errorf("sample_ground_truth: %w", err)
	}
	logging.New("mcp").Info("sampled ground truth", "csv", input.CSV, "sampled", len(sample), "output", path)
	return nil, sampleOutput{Path: path, Sampled: len(sample), SetSize: len(set)}, nil
}

func (s *Server) handleRun(ctx context.Context, _ *sdkmcp.CallToolRequest, input runInput) (*sdkmcp.CallToolResult, runOutput, error) {
	questions, err := groundtruth.LoadCSV(input.CSV)
	if err != nil {
		return nil, runOutput{}, fmt.Errorf("run_evaluation: %w", err)
	}

	concurrency := input.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	baseURL := input.AgentURL
	if baseURL == "" {
		baseURL = s.opts.AgentURL
	}

	var ag agent.Agent
	adapter := "http"
	if input.Stub {
		ag = &agent.Stub{}
		adapter = "stub"
	} else {
		if baseURL == "" {
			return nil, runOutput{}, fmt.Errorf("run_evaluation: no agent_url configured")
		}
		ag = agent.NewClient(agent.ClientConfig{BaseURL: baseURL, APIKey: s.opts.APIKey, Model: input.Model})
	}

	history, err := store.Open(s.opts.DBPath)
	if err != nil {
		return nil, runOutput{}, fmt.Errorf("run_evaluation: %w", err)
	}
	defer history.Close()

	out, err := agent.Run(ctx, questions, ag, agent.RunConfig{
		Model:       input.Model,
		Adapter:     adapter,
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Timeout:     time.Duration(input.TimeoutSec) * time.Second,
		Pricing:     s.opts.Pricing,
		ReportsDir:  s.opts.ReportsDir,
		SourceCSV:   input.CSV,
		History:     history,
	}, nil)
	if err != nil {
		return nil, runOutput{}, fmt.Errorf("run_evaluation: %w", err)
	}
	return nil, runOutput{
		RunID:        out.RunID,
		ArtifactPath: out.ArtifactPath,
		Questions:    len(out.Results),
		Failures:     out.Failures,
		CostUSD:      out.Cost.Total,
	}, nil
}

func (s *Server) handleJudge(ctx context.Context, _ *sdkmcp.CallToolRequest, input judgeInput) (*sdkmcp.CallToolResult, judgeOutput, error) {
	runPath := input.RunArtifact
	if runPath == "" {
		latest, err := artifact.LatestRun(s.opts.ReportsDir)
		if err != nil {
			return nil, judgeOutput{}, fmt.Errorf("judge_run: %w", err)
		}
		if latest == "" {
			return nil, judgeOutput{}, fmt.Errorf("judge_run: no run artifacts in %s", s.opts.ReportsDir)
		}
		runPath = latest
	}

	concurrency := input.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	baseURL := input.JudgeURL
	if baseURL == "" {
		baseURL = s.opts.JudgeURL
	}

	var jd judge.Judge
	adapter := "http"
	if input.Stub {
		jd = &judge.Stub{}
		adapter = "stub"
	} else {
		if baseURL == "" {
			return nil, judgeOutput{}, fmt.Errorf("judge_run: no judge_url configured")
		}
		jd = judge.NewClient(judge.ClientConfig{BaseURL: baseURL, APIKey: s.opts.APIKey, Model: input.Model})
	}

	history, err := store.Open(s.opts.DBPath)
	if err != nil {
		return nil, judgeOutput{}, fmt.Errorf("judge_run: %w", err)
	}
	defer history.Close()

	out, err := judge.Run(ctx, runPath, jd, judge.Config{
		Model:       input.Model,
		Adapter:     adapter,
		BaseURL:     baseURL,
		Concurrency: concurrency,
		Pricing:     s.opts.Pricing,
		History:     history,
	}, nil)
	if err != nil {
		return nil, judgeOutput{}, fmt.Errorf("judge_run: %w", err)
	}
	return nil, judgeOutput{
		RunID:        out.RunID,
		ArtifactPath: out.ArtifactPath,
		Metrics:      out.Metrics,
		CostUSD:      out.Cost.Total,
	}, nil
}

func (s *Server) handleHistory(_ context.Context, _ *sdkmcp.CallToolRequest, input historyInput) (*sdkmcp.CallToolResult, historyOutput, error) {
	st, err := store.Open(s.opts.DBPath)
	if err != nil {
		return nil, historyOutput{}, fmt.Errorf("get_history: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(input.Limit)
	if err != nil {
		return nil, historyOutput{}, fmt.Errorf("get_history: %w", err)
	}
	return nil, historyOutput{Runs: runs}, nil
}
