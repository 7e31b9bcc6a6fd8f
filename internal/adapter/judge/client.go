// Package judge provides an HTTP client for the trajectory evaluation service.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TrailBench/internal/domain/report"
	"github.com/Strob0t/TrailBench/internal/domain/testcase"
	"github.com/Strob0t/TrailBench/internal/resilience"
)

// evaluateRequest is the request body sent to the evaluation service.
type evaluateRequest struct {
	AgentKey         string   `json:"agent_key"`
	ModelID          string   `json:"model_id"`
	TestCaseID       string   `json:"test_case_id"`
	InitialPrompt    string   `json:"initial_prompt"`
	ExpectedOutcomes []string `json:"expected_outcomes"`
}

// evaluateResponse is the synchronous result of a trajectory evaluation.
// Detailed metrics are computed asynchronously and delivered over the queue,
// so only the verdict and the trace correlation key arrive here.
type evaluateResponse struct {
	TraceID    string `json:"trace_id"`
	Passed     bool   `json:"passed"`
	DurationMs int64  `json:"duration_ms"`
}

// Client talks to the evaluation service that drives an agent through a test
// case and judges the resulting trajectory.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new evaluation service client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Evaluate runs a single test case against the given agent and model and
// returns a report with the pass/fail verdict. The report's metrics status
// starts pending; completion arrives later on the queue.
func (c *Client) Evaluate(ctx context.Context, agentKey, modelID string, tc *testcase.TestCase) (*report.Report, error) {
	body, err := json.Marshal(evaluateRequest{
		AgentKey:         agentKey,
		ModelID:          modelID,
		TestCaseID:       tc.ID,
		InitialPrompt:    tc.InitialPrompt,
		ExpectedOutcomes: tc.ExpectedOutcomes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal evaluate request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/evaluate", body)
	if err != nil {
		return nil, fmt.Errorf("evaluate test case %s: %w", tc.ID, err)
	}

	var result evaluateResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal evaluate response: %w", err)
	}

	verdict := report.Failed
	if result.Passed {
		verdict = report.Passed
	}
	return &report.Report{
		ID:            uuid.NewString(),
		TestCaseID:    tc.ID,
		TraceID:       result.TraceID,
		PassFail:      verdict,
		MetricsStatus: report.MetricsPending,
		DurationMs:    result.DurationMs,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Health checks if the evaluation service is reachable.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("evaluation API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
