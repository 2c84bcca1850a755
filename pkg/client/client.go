package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the faultline SDK client.
type Client struct {
	endpoint string
	http     *http.Client
	backoff  BackoffStrategy
	retries  int
}

// NewClient creates a new faultline client.
/// endpoint defaults to "http://127.0.0.1:8490" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = "http://127.0.0.1:8490"
	}
	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: DefaultBackoff(),
		retries: 3,
	}
}

// Analyze submits a model document for analysis and returns the stored run.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	if err := c.post(ctx, "/v1/analyze", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quantify evaluates a bare product set on the daemon.
func (c *Client) Quantify(ctx context.Context, req QuantifyRequest) (*QuantifyResponse, error) {
	var resp QuantifyResponse
	if err := c.post(ctx, "/v1/quantify", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRuns fetches stored run summaries, newest first.
func (c *Client) ListRuns(ctx context.Context, opts RunsOptions) ([]RunSummary, error) {
	q := url.Values{}
	if opts.Model != "" {
		q.Set("model", opts.Model)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	path := "/v1/runs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var runs []RunSummary
	if err := c.get(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun fetches one run with its full result.
func (c *Client) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	var run RunSummary
	if err := c.get(ctx, "/v1/runs/"+url.PathEscape(runID), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Ping checks the health of the daemon.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	var status Status
	if err := c.get(ctx, "/v1/health", &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// post sends a JSON request without retry: analysis is expensive and the
// daemon persists a run per call.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	blob, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+path, bytes.NewReader(blob))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// get fetches JSON with retry on transient failures.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff.Next(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+path, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = decodeError(resp)
			resp.Body.Close()
			continue
		}
		if resp.StatusCode != http.StatusOK {
			err := decodeError(resp)
			resp.Body.Close()
			return err
		}
		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		return err
	}
	return lastErr
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		if body.Details != "" {
			return fmt.Errorf("%s: %s (status %d)", body.Error, body.Details, resp.StatusCode)
		}
		return fmt.Errorf("%s (status %d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status: %d", resp.StatusCode)
}
