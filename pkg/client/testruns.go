package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// Test runs API

// CreateTestRun creates a new test run in the given workspace and returns
// its handle. The handle is read-only; every subsequent push/mark/status
// call references it.
func (c *Client) CreateTestRun(ctx context.Context, req *api.CreateTestRunRequest) (*api.TestRun, error) {
	if req == nil {
		return nil, fmt.Errorf("create test run request is nil")
	}
	respBody, err := c.doRequest(ctx, http.MethodPost, endpointTestRunsCreate, req)
	if err != nil {
		return nil, err
	}

	run, err := unmarshalResponse[api.TestRun](ctx, c, respBody)
	if err != nil {
		return nil, err
	}
	if run.Link == "" {
		run.Link = c.RunLink(run.ID)
	}
	return run, nil
}

// PushTestRunEntry pushes one processed row to the run. The platform does
// not deduplicate entries; callers must not push the same row twice.
func (c *Client) PushTestRunEntry(ctx context.Context, run *api.TestRun, entry *api.TestRunEntry) error {
	if run == nil {
		return fmt.Errorf("test run handle is nil")
	}
	_, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf(endpointTestRunEntriesFmt, run.ID), entry)
	return err
}

// MarkTestRunProcessed signals that all rows have been submitted. Remote
// scoring (e.g. AI evaluators) may continue after this call.
func (c *Client) MarkTestRunProcessed(ctx context.Context, run *api.TestRun) error {
	if run == nil {
		return fmt.Errorf("test run handle is nil")
	}
	_, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf(endpointTestRunMarkProcessedFmt, run.ID), nil)
	return err
}

// MarkTestRunFailed marks the run failed. Used only for orchestration-level
// failures after the run was created, never for individual row failures.
func (c *Client) MarkTestRunFailed(ctx context.Context, run *api.TestRun) error {
	if run == nil {
		return fmt.Errorf("test run handle is nil")
	}
	_, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf(endpointTestRunMarkFailedFmt, run.ID), nil)
	return err
}

// TestRunStatus fetches the entry-count breakdown and overall status.
func (c *Client) TestRunStatus(ctx context.Context, run *api.TestRun) (*api.TestRunStatus, error) {
	if run == nil {
		return nil, fmt.Errorf("test run handle is nil")
	}
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(endpointTestRunStatusFmt, run.ID), nil)
	if err != nil {
		return nil, err
	}

	return unmarshalResponse[api.TestRunStatus](ctx, c, respBody)
}

// TestRunResult fetches the final result once the run is complete.
func (c *Client) TestRunResult(ctx context.Context, run *api.TestRun) (*api.TestRunResult, error) {
	if run == nil {
		return nil, fmt.Errorf("test run handle is nil")
	}
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(endpointTestRunResultFmt, run.ID), nil)
	if err != nil {
		return nil, err
	}

	result, err := unmarshalResponse[api.TestRunResult](ctx, c, respBody)
	if err != nil {
		return nil, err
	}
	if result.Link == "" {
		result.Link = c.RunLink(run.ID)
	}
	return result, nil
}
