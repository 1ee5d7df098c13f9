package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// newTestClient points a client at the given handler without the retry
// transport, so error paths respond immediately.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key").WithHTTPClient(&http.Client{})
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	c := NewClient("https://app.benchline.ai/", "key")
	assert.Equal(t, "https://app.benchline.ai", c.GetBaseURL())
	assert.Equal(t, "https://app.benchline.ai/runs/run-1", c.RunLink("run-1"))
}

func TestCreateTestRun(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq api.CreateTestRunRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(api.TestRun{ID: "run-7", Name: gotReq.Name, WorkspaceID: gotReq.WorkspaceID})
	})

	run, err := c.CreateTestRun(context.Background(), &api.CreateTestRunRequest{
		Name:        "nightly",
		WorkspaceID: "ws-1",
		RunType:     "SINGLE",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/api/v1/test-runs", gotPath)
	assert.Equal(t, "nightly", gotReq.Name)
	assert.Equal(t, "run-7", run.ID)
	// A missing link in the response falls back to the UI link.
	assert.Equal(t, c.RunLink("run-7"), run.Link)
}

func TestCreateTestRunRejectsResponseWithoutID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.TestRun{Name: "nightly"})
	})

	_, err := c.CreateTestRun(context.Background(), &api.CreateTestRunRequest{Name: "nightly", WorkspaceID: "ws-1", RunType: "SINGLE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal response")
}

func TestAPIErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message_code":"ERR-404","message":"workspace not found"}`))
	})

	_, err := c.TestRunStatus(context.Background(), &api.TestRun{ID: "run-1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.NotNil(t, apiErr.PlatformError)
	assert.Equal(t, "ERR-404", apiErr.PlatformError.MessageCode)
	assert.Contains(t, apiErr.Error(), "workspace not found")
}

func TestAPIErrorPlainBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	})

	err := c.MarkTestRunProcessed(context.Background(), &api.TestRun{ID: "run-1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Nil(t, apiErr.PlatformError)
	assert.Contains(t, apiErr.Error(), "upstream unavailable")
}

func TestDatasetRowNormalizesCells(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/datasets/ds-1/rows/2", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "entry-2",
			"data": {
				"question": "q2",
				"docs": ["d1", "d2"],
				"hint": null
			}
		}`))
	})

	row, err := c.DatasetRow(context.Background(), "ds-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "entry-2", row.ID)
	assert.Equal(t, 2, row.Index)
	assert.Equal(t, "q2", row.Data["question"])
	assert.Equal(t, []string{"d1", "d2"}, row.Data["docs"])
	value, present := row.Data["hint"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestDatasetRowRejectsUnsupportedCell(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "e0", "data": {"count": 42}}`))
	})

	_, err := c.DatasetRow(context.Background(), "ds-1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"count"`)
}

func TestDatasetStructure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/datasets/ds-1/structure", r.URL.Path)
		_, _ = w.Write([]byte(`{"question": "INPUT", "answer": "EXPECTED_OUTPUT"}`))
	})

	structure, err := c.DatasetStructure(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, api.DatasetStructure{"question": "INPUT", "answer": "EXPECTED_OUTPUT"}, structure)
}

func TestDatasetTotalRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/datasets/ds-1/total-rows", r.URL.Path)
		_, _ = w.Write([]byte(`{"total_rows": 41}`))
	})

	total, err := c.DatasetTotalRows(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, 41, total)
}

func TestGetEvaluatorByName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/evaluators/get-by-name", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(api.EvaluatorResource{ID: "eval-1", Name: req["name"], Type: api.EvaluatorTypeAI})
	})

	resource, err := c.GetEvaluatorByName(context.Background(), "faithfulness")
	require.NoError(t, err)
	assert.Equal(t, "eval-1", resource.ID)
	assert.Equal(t, "faithfulness", resource.Name)
	assert.Equal(t, api.EvaluatorTypeAI, resource.Type)
}

func TestExecuteWorkflow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflows/execute", r.URL.Path)
		_ = json.NewEncoder(w).Encode(api.AgentResponse{Output: "result", RetrievedContext: []string{"ctx"}})
	})

	resp, err := c.ExecuteWorkflow(context.Background(), &api.ExecuteWorkflowRequest{WorkflowID: "wf-1", Input: "q"})
	require.NoError(t, err)
	assert.Equal(t, "result", resp.Output)
	assert.Equal(t, []string{"ctx"}, resp.RetrievedContext)
}

func TestWithHelpersCopyTheClient(t *testing.T) {
	original := NewClient("https://app.benchline.ai", "key")
	custom := &http.Client{}
	modified := original.WithHTTPClient(custom)

	assert.NotSame(t, original, modified)
	assert.Same(t, custom, modified.httpClient)
	assert.NotSame(t, custom, original.httpClient)

	var nilClient *Client
	assert.Nil(t, nilClient.WithHTTPClient(custom))
	assert.Nil(t, nilClient.WithLogger(nil))
}

func TestNilHandleGuards(t *testing.T) {
	c := NewClient("https://app.benchline.ai", "key")

	_, err := c.CreateTestRun(context.Background(), nil)
	assert.Error(t, err)
	assert.Error(t, c.PushTestRunEntry(context.Background(), nil, &api.TestRunEntry{}))
	assert.Error(t, c.MarkTestRunProcessed(context.Background(), nil))
	assert.Error(t, c.MarkTestRunFailed(context.Background(), nil))
	_, err = c.TestRunStatus(context.Background(), nil)
	assert.Error(t, err)
	_, err = c.TestRunResult(context.Background(), nil)
	assert.Error(t, err)
}
