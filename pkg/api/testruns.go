package api

import (
	"fmt"
	"time"
)

// RunStatus represents the overall status of a hosted test run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "QUEUED"
	RunStatusRunning  RunStatus = "RUNNING"
	RunStatusFailed   RunStatus = "FAILED"
	RunStatusComplete RunStatus = "COMPLETE"
	RunStatusStopped  RunStatus = "STOPPED"
)

func (s RunStatus) String() string {
	return string(s)
}

// Terminal reports whether the hosted side will make no further progress.
// RunStatusComplete is terminal only once all entry counts have reconciled,
// which is the poller's job to decide.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusFailed, RunStatusComplete, RunStatusStopped:
		return true
	}
	return false
}

func GetRunStatus(s string) (RunStatus, error) {
	switch s {
	case string(RunStatusQueued):
		return RunStatusQueued, nil
	case string(RunStatusRunning):
		return RunStatusRunning, nil
	case string(RunStatusFailed):
		return RunStatusFailed, nil
	case string(RunStatusComplete):
		return RunStatusComplete, nil
	case string(RunStatusStopped):
		return RunStatusStopped, nil
	default:
		return RunStatus(s), fmt.Errorf("invalid run status: %s", s)
	}
}

// EvaluatorRef identifies a platform evaluator attached to a run.
type EvaluatorRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name" validate:"required"`
}

// HumanEvaluationConfig requests a human-review pass over pushed entries.
type HumanEvaluationConfig struct {
	Emails       []string `json:"emails" validate:"required,min=1,dive,email"`
	Instructions string   `json:"instructions,omitempty"`
	SampleRate   *float64 `json:"sample_rate,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// CreateTestRunRequest represents the create call for a test run.
type CreateTestRunRequest struct {
	Name                  string                 `json:"name" validate:"required"`
	WorkspaceID           string                 `json:"workspace_id" validate:"required"`
	RunType               string                 `json:"run_type" validate:"required"`
	EvaluatorConfig       []EvaluatorRef         `json:"evaluator_config,omitempty" validate:"omitempty,dive"`
	RequiresLocalRun      bool                   `json:"requires_local_run"`
	PromptVersionID       string                 `json:"prompt_version_id,omitempty"`
	PromptChainVersionID  string                 `json:"prompt_chain_version_id,omitempty"`
	WorkflowID            string                 `json:"workflow_id,omitempty"`
	HumanEvaluationConfig *HumanEvaluationConfig `json:"human_evaluation_config,omitempty"`
	Tags                  []string               `json:"tags,omitempty"`
}

// TestRun is the handle to a created run. It is created once by the create
// call and read-only afterwards; every push/mark/status call references it.
type TestRun struct {
	ID          string    `json:"id" validate:"required"`
	Name        string    `json:"name"`
	WorkspaceID string    `json:"workspace_id"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

// TestRunEntryCounts is the per-state entry breakdown reported by the
// hosted platform. Total only counts entries the platform has received.
type TestRunEntryCounts struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Queued    int `json:"queued"`
	Stopped   int `json:"stopped"`
}

// TestRunStatus represents the status call response.
type TestRunStatus struct {
	EntryCounts TestRunEntryCounts `json:"entry_counts"`
	Status      RunStatus          `json:"test_run_status"`
}

// TestRunMetricSummary aggregates one evaluator's scores across a run.
type TestRunMetricSummary struct {
	MeanScore float64  `json:"mean_score"`
	PassRate  *float64 `json:"pass_rate,omitempty"`
}

// TestRunResult represents the final-result call response.
type TestRunResult struct {
	Link             string                          `json:"link"`
	PerMetricSummary map[string]TestRunMetricSummary `json:"per_metric_summary,omitempty"`
	TotalCost        *Cost                           `json:"total_cost,omitempty"`
	MeanLatencyMs    float64                         `json:"mean_latency_ms,omitempty"`
}

// Usage is the token/latency metadata attached to a produced output.
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`
	LatencyMs        float64 `json:"latency_ms,omitempty"`
}

// Cost is the monetary cost metadata attached to a produced output.
type Cost struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
	Total  float64 `json:"total"`
}

// EvaluationResult is one named score produced by a client-side evaluator.
// Score is a number, a boolean, or the string "Err" when the evaluator
// itself failed.
type EvaluationResult struct {
	Name             string `json:"name"`
	Score            any    `json:"score"`
	Reasoning        string `json:"reasoning,omitempty"`
	PassFailCriteria any    `json:"pass_fail_criteria,omitempty"`
}

// TestRunEntry is the payload pushed for one processed row.
type TestRunEntry struct {
	ID                string             `json:"id"`
	Input             string             `json:"input,omitempty"`
	ExpectedOutput    string             `json:"expected_output,omitempty"`
	ContextToEvaluate []string           `json:"context_to_evaluate,omitempty"`
	Variables         map[string]any     `json:"variables,omitempty"`
	Output            string             `json:"output,omitempty"`
	EvaluationResults []EvaluationResult `json:"evaluation_results,omitempty"`
	Usage             *Usage             `json:"usage,omitempty"`
	Cost              *Cost              `json:"cost,omitempty"`
	DatasetID         string             `json:"dataset_id,omitempty"`
	DatasetEntryID    string             `json:"dataset_entry_id,omitempty"`
}
