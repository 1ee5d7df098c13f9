package testrun

import (
	"context"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// DatasetAPI is the slice of the platform surface consumed by the remote
// data source.
type DatasetAPI interface {
	DatasetTotalRows(ctx context.Context, datasetID string) (int, error)
	DatasetRow(ctx context.Context, datasetID string, index int) (*api.DatasetRow, error)
	DatasetStructure(ctx context.Context, datasetID string) (api.DatasetStructure, error)
}

// RemoteAPI is the hosted-platform surface the engine drives. It is
// implemented by *client.Client; tests substitute fakes.
type RemoteAPI interface {
	DatasetAPI

	CreateTestRun(ctx context.Context, req *api.CreateTestRunRequest) (*api.TestRun, error)
	PushTestRunEntry(ctx context.Context, run *api.TestRun, entry *api.TestRunEntry) error
	MarkTestRunProcessed(ctx context.Context, run *api.TestRun) error
	MarkTestRunFailed(ctx context.Context, run *api.TestRun) error
	TestRunStatus(ctx context.Context, run *api.TestRun) (*api.TestRunStatus, error)
	TestRunResult(ctx context.Context, run *api.TestRun) (*api.TestRunResult, error)

	GetEvaluatorByName(ctx context.Context, name string) (*api.EvaluatorResource, error)

	ExecutePrompt(ctx context.Context, req *api.ExecutePromptRequest) (*api.AgentResponse, error)
	ExecutePromptChain(ctx context.Context, req *api.ExecutePromptChainRequest) (*api.AgentResponse, error)
	ExecuteWorkflow(ctx context.Context, req *api.ExecuteWorkflowRequest) (*api.AgentResponse, error)
}
