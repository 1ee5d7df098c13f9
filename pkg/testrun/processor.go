package testrun

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/benchline-ai/benchline-go/internal/messages"
	"github.com/benchline-ai/benchline-go/internal/runerrors"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

// failedIndexSet accumulates the indices of rows whose pipeline failed
// before a successful push. It is shared across concurrently running row
// pipelines.
type failedIndexSet struct {
	mu      sync.Mutex
	indices []int
}

func (s *failedIndexSet) add(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indices = append(s.indices, index)
}

func (s *failedIndexSet) sorted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	indices := append([]int(nil), s.indices...)
	sort.Ints(indices)
	return indices
}

// runner drives the per-row pipelines of one created test run.
type runner struct {
	remote RemoteAPI
	run    *api.TestRun

	structure  DataStructure
	evaluators []Evaluator

	outputFn             OutputFunc
	promptVersionID      string
	promptChainVersionID string
	workflowID           string
	datasetID            string

	gate    *Gate
	logger  Logger
	metrics *engineMetrics
	failed  *failedIndexSet
}

// processIndexed runs the pipeline for one row of an indexed source. The
// gate is acquired before the row is even fetched and released on every
// exit path.
func (r *runner) processIndexed(ctx context.Context, source IndexedSource, index int) {
	if err := r.gate.Acquire(ctx); err != nil {
		r.recordFailure(index, err)
		return
	}
	defer r.gate.Release()
	row, datasetEntryID, err := source.Row(ctx, index)
	if err != nil {
		r.recordFailure(index, err)
		return
	}
	r.process(ctx, index, row, datasetEntryID)
}

// processPaged runs the pipeline for one row handed over by the paged data
// function.
func (r *runner) processPaged(ctx context.Context, index int, row Row) {
	if err := r.gate.Acquire(ctx); err != nil {
		r.recordFailure(index, err)
		return
	}
	defer r.gate.Release()
	r.process(ctx, index, row, "")
}

func (r *runner) process(ctx context.Context, index int, row Row, datasetEntryID string) {
	if err := r.pipeline(ctx, index, row, datasetEntryID); err != nil {
		r.recordFailure(index, err)
	}
}

// pipeline is the per-row sequence: field extraction, output production,
// local evaluation, push. Failures, including panics in caller-supplied
// functions, are returned and isolated by the caller; the batch is never
// aborted by one bad row.
func (r *runner) pipeline(ctx context.Context, index int, row Row, datasetEntryID string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("row pipeline panicked: %v", rec)
		}
	}()

	fields, err := r.structure.extractFields(row)
	if err != nil {
		return err
	}

	output, err := r.produceOutput(ctx, fields, row)
	if err != nil {
		return err
	}

	contextToEvaluate := fields.contextToEvaluate
	if len(output.ContextToEvaluate) > 0 {
		if len(contextToEvaluate) > 0 {
			r.logger.Info(fmt.Sprintf("Row %d: context returned by the output strategy overrides the context present in the row", index))
		}
		contextToEvaluate = output.ContextToEvaluate
	}

	results := runLocalEvaluators(ctx, r.evaluators, EvaluatorInput{
		Output:            output.Data,
		ContextToEvaluate: contextToEvaluate,
		Row:               row,
	})

	entry := &api.TestRunEntry{
		ID:                uuid.NewString(),
		Input:             fields.input,
		ExpectedOutput:    fields.expectedOutput,
		ContextToEvaluate: contextToEvaluate,
		Variables:         fields.variables,
		Output:            output.Data,
		EvaluationResults: results,
		Usage:             output.Usage,
		Cost:              output.Cost,
		DatasetID:         r.datasetID,
		DatasetEntryID:    datasetEntryID,
	}
	if err := r.remote.PushTestRunEntry(ctx, r.run, entry); err != nil {
		return runerrors.NewRemoteError(err, messages.RemoteCallFailed, "Operation", "push entry", "Error", err.Error())
	}
	r.metrics.entriesPushed.Inc()

	r.logger.Processed(fmt.Sprintf("Processed row %d", index), &ProcessedEntry{
		RowIndex:          index,
		Row:               row,
		Output:            output.Data,
		EvaluationResults: results,
	})
	r.metrics.rowsProcessed.Inc()
	return nil
}

func (r *runner) produceOutput(ctx context.Context, fields rowFields, row Row) (*Output, error) {
	switch {
	case r.outputFn != nil:
		output, err := r.outputFn(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("custom output function failed: %w", err)
		}
		if output == nil {
			return nil, fmt.Errorf("custom output function returned no output")
		}
		return output, nil
	case r.promptVersionID != "":
		resp, err := r.remote.ExecutePrompt(ctx, &api.ExecutePromptRequest{
			PromptVersionID: r.promptVersionID,
			Input:           fields.input,
			Variables:       fields.variables,
		})
		if err != nil {
			return nil, runerrors.NewRemoteError(err, messages.RemoteCallFailed, "Operation", "execute prompt", "Error", err.Error())
		}
		return agentOutput(resp), nil
	case r.promptChainVersionID != "":
		resp, err := r.remote.ExecutePromptChain(ctx, &api.ExecutePromptChainRequest{
			PromptChainVersionID: r.promptChainVersionID,
			Input:                fields.input,
			Variables:            fields.variables,
		})
		if err != nil {
			return nil, runerrors.NewRemoteError(err, messages.RemoteCallFailed, "Operation", "execute prompt chain", "Error", err.Error())
		}
		return agentOutput(resp), nil
	default:
		resp, err := r.remote.ExecuteWorkflow(ctx, &api.ExecuteWorkflowRequest{
			WorkflowID: r.workflowID,
			Input:      fields.input,
			Variables:  fields.variables,
		})
		if err != nil {
			return nil, runerrors.NewRemoteError(err, messages.RemoteCallFailed, "Operation", "execute workflow", "Error", err.Error())
		}
		return agentOutput(resp), nil
	}
}

func agentOutput(resp *api.AgentResponse) *Output {
	return &Output{
		Data:              resp.Output,
		ContextToEvaluate: resp.RetrievedContext,
		Usage:             resp.Usage,
		Cost:              resp.Cost,
	}
}

func (r *runner) recordFailure(index int, err error) {
	r.logger.Error(messages.GetErrorMessage(messages.RowProcessingFailed,
		"Index", index, "Error", runerrors.FormatChain(err)))
	r.failed.add(index)
	r.metrics.rowsFailed.Inc()
}
