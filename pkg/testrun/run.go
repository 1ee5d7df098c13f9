package testrun

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/benchline-ai/benchline-go/internal/messages"
	"github.com/benchline-ai/benchline-go/internal/runerrors"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

const runTypeSingle = "SINGLE"

var tracer = otel.Tracer("github.com/benchline-ai/benchline-go/pkg/testrun")

// Result is what Run returns on success: the hosted run's final result and
// the indices of rows that failed locally and were therefore never pushed.
// Together with the pushed rows the failed indices partition the row range.
type Result struct {
	TestRunResult      api.TestRunResult
	FailedEntryIndices []int
}

// Run consumes the configuration and drives the test run to completion:
// create the hosted run, fan rows out under the concurrency gate, mark the
// run processed, then poll until the hosted side reaches a terminal state.
//
// timeoutMinutes bounds the polling phase only; zero or negative selects
// DefaultTimeoutMinutes. In-flight row pipelines are never cancelled.
//
// Run either returns a Result with a (possibly empty) failed-index list, or
// a single error. Configuration errors surface before any remote call; any
// orchestration error after the run was created triggers a best-effort
// mark-failed call on the hosted run before it is returned.
func (b *Builder) Run(ctx context.Context, timeoutMinutes float64) (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.validateConfig(); err != nil {
		return nil, err
	}
	if timeoutMinutes <= 0 {
		timeoutMinutes = DefaultTimeoutMinutes
	}

	ctx, span := tracer.Start(ctx, "testrun.Run", trace.WithAttributes(
		attribute.String("testrun.name", b.name),
		attribute.String("testrun.workspace_id", b.workspaceID),
	))
	defer span.End()

	resolved, hasAIEvaluator, err := b.resolveNamedEvaluators(ctx)
	if err != nil {
		return nil, err
	}

	run, err := b.remote.CreateTestRun(ctx, &api.CreateTestRunRequest{
		Name:                  b.name,
		WorkspaceID:           b.workspaceID,
		RunType:               runTypeSingle,
		EvaluatorConfig:       evaluatorRefs(b.evaluators, resolved),
		RequiresLocalRun:      b.outputFn != nil || b.hasLocalEvaluators(),
		PromptVersionID:       b.promptVersionID,
		PromptChainVersionID:  b.promptChainVersionID,
		WorkflowID:            b.workflowID,
		HumanEvaluationConfig: b.humanReview,
		Tags:                  b.tags,
	})
	if err != nil {
		return nil, runerrors.NewRemoteError(err, messages.RemoteCallFailed,
			"Operation", "create test run", "Error", err.Error())
	}
	span.SetAttributes(attribute.String("testrun.id", run.ID))
	b.logger.Info(fmt.Sprintf("Test run %s created: %s", run.Name, run.Link))

	r := &runner{
		remote:               b.remote,
		run:                  run,
		structure:            b.structure,
		evaluators:           b.evaluators,
		outputFn:             b.outputFn,
		promptVersionID:      b.promptVersionID,
		promptChainVersionID: b.promptChainVersionID,
		workflowID:           b.workflowID,
		datasetID:            b.datasetID,
		gate:                 GateFor(gateKey(b.workspaceID, b.name, run.ID), int64(b.concurrency)),
		logger:               b.logger,
		metrics:              newEngineMetrics(b.registerer),
		failed:               &failedIndexSet{},
	}

	if err := b.dispatch(ctx, r); err != nil {
		return nil, b.failRun(ctx, run, err)
	}

	if err := b.remote.MarkTestRunProcessed(ctx, run); err != nil {
		return nil, b.failRun(ctx, run, runerrors.NewRemoteError(err, messages.RemoteCallFailed,
			"Operation", "mark processed", "Error", err.Error()))
	}

	result, err := r.pollUntilDone(ctx, timeoutMinutes, hasAIEvaluator)
	if err != nil {
		// The hosted run keeps whatever state it is in; timeout and
		// terminal-state errors carry its link for manual inspection.
		return nil, err
	}

	return &Result{
		TestRunResult:      *result,
		FailedEntryIndices: r.failed.sorted(),
	}, nil
}

// dispatch submits every row to the row processor. For indexed sources all
// rows are submitted at once and awaited together, bounded by the gate. For
// the paged function source pages are strictly sequential: page N+1 is not
// requested until every row of page N has finished.
func (b *Builder) dispatch(ctx context.Context, r *runner) error {
	if b.pagedSource != nil {
		return b.dispatchPaged(ctx, r)
	}

	source := b.buildIndexedSource()
	count, err := source.Count(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			r.processIndexed(ctx, source, index)
		}(i)
	}
	wg.Wait()
	return nil
}

func (b *Builder) dispatchPaged(ctx context.Context, r *runner) error {
	index := 0
	for page := 0; ; page++ {
		rows, err := b.pagedSource(ctx, page)
		if err != nil {
			return fmt.Errorf("data function failed on page %d: %w", page, err)
		}
		if rows == nil {
			return nil
		}

		if err := b.validatePage(rows); err != nil {
			// Skipped pages are logged and not retried; their rows consume
			// no indices since they are never dispatched.
			b.logger.Info(messages.GetErrorMessage(messages.PageSkipped,
				"Page", page, "Error", runerrors.FormatChain(err)))
			continue
		}

		var wg sync.WaitGroup
		for _, row := range rows {
			wg.Add(1)
			go func(index int, row Row) {
				defer wg.Done()
				r.processPaged(ctx, index, row)
			}(index, row)
			index++
		}
		wg.Wait()
	}
}

func (b *Builder) validatePage(rows []Row) error {
	if b.structure == nil {
		return nil
	}
	for _, row := range rows {
		if err := b.structure.validateRow(row); err != nil {
			return err
		}
	}
	return nil
}

// resolveNamedEvaluators looks up every platform evaluator by name before
// the run is created, and reports whether any of them is AI-backed (which
// slows the poller down).
func (b *Builder) resolveNamedEvaluators(ctx context.Context) (map[string]string, bool, error) {
	resolved := map[string]string{}
	hasAIEvaluator := false
	for _, evaluator := range b.evaluators {
		named, ok := evaluator.(NamedEvaluator)
		if !ok {
			continue
		}
		resource, err := b.remote.GetEvaluatorByName(ctx, named.Name)
		if err != nil {
			return nil, false, runerrors.NewRemoteError(err, messages.EvaluatorNotFound,
				"Name", named.Name, "Error", err.Error())
		}
		resolved[named.Name] = resource.ID
		if resource.Type == api.EvaluatorTypeAI {
			hasAIEvaluator = true
		}
	}
	return resolved, hasAIEvaluator, nil
}

// failRun marks the hosted run failed, best effort, and returns the
// original error.
func (b *Builder) failRun(ctx context.Context, run *api.TestRun, err error) error {
	if markErr := b.remote.MarkTestRunFailed(ctx, run); markErr != nil {
		b.logger.Error(fmt.Sprintf("Failed to mark test run %s failed: %v", run.ID, markErr))
	}
	return err
}
