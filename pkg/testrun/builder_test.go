package testrun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchline-ai/benchline-go/internal/runerrors"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

func TestBuilderCallsDoNotMutateReceiver(t *testing.T) {
	remote := &fakeRemote{}
	base := New(remote, "immutable", "ws-1").WithData(testRows())

	withEvaluator := base.WithEvaluators(LocalEvaluator{
		Name:     "e1",
		Evaluate: func(ctx context.Context, in EvaluatorInput) (EvaluationScore, error) { return EvaluationScore{}, nil },
	})
	withConcurrency := base.WithConcurrency(3)

	assert.Empty(t, base.evaluators)
	assert.Equal(t, defaultConcurrency, base.concurrency)
	assert.Len(t, withEvaluator.evaluators, 1)
	assert.Equal(t, 3, withConcurrency.concurrency)
	assert.Equal(t, defaultConcurrency, withEvaluator.concurrency)
}

func TestBuilderFirstErrorSticks(t *testing.T) {
	remote := &fakeRemote{}
	b := New(remote, "sticky", "ws-1").
		WithConcurrency(0).
		WithData(testRows()).
		WithWorkflowID("wf-1")

	_, err := b.Run(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, runerrors.HasKind(err, runerrors.KindConfiguration))
	assert.Contains(t, err.Error(), "0")
	assert.Empty(t, remote.createdRuns)
}

func TestBuilderLastDataSourceWins(t *testing.T) {
	remote := &fakeRemote{}
	b := New(remote, "last-wins", "ws-1").
		WithData(testRows()).
		WithDatasetID("ds-1").
		WithDataFile("/tmp/rows.csv")

	assert.Nil(t, b.rows)
	assert.Empty(t, b.datasetID)
	assert.Equal(t, "/tmp/rows.csv", b.dataFile)
}

func TestBuilderRejectsDuplicateEvaluatorNames(t *testing.T) {
	remote := &fakeRemote{}
	b := New(remote, "dupes", "ws-1").WithEvaluators(
		LocalEvaluator{Name: "quality"},
		CombinedEvaluator{ScoreNames: []string{"quality", "speed"}},
	)
	require.Error(t, b.err)
	assert.Contains(t, b.err.Error(), "quality")
}

func TestBuilderRequiresExactlyOneOutputStrategy(t *testing.T) {
	remote := &fakeRemote{}

	t.Run("none", func(t *testing.T) {
		_, err := New(remote, "none", "ws-1").WithData(testRows()).Run(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, runerrors.HasKind(err, runerrors.KindConfiguration))
	})

	t.Run("two", func(t *testing.T) {
		_, err := New(remote, "two", "ws-1").
			WithData(testRows()).
			WithWorkflowID("wf-1").
			WithPromptVersionID("pv-1").
			Run(context.Background(), 1)
		require.Error(t, err)
		assert.True(t, runerrors.HasKind(err, runerrors.KindConfiguration))
	})
}

func TestBuilderRequiresDataSource(t *testing.T) {
	remote := &fakeRemote{}
	_, err := New(remote, "sourceless", "ws-1").
		WithWorkflowID("wf-1").
		Run(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, runerrors.HasKind(err, runerrors.KindConfiguration))
	assert.Empty(t, remote.createdRuns)
}

func TestBuilderValidatesRowsAgainstStructureEagerly(t *testing.T) {
	remote := &fakeRemote{}
	b := New(remote, "eager", "ws-1").
		WithDataStructure(testStructure()).
		WithData([]Row{{"question": 12}})
	require.Error(t, b.err)

	// Order of calls does not matter.
	b = New(remote, "eager-reversed", "ws-1").
		WithData([]Row{{"question": 12}}).
		WithDataStructure(testStructure())
	require.Error(t, b.err)
}

func TestBuilderRejectsInvalidReviewerEmail(t *testing.T) {
	remote := &fakeRemote{}
	b := New(remote, "review", "ws-1").WithHumanEvaluation(&api.HumanEvaluationConfig{
		Emails: []string{"not-an-email"},
	})
	require.Error(t, b.err)
	assert.Contains(t, b.err.Error(), "not-an-email")

	b = New(remote, "review-ok", "ws-1").WithHumanEvaluation(&api.HumanEvaluationConfig{
		Emails:       []string{"reviewer@example.com"},
		Instructions: "check tone",
	})
	assert.NoError(t, b.err)
}

func TestBuilderRejectsMissingConstructorArguments(t *testing.T) {
	assert.Error(t, New(nil, "x", "ws").err)
	assert.Error(t, New(&fakeRemote{}, "", "ws").err)
	assert.Error(t, New(&fakeRemote{}, "x", "").err)
}

func TestEvaluatorRefsCarriesResolvedIDs(t *testing.T) {
	refs := evaluatorRefs([]Evaluator{
		NamedEvaluator{Name: "hosted"},
		LocalEvaluator{Name: "local"},
		CombinedEvaluator{ScoreNames: []string{"c1", "c2"}},
	}, map[string]string{"hosted": "eval-1"})

	require.Len(t, refs, 4)
	assert.Equal(t, api.EvaluatorRef{ID: "eval-1", Name: "hosted"}, refs[0])
	assert.Equal(t, api.EvaluatorRef{Name: "local"}, refs[1])
	assert.Equal(t, api.EvaluatorRef{Name: "c1"}, refs[2])
	assert.Equal(t, api.EvaluatorRef{Name: "c2"}, refs[3])
}
