package testrun

import (
	"context"
	"fmt"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// ErrScore is the score reported for an evaluator name whose evaluation
// function failed. It is a value, not an error: evaluator failures never
// abort a row.
const ErrScore = "Err"

// EntryCriterion is the pass/fail check applied to each entry's score.
type EntryCriterion struct {
	ScoreShouldBe string `json:"score_should_be"`
	Value         any    `json:"value"`
}

// OverallCriterion is the pass/fail check applied across the whole run.
type OverallCriterion struct {
	OverallShouldBe string  `json:"overall_should_be"`
	Value           float64 `json:"value"`
	For             string  `json:"for"`
}

// PassFailCriteria describes how a score is judged, per entry and per run.
type PassFailCriteria struct {
	OnEachEntry       *EntryCriterion   `json:"on_each_entry,omitempty"`
	ForTestrunOverall *OverallCriterion `json:"for_testrun_overall,omitempty"`
}

// EvaluatorInput carries what a local evaluation function receives: the
// produced output, the context to evaluate against, and the originating row.
type EvaluatorInput struct {
	Output            string
	ContextToEvaluate []string
	Row               Row
}

// EvaluationScore is one score produced by a local evaluation function.
// Score must be a number or a boolean.
type EvaluationScore struct {
	Score     any
	Reasoning string
}

type LocalEvaluatorFunc func(ctx context.Context, in EvaluatorInput) (EvaluationScore, error)

type CombinedEvaluatorFunc func(ctx context.Context, in EvaluatorInput) (map[string]EvaluationScore, error)

// Evaluator is the tagged union of the three evaluator kinds: resolved by
// name on the platform, a local function with one criterion, or a combined
// local function producing several named scores.
type Evaluator interface {
	// Names returns every score name this evaluator surfaces within the run.
	Names() []string
	isEvaluator()
}

// NamedEvaluator is resolved by name from the hosted platform and executed
// remotely.
type NamedEvaluator struct {
	Name string
}

// LocalEvaluator executes a caller-supplied scoring function client-side.
type LocalEvaluator struct {
	Name     string
	Criteria *PassFailCriteria
	Evaluate LocalEvaluatorFunc
}

// CombinedEvaluator executes one scoring function that produces a score for
// each declared name. Criteria maps each declared name to its criterion.
type CombinedEvaluator struct {
	ScoreNames []string
	Criteria   map[string]*PassFailCriteria
	Evaluate   CombinedEvaluatorFunc
}

func (e NamedEvaluator) Names() []string { return []string{e.Name} }
func (e NamedEvaluator) isEvaluator()    {}

func (e LocalEvaluator) Names() []string { return []string{e.Name} }
func (e LocalEvaluator) isEvaluator()    {}

func (e CombinedEvaluator) Names() []string { return e.ScoreNames }
func (e CombinedEvaluator) isEvaluator()    {}

// runLocalEvaluators runs every Local and Combined evaluator over one row's
// output, independently. It always returns exactly one result per configured
// local evaluator name: an evaluation function that returns an error or
// panics yields an ErrScore result for every name it would have produced.
func runLocalEvaluators(ctx context.Context, evaluators []Evaluator, in EvaluatorInput) []api.EvaluationResult {
	var results []api.EvaluationResult
	for _, evaluator := range evaluators {
		switch e := evaluator.(type) {
		case LocalEvaluator:
			results = append(results, runLocal(ctx, e, in))
		case CombinedEvaluator:
			results = append(results, runCombined(ctx, e, in)...)
		}
	}
	return results
}

func runLocal(ctx context.Context, e LocalEvaluator, in EvaluatorInput) (result api.EvaluationResult) {
	defer func() {
		if r := recover(); r != nil {
			result = errResult(e.Name, fmt.Sprintf("panic: %v", r), e.Criteria)
		}
	}()
	score, err := e.Evaluate(ctx, in)
	if err != nil {
		return errResult(e.Name, err.Error(), e.Criteria)
	}
	return api.EvaluationResult{
		Name:             e.Name,
		Score:            score.Score,
		Reasoning:        score.Reasoning,
		PassFailCriteria: e.Criteria,
	}
}

func runCombined(ctx context.Context, e CombinedEvaluator, in EvaluatorInput) []api.EvaluationResult {
	scores, err := callCombined(ctx, e, in)
	results := make([]api.EvaluationResult, 0, len(e.ScoreNames))
	for _, name := range e.ScoreNames {
		criteria := e.Criteria[name]
		if err != nil {
			results = append(results, errResult(name, err.Error(), criteria))
			continue
		}
		score, ok := scores[name]
		if !ok {
			results = append(results, errResult(name, fmt.Sprintf("evaluation function returned no score for %q", name), criteria))
			continue
		}
		results = append(results, api.EvaluationResult{
			Name:             name,
			Score:            score.Score,
			Reasoning:        score.Reasoning,
			PassFailCriteria: criteria,
		})
	}
	return results
}

func callCombined(ctx context.Context, e CombinedEvaluator, in EvaluatorInput) (scores map[string]EvaluationScore, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.Evaluate(ctx, in)
}

func errResult(name string, reason string, criteria *PassFailCriteria) api.EvaluationResult {
	return api.EvaluationResult{
		Name:             name,
		Score:            ErrScore,
		Reasoning:        fmt.Sprintf("evaluator failed: %s", reason),
		PassFailCriteria: criteria,
	}
}
