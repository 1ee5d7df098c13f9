package testrun

import (
	"context"
	"maps"

	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/benchline-ai/benchline-go/internal/messages"
	"github.com/benchline-ai/benchline-go/internal/runerrors"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

const (
	// DefaultTimeoutMinutes bounds the completion poller when the caller
	// passes no timeout.
	DefaultTimeoutMinutes = 15

	defaultConcurrency = 10
)

// Output is what an output strategy produces for one row. A non-empty
// ContextToEvaluate overrides a context value already present in the row.
type Output struct {
	Data              string
	ContextToEvaluate []string
	Usage             *api.Usage
	Cost              *api.Cost
}

// OutputFunc is a caller-supplied output strategy executed client-side.
type OutputFunc func(ctx context.Context, row Row) (*Output, error)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Builder accumulates a test run configuration through chained calls. Every
// call returns a new copy, so partially-built configurations can be shared
// and forked safely; the original is never mutated. Each call validates
// eagerly and records the first configuration error, which Run returns
// before any remote call is made.
type Builder struct {
	remote      RemoteAPI
	name        string
	workspaceID string
	concurrency int

	structure   DataStructure
	rows        []Row
	dataFile    string
	datasetID   string
	pagedSource PagedDataFunc

	evaluators []Evaluator

	outputFn             OutputFunc
	promptVersionID      string
	promptChainVersionID string
	workflowID           string

	humanReview *api.HumanEvaluationConfig
	logger      Logger
	tags        []string
	registerer  prometheus.Registerer

	err error
}

// New starts a test run configuration against the given platform client.
func New(remote RemoteAPI, name string, workspaceID string) *Builder {
	b := &Builder{
		remote:      remote,
		name:        name,
		workspaceID: workspaceID,
		concurrency: defaultConcurrency,
		logger:      defaultLogger(),
	}
	switch {
	case remote == nil:
		b.err = runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a platform client is required")
	case name == "":
		b.err = runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a test run name is required")
	case workspaceID == "":
		b.err = runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a workspace id is required")
	}
	return b
}

func (b *Builder) clone() *Builder {
	copied := *b
	copied.rows = append([]Row(nil), b.rows...)
	copied.evaluators = append([]Evaluator(nil), b.evaluators...)
	copied.tags = append([]string(nil), b.tags...)
	if b.structure != nil {
		copied.structure = maps.Clone(b.structure)
	}
	return &copied
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// clearDataSource implements last-call-wins for the four data source kinds.
func (b *Builder) clearDataSource() {
	b.rows = nil
	b.dataFile = ""
	b.datasetID = ""
	b.pagedSource = nil
}

// WithDataStructure declares the column-role map for the run's rows. At most
// one column may carry each of the INPUT, EXPECTED_OUTPUT and
// CONTEXT_TO_EVALUATE roles.
func (b *Builder) WithDataStructure(structure DataStructure) *Builder {
	c := b.clone()
	c.structure = maps.Clone(structure)
	if err := c.structure.validate(); err != nil {
		return c.fail(err)
	}
	for _, row := range c.rows {
		if err := c.structure.validateRow(row); err != nil {
			return c.fail(err)
		}
	}
	return c
}

// WithData uses an in-memory row list as the data source.
func (b *Builder) WithData(rows []Row) *Builder {
	c := b.clone()
	c.clearDataSource()
	c.rows = append([]Row(nil), rows...)
	if c.structure != nil {
		for _, row := range c.rows {
			if err := c.structure.validateRow(row); err != nil {
				return c.fail(err)
			}
		}
	}
	return c
}

// WithDataFile uses a tabular file as the data source. The file's header is
// validated against the declared structure before the first row is served.
func (b *Builder) WithDataFile(path string) *Builder {
	c := b.clone()
	c.clearDataSource()
	c.dataFile = path
	if path == "" {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a data file path is required"))
	}
	return c
}

// WithDatasetID uses a hosted dataset as the data source. Rows are fetched
// by index; the remote structure is validated against the declared one.
func (b *Builder) WithDatasetID(datasetID string) *Builder {
	c := b.clone()
	c.clearDataSource()
	c.datasetID = datasetID
	if datasetID == "" {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a dataset id is required"))
	}
	return c
}

// WithDataFunc uses a paged data function as the data source. See
// PagedDataFunc for the sequencing contract.
func (b *Builder) WithDataFunc(fn PagedDataFunc) *Builder {
	c := b.clone()
	c.clearDataSource()
	c.pagedSource = fn
	if fn == nil {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a data function is required"))
	}
	return c
}

// WithEvaluators appends evaluators to the run. Every evaluator name,
// including the names a combined evaluator declares, must be unique within
// the run.
func (b *Builder) WithEvaluators(evaluators ...Evaluator) *Builder {
	c := b.clone()
	c.evaluators = append(c.evaluators, evaluators...)
	seen := map[string]bool{}
	for _, evaluator := range c.evaluators {
		for _, name := range evaluator.Names() {
			if name == "" {
				return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "an evaluator name is empty"))
			}
			if seen[name] {
				return c.fail(runerrors.NewConfigurationError(messages.DuplicateEvaluatorName, "Name", name))
			}
			seen[name] = true
		}
	}
	return c
}

// WithCustomOutputFunction sets a client-side output strategy.
func (b *Builder) WithCustomOutputFunction(fn OutputFunc) *Builder {
	c := b.clone()
	c.outputFn = fn
	if fn == nil {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a custom output function is required"))
	}
	return c
}

// WithPromptVersionID sets a platform prompt version as the output strategy.
func (b *Builder) WithPromptVersionID(id string) *Builder {
	c := b.clone()
	c.promptVersionID = id
	if id == "" {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a prompt version id is required"))
	}
	return c
}

// WithPromptChainVersionID sets a platform prompt chain version as the
// output strategy.
func (b *Builder) WithPromptChainVersionID(id string) *Builder {
	c := b.clone()
	c.promptChainVersionID = id
	if id == "" {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a prompt chain version id is required"))
	}
	return c
}

// WithWorkflowID sets a platform workflow as the output strategy.
func (b *Builder) WithWorkflowID(id string) *Builder {
	c := b.clone()
	c.workflowID = id
	if id == "" {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a workflow id is required"))
	}
	return c
}

// WithConcurrency bounds the number of row pipelines in flight. The default
// is 10; the minimum is 1.
func (b *Builder) WithConcurrency(n int) *Builder {
	c := b.clone()
	c.concurrency = n
	if n < 1 {
		return c.fail(runerrors.NewConfigurationError(messages.InvalidConcurrency, "Value", n))
	}
	return c
}

// WithHumanEvaluation requests a human-review pass. Reviewer emails are
// validated immediately.
func (b *Builder) WithHumanEvaluation(cfg *api.HumanEvaluationConfig) *Builder {
	c := b.clone()
	c.humanReview = cfg
	if cfg == nil {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a human evaluation config is required"))
	}
	for _, email := range cfg.Emails {
		if err := validate.Var(email, "required,email"); err != nil {
			return c.fail(runerrors.NewConfigurationError(messages.InvalidReviewerEmail, "Email", email))
		}
	}
	if err := validate.Struct(cfg); err != nil {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", err.Error()))
	}
	return c
}

// WithLogger replaces the default run logger.
func (b *Builder) WithLogger(logger Logger) *Builder {
	c := b.clone()
	c.logger = logger
	if logger == nil {
		return c.fail(runerrors.NewConfigurationError(messages.ConfigurationInvalid, "Error", "a logger is required"))
	}
	return c
}

// WithTags attaches free-form tags forwarded on create.
func (b *Builder) WithTags(tags ...string) *Builder {
	c := b.clone()
	c.tags = append(c.tags, tags...)
	return c
}

// WithMetricsRegisterer registers the engine's Prometheus counters with the
// given registerer. Counters use fixed names: registering two runs against
// one registerer requires wrapping it, e.g. with
// prometheus.WrapRegistererWith. A nil registerer (the default) leaves the
// counters unregistered.
func (b *Builder) WithMetricsRegisterer(registerer prometheus.Registerer) *Builder {
	c := b.clone()
	c.registerer = registerer
	return c
}

// validateConfig runs the cross-field checks that cannot be done eagerly on
// a single With call.
func (b *Builder) validateConfig() error {
	strategies := 0
	if b.outputFn != nil {
		strategies++
	}
	if b.promptVersionID != "" {
		strategies++
	}
	if b.promptChainVersionID != "" {
		strategies++
	}
	if b.workflowID != "" {
		strategies++
	}
	if strategies == 0 {
		return runerrors.NewConfigurationError(messages.MissingOutputStrategy, "Name", b.name)
	}
	if strategies > 1 {
		return runerrors.NewConfigurationError(messages.MultipleOutputStrategies, "Name", b.name)
	}
	if b.rows == nil && b.dataFile == "" && b.datasetID == "" && b.pagedSource == nil {
		return runerrors.NewConfigurationError(messages.MissingDataSource, "Name", b.name)
	}
	return nil
}

func (b *Builder) hasLocalEvaluators() bool {
	for _, evaluator := range b.evaluators {
		switch evaluator.(type) {
		case LocalEvaluator, CombinedEvaluator:
			return true
		}
	}
	return false
}

func (b *Builder) buildIndexedSource() IndexedSource {
	switch {
	case b.datasetID != "":
		return newRemoteSource(b.remote, b.datasetID, b.structure)
	case b.dataFile != "":
		return newFileSource(b.dataFile, b.structure)
	default:
		return newSliceSource(b.rows)
	}
}

// evaluatorRefs lists every evaluator name for the create call; platform
// evaluators carry the resolved id.
func evaluatorRefs(evaluators []Evaluator, resolved map[string]string) []api.EvaluatorRef {
	var refs []api.EvaluatorRef
	for _, evaluator := range evaluators {
		for _, name := range evaluator.Names() {
			refs = append(refs, api.EvaluatorRef{ID: resolved[name], Name: name})
		}
	}
	return refs
}
