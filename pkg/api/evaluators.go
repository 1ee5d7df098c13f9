package api

// EvaluatorType classifies how the platform executes an evaluator.
type EvaluatorType string

const (
	EvaluatorTypeAI           EvaluatorType = "AI"
	EvaluatorTypeHuman        EvaluatorType = "Human"
	EvaluatorTypeProgrammatic EvaluatorType = "Programmatic"
	EvaluatorTypeAPI          EvaluatorType = "API"
)

// EvaluatorResource represents a platform evaluator resolved by name.
type EvaluatorResource struct {
	ID     string         `json:"id" validate:"required"`
	Name   string         `json:"name" validate:"required"`
	Type   EvaluatorType  `json:"type"`
	Config map[string]any `json:"config,omitempty"`
}
