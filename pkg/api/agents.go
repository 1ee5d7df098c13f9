package api

// ExecutePromptRequest asks the platform to run a prompt version against one
// row's input and variables.
type ExecutePromptRequest struct {
	PromptVersionID string         `json:"prompt_version_id" validate:"required"`
	Input           string         `json:"input,omitempty"`
	Variables       map[string]any `json:"variables,omitempty"`
}

// ExecutePromptChainRequest asks the platform to run a prompt chain version.
type ExecutePromptChainRequest struct {
	PromptChainVersionID string         `json:"prompt_chain_version_id" validate:"required"`
	Input                string         `json:"input,omitempty"`
	Variables            map[string]any `json:"variables,omitempty"`
}

// ExecuteWorkflowRequest asks the platform to run a workflow.
type ExecuteWorkflowRequest struct {
	WorkflowID string         `json:"workflow_id" validate:"required"`
	Input      string         `json:"input,omitempty"`
	Variables  map[string]any `json:"variables,omitempty"`
}

// AgentResponse is the output of a platform-side output strategy (prompt,
// prompt chain or workflow execution).
type AgentResponse struct {
	Output           string   `json:"output"`
	RetrievedContext []string `json:"retrieved_context,omitempty"`
	Usage            *Usage   `json:"usage,omitempty"`
	Cost             *Cost    `json:"cost,omitempty"`
}
