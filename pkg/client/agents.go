package client

import (
	"context"
	"net/http"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// Output strategy execution API

// ExecutePrompt runs a prompt version on the platform for one row.
func (c *Client) ExecutePrompt(ctx context.Context, req *api.ExecutePromptRequest) (*api.AgentResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, endpointPromptsExecute, req)
	if err != nil {
		return nil, err
	}

	return unmarshalResponse[api.AgentResponse](ctx, c, respBody)
}

// ExecutePromptChain runs a prompt chain version on the platform for one row.
func (c *Client) ExecutePromptChain(ctx context.Context, req *api.ExecutePromptChainRequest) (*api.AgentResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, endpointPromptChainsExecute, req)
	if err != nil {
		return nil, err
	}

	return unmarshalResponse[api.AgentResponse](ctx, c, respBody)
}

// ExecuteWorkflow runs a workflow on the platform for one row.
func (c *Client) ExecuteWorkflow(ctx context.Context, req *api.ExecuteWorkflowRequest) (*api.AgentResponse, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, endpointWorkflowsExecute, req)
	if err != nil {
		return nil, err
	}

	return unmarshalResponse[api.AgentResponse](ctx, c, respBody)
}
