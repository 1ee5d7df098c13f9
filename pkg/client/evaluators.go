package client

import (
	"context"
	"net/http"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// Evaluators API

// GetEvaluatorByName resolves a platform evaluator by its name.
func (c *Client) GetEvaluatorByName(ctx context.Context, name string) (*api.EvaluatorResource, error) {
	req := map[string]string{
		"name": name,
	}
	respBody, err := c.doRequest(ctx, http.MethodGet, endpointEvaluatorsGetByName, req)
	if err != nil {
		return nil, err
	}

	return unmarshalResponse[api.EvaluatorResource](ctx, c, respBody)
}
