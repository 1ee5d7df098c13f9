package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/benchline-ai/benchline-go/internal/serialization"
)

// API endpoint constants
const (
	// Base API path
	apiBasePath = "/api/v1"

	// Base URLs for API sections
	testRunsBaseURL   = apiBasePath + "/test-runs"
	datasetsBaseURL   = apiBasePath + "/datasets"
	evaluatorsBaseURL = apiBasePath + "/evaluators"

	// Test run endpoints
	endpointTestRunsCreate          = testRunsBaseURL
	endpointTestRunEntriesFmt       = testRunsBaseURL + "/%s/entries"
	endpointTestRunMarkProcessedFmt = testRunsBaseURL + "/%s/mark-processed"
	endpointTestRunMarkFailedFmt    = testRunsBaseURL + "/%s/mark-failed"
	endpointTestRunStatusFmt        = testRunsBaseURL + "/%s/status"
	endpointTestRunResultFmt        = testRunsBaseURL + "/%s/result"

	// Dataset endpoints
	endpointDatasetTotalRowsFmt = datasetsBaseURL + "/%s/total-rows"
	endpointDatasetRowFmt       = datasetsBaseURL + "/%s/rows/%d"
	endpointDatasetStructureFmt = datasetsBaseURL + "/%s/structure"

	// Evaluator endpoints
	endpointEvaluatorsGetByName = evaluatorsBaseURL + "/get-by-name"

	// Output strategy endpoints
	endpointPromptsExecute      = apiBasePath + "/prompts/execute"
	endpointPromptChainsExecute = apiBasePath + "/prompt-chains/execute"
	endpointWorkflowsExecute    = apiBasePath + "/workflows/execute"
)

// Client represents a Benchline platform API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new platform client. Requests retry transient
// failures via retryablehttp and carry OpenTelemetry spans when the host
// application installed a tracer provider.
func NewClient(baseURL string, apiKey string) *Client {
	// Ensure baseURL doesn't end with a slash
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 4
	retryClient.Logger = nil
	httpClient := retryClient.StandardClient()
	httpClient.Timeout = 30 * time.Second
	httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if c == nil {
		return nil
	}
	return &Client{
		baseURL:    c.baseURL,
		apiKey:     c.apiKey,
		httpClient: httpClient,
		logger:     c.logger,
	}
}

func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if c == nil {
		return nil
	}
	return &Client{
		baseURL:    c.baseURL,
		apiKey:     c.apiKey,
		httpClient: c.httpClient,
		logger:     logger,
	}
}

func (c *Client) GetLogger() *slog.Logger {
	return c.logger
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// RunLink returns the hosted UI link for a test run id.
func (c *Client) RunLink(runID string) string {
	return fmt.Sprintf("%s/runs/%s", c.baseURL, runID)
}

// doRequest performs an HTTP request to the platform API
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	c.logger.Info("Platform request started", "method", method, "endpoint", endpoint)

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			c.logger.Info("Platform request errored", "method", method, "endpoint", endpoint, "stage", "failed to marshal request body", "error", err.Error())
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		c.logger.Info("Platform request errored", "method", method, "endpoint", endpoint, "stage", "failed to create request", "error", err.Error())
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Info("Platform request errored", "method", method, "endpoint", endpoint, "stage", "failed to execute request", "error", err.Error())
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Info("Platform request errored", "method", method, "endpoint", endpoint, "stage", "failed to read response body", "error", err.Error())
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		if apiErr.PlatformError != nil {
			c.logger.Info("Platform request failed", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "message_code", apiErr.PlatformError.MessageCode, "message", apiErr.PlatformError.Message)
		} else {
			c.logger.Info("Platform request failed", "method", method, "endpoint", endpoint, "status", apiErr.StatusCode, "response", apiErr.ResponseBody)
		}
		return nil, apiErr
	}

	c.logger.Info("Platform request successful", "method", method, "endpoint", endpoint, "status", resp.StatusCode)
	return respBody, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// unmarshalResponse unmarshals a JSON response body into a value of type T
// and validates it against its struct tags.
func unmarshalResponse[T any](ctx context.Context, c *Client, respBody []byte) (*T, error) {
	var response T
	if err := serialization.Unmarshal(ctx, validate, c.logger, respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &response, nil
}
