package client

import (
	"encoding/json"
	"fmt"

	"github.com/benchline-ai/benchline-go/pkg/api"
)

// APIError represents a non-2xx response from the platform API. When the
// body parses as a platform error envelope it is carried in PlatformError.
type APIError struct {
	StatusCode    int
	ResponseBody  string
	PlatformError *api.Error
}

func (e *APIError) Error() string {
	if e.PlatformError != nil {
		return fmt.Sprintf("platform API error (status %d, code %s): %s", e.StatusCode, e.PlatformError.MessageCode, e.PlatformError.Message)
	}
	return fmt.Sprintf("platform API error (status %d): %s", e.StatusCode, e.ResponseBody)
}

func newAPIError(statusCode int, respBody []byte) *APIError {
	platformError := api.Error{}
	if err := json.Unmarshal(respBody, &platformError); err == nil && platformError.Message != "" {
		return &APIError{
			StatusCode:    statusCode,
			ResponseBody:  string(respBody),
			PlatformError: &platformError,
		}
	}
	return &APIError{
		StatusCode:   statusCode,
		ResponseBody: string(respBody),
	}
}
