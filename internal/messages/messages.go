package messages

import (
	"fmt"
	"net/http"
	"strings"
)

// This package provides all the error messages that the SDK reports to the
// caller. Note that we add a comment with the message parameters so that it
// is possible to see the parameters in the IDE when creating an error
// message.
var (
	// Configuration errors raised by the builder before any remote call.

	// ConfigurationInvalid The test run configuration is invalid: '{{.Error}}'.
	ConfigurationInvalid = createMessage(
		http.StatusBadRequest,
		"The test run configuration is invalid: '{{.Error}}'.",
	)

	// MissingOutputStrategy The test run '{{.Name}}' has no output strategy; set exactly one of a custom output function, a prompt version, a prompt chain version or a workflow.
	MissingOutputStrategy = createMessage(
		http.StatusBadRequest,
		"The test run '{{.Name}}' has no output strategy; set exactly one of a custom output function, a prompt version, a prompt chain version or a workflow.",
	)

	// MultipleOutputStrategies The test run '{{.Name}}' has more than one output strategy; exactly one of a custom output function, a prompt version, a prompt chain version or a workflow is allowed.
	MultipleOutputStrategies = createMessage(
		http.StatusBadRequest,
		"The test run '{{.Name}}' has more than one output strategy; exactly one of a custom output function, a prompt version, a prompt chain version or a workflow is allowed.",
	)

	// DuplicateEvaluatorName The evaluator name '{{.Name}}' is declared more than once within the run.
	DuplicateEvaluatorName = createMessage(
		http.StatusBadRequest,
		"The evaluator name '{{.Name}}' is declared more than once within the run.",
	)

	// InvalidReviewerEmail The human review config contains an invalid email address: '{{.Email}}'.
	InvalidReviewerEmail = createMessage(
		http.StatusBadRequest,
		"The human review config contains an invalid email address: '{{.Email}}'.",
	)

	// SchemaRoleConflict The data structure declares more than one column with role {{.Role}}: '{{.Columns}}'.
	SchemaRoleConflict = createMessage(
		http.StatusBadRequest,
		"The data structure declares more than one column with role {{.Role}}: '{{.Columns}}'.",
	)

	// SchemaColumnMissing The column '{{.Column}}' declared in the data structure is missing from the {{.Source}} source.
	SchemaColumnMissing = createMessage(
		http.StatusBadRequest,
		"The column '{{.Column}}' declared in the data structure is missing from the {{.Source}} source.",
	)

	// DataValueTypeMismatch The value of column '{{.Column}}' must be a {{.Expected}}, got {{.Got}}.
	DataValueTypeMismatch = createMessage(
		http.StatusBadRequest,
		"The value of column '{{.Column}}' must be a {{.Expected}}, got {{.Got}}.",
	)

	// InvalidConcurrency The concurrency must be at least 1, got {{.Value}}.
	InvalidConcurrency = createMessage(
		http.StatusBadRequest,
		"The concurrency must be at least 1, got {{.Value}}.",
	)

	// MissingDataSource The test run '{{.Name}}' has no data source.
	MissingDataSource = createMessage(
		http.StatusBadRequest,
		"The test run '{{.Name}}' has no data source.",
	)

	// Remote errors from the hosted platform.

	// RemoteCallFailed The {{.Operation}} call to the hosted platform failed: '{{.Error}}'.
	RemoteCallFailed = createMessage(
		http.StatusBadGateway,
		"The {{.Operation}} call to the hosted platform failed: '{{.Error}}'.",
	)

	// EvaluatorNotFound The evaluator '{{.Name}}' could not be resolved on the hosted platform: '{{.Error}}'.
	EvaluatorNotFound = createMessage(
		http.StatusNotFound,
		"The evaluator '{{.Name}}' could not be resolved on the hosted platform: '{{.Error}}'.",
	)

	// Poller outcomes.

	// RunTimedOut The test run did not reach a terminal state within {{.Minutes}} minutes; inspect it at {{.Link}}.
	RunTimedOut = createMessage(
		http.StatusGatewayTimeout,
		"The test run did not reach a terminal state within {{.Minutes}} minutes; inspect it at {{.Link}}.",
	)

	// RunTerminated The test run finished with status {{.Status}}; inspect it at {{.Link}}.
	RunTerminated = createMessage(
		http.StatusConflict,
		"The test run finished with status {{.Status}}; inspect it at {{.Link}}.",
	)

	// Row pipeline messages (logged, never raised).

	// RowProcessingFailed Processing of row {{.Index}} failed: {{.Error}}.
	RowProcessingFailed = createMessage(
		http.StatusInternalServerError,
		"Processing of row {{.Index}} failed: {{.Error}}.",
	)

	// PageSkipped Page {{.Page}} from the data function failed validation and was skipped: '{{.Error}}'.
	PageSkipped = createMessage(
		http.StatusBadRequest,
		"Page {{.Page}} from the data function failed validation and was skipped: '{{.Error}}'.",
	)
)

type MessageCode struct {
	status int
	one    string
}

func (m *MessageCode) GetCode() int {
	return m.status
}

func (m *MessageCode) GetMessage() string {
	return m.one
}

func createMessage(status int, one string) *MessageCode {
	return &MessageCode{
		status,
		one,
	}
}

func GetErrorMessage(messageCode *MessageCode, messageParams ...any) string {
	msg := messageCode.GetMessage()
	for i := 0; i < len(messageParams); i += 2 {
		param := messageParams[i]
		var paramValue any
		if i+1 < len(messageParams) {
			paramValue = messageParams[i+1]
		} else {
			paramValue = "NOT_DEFINED" // this is a placeholder for a missing parameter value - if you see this value then the code needs to be fixed
		}
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{{.%v}}", param), fmt.Sprintf("%v", paramValue))
	}
	return msg
}
