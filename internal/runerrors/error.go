package runerrors

import (
	"errors"
	"strings"

	"github.com/benchline-ai/benchline-go/internal/messages"
)

// Kind classifies an error raised by the test run engine. Row and evaluator
// failures are always recovered locally and therefore never carry a Kind.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindRemote
	KindTimeout
	KindTerminalState
)

// RunError is an error raised to the caller of a test run.
// Error() renders the templated message only; MessageCode() and
// MessageParams() allow the caller to localize it, and Unwrap() exposes the
// underlying cause for errors.Is/As and for FormatChain.
type RunError struct {
	kind          Kind
	messageCode   *messages.MessageCode
	messageParams []any
	cause         error
}

func (e *RunError) Error() string {
	return messages.GetErrorMessage(e.messageCode, e.messageParams...)
}

func (e *RunError) Kind() Kind {
	return e.kind
}

func (e *RunError) MessageCode() *messages.MessageCode {
	return e.messageCode
}

func (e *RunError) MessageParams() []any {
	return e.messageParams
}

func (e *RunError) Unwrap() error {
	return e.cause
}

func newError(kind Kind, cause error, messageCode *messages.MessageCode, messageParams ...any) *RunError {
	return &RunError{
		kind:          kind,
		messageCode:   messageCode,
		messageParams: messageParams,
		cause:         cause,
	}
}

// NewConfigurationError reports invalid configuration detected before any
// remote call is made.
func NewConfigurationError(messageCode *messages.MessageCode, messageParams ...any) *RunError {
	return newError(KindConfiguration, nil, messageCode, messageParams...)
}

// NewRemoteError wraps a failure of a hosted-platform call with the
// surrounding operation context.
func NewRemoteError(cause error, messageCode *messages.MessageCode, messageParams ...any) *RunError {
	return newError(KindRemote, cause, messageCode, messageParams...)
}

// NewTimeoutError reports that the completion poller exhausted its iteration
// budget. The message parameters must include the hosted-run link.
func NewTimeoutError(messageCode *messages.MessageCode, messageParams ...any) *RunError {
	return newError(KindTimeout, nil, messageCode, messageParams...)
}

// NewTerminalStateError reports that the hosted run finished as FAILED or
// STOPPED.
func NewTerminalStateError(messageCode *messages.MessageCode, messageParams ...any) *RunError {
	return newError(KindTerminalState, nil, messageCode, messageParams...)
}

// HasKind reports whether err or any error in its chain is a RunError of the
// given kind.
func HasKind(err error, kind Kind) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.kind == kind
	}
	return false
}

// FormatChain renders err together with every distinct cause below it. A
// cause whose text already appears in the accumulated message (the fmt %w
// convention) is not repeated.
func FormatChain(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		text := cause.Error()
		if text == "" || strings.Contains(msg, text) {
			continue
		}
		msg = msg + " caused by: " + text
	}
	return msg
}
