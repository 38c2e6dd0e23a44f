package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/typepaste/pkg/types"
)

// Error codes for MCP tool responses. Pipeline failures keep the code of
// the underlying *types.Error.
const (
	ErrCodeInvalidInput = types.CodeInvalidInput
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeCancelled    = "CANCELLED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapPipelineError converts a generation failure to a coded error. Input
// problems are logged at warn level, anything else at error level.
func WrapPipelineError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	var pipeErr *types.Error
	switch {
	case errors.As(err, &coded):
		return coded
	case errors.As(err, &pipeErr):
		coded = &CodedError{Code: pipeErr.Code, Message: pipelineMessage(pipeErr), Cause: pipeErr.Cause}
	case errors.Is(err, context.DeadlineExceeded):
		coded = &CodedError{Code: ErrCodeTimeout, Message: "generation timed out", Cause: err}
	case errors.Is(err, context.Canceled):
		coded = &CodedError{Code: ErrCodeCancelled, Message: "generation cancelled", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeInternal, Message: err.Error(), Cause: err}
	}

	level := slog.LevelWarn
	if (pipeErr != nil && !pipeErr.Recoverable()) || coded.Code == ErrCodeInternal {
		level = slog.LevelError
	}
	slog.Log(context.Background(), level, "generation failed",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)
	return coded
}

// pipelineMessage is e's message with its location, minus the code and
// cause, which CodedError prints itself.
func pipelineMessage(e *types.Error) string {
	c := *e
	c.Cause = nil
	msg := c.Error()
	return msg[len(c.Code)+2:]
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}
