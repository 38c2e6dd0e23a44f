package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/types"
)

func TestWrapPipelineError(t *testing.T) {
	assert.NoError(t, WrapPipelineError(nil))

	cause := errors.New("unexpected EOF")
	err := WrapPipelineError(fmt.Errorf("wrapped: %w",
		types.Errorf(types.CodeParse, "invalid JSON").WithSample("User").WithPosition(1, 7).WithCause(cause)))
	var coded *CodedError
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, types.CodeParse, coded.Code)
	assert.Equal(t, `sample "User": line 1, column 7: invalid JSON`, coded.Message)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `PARSE_ERROR: sample "User": line 1, column 7: invalid JSON: unexpected EOF`, err.Error())
}

func TestWrapPipelineError_Context(t *testing.T) {
	var coded *CodedError
	require.ErrorAs(t, WrapPipelineError(context.Canceled), &coded)
	assert.Equal(t, ErrCodeCancelled, coded.Code)

	require.ErrorAs(t, WrapPipelineError(context.DeadlineExceeded), &coded)
	assert.Equal(t, ErrCodeTimeout, coded.Code)

	require.ErrorAs(t, WrapPipelineError(errors.New("boom")), &coded)
	assert.Equal(t, ErrCodeInternal, coded.Code)
}

func TestWrapPipelineError_KeepsCodedErrors(t *testing.T) {
	in := ErrInvalidInput("samples is required")
	assert.Same(t, in, WrapPipelineError(in))
}
