package dterrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	plain := New(CodeTopologyUnreachable, "no path")
	assert.Equal(t, "[TOPOLOGY_UNREACHABLE] no path", plain.Error())

	withDetail := plain.WithDetail("src=3 dst=9")
	assert.Equal(t, "[TOPOLOGY_UNREACHABLE] no path (src=3 dst=9)", withDetail.Error())

	wrapped := Wrap(CodeIOError, "read failed", errors.New("disk full"))
	assert.Equal(t, "[IO_ERROR] read failed: disk full", wrapped.Error())

	wrappedWithDetail := wrapped.WithDetail("plan.json")
	assert.Equal(t, "[IO_ERROR] read failed (plan.json): disk full", wrappedWithDetail.Error())
}

func TestAppError_Is(t *testing.T) {
	a := New(CodePlanBatchMismatch, "mismatch")
	b := New(CodePlanBatchMismatch, "different message, same code")
	c := New(CodePlanEmpty, "empty")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	wrapped := Wrap(CodeProfileOutOfRange, "batch too large", inner)
	assert.Same(t, inner, errors.Unwrap(wrapped))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeSchedulerDoubleDispatch, GetErrorCode(New(CodeSchedulerDoubleDispatch, "x")))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain error")))
	assert.Equal(t, CodeUnknown, GetErrorCode(nil))
}
