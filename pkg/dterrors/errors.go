// Package dterrors defines the common error types surfaced by the simulator
// core (topology, plan, profile, scheduler) and its surrounding services.
package dterrors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown = "UNKNOWN_ERROR"

	// Topology errors: link references unknown element; pair unreachable
	// when a transfer is requested.
	CodeTopologyUnknownElement = "TOPOLOGY_UNKNOWN_ELEMENT"
	CodeTopologyUnreachable    = "TOPOLOGY_UNREACHABLE"

	// Plan errors: predecessor/successor batch mismatch; unknown layerId
	// in prevLayers; replica id out of range; empty plan.
	CodePlanBatchMismatch  = "PLAN_BATCH_MISMATCH"
	CodePlanUnknownLayer   = "PLAN_UNKNOWN_LAYER"
	CodePlanInvalidReplica = "PLAN_INVALID_REPLICA"
	CodePlanEmpty          = "PLAN_EMPTY"

	// Profile errors: layer not in profile; requested batch exceeds all
	// recorded datapoints; no datapoints for the layer.
	CodeProfileUnknownLayer = "PROFILE_UNKNOWN_LAYER"
	CodeProfileOutOfRange   = "PROFILE_OUT_OF_RANGE"
	CodeProfileNoDatapoints = "PROFILE_NO_DATAPOINTS"

	// Scheduler errors: task dispatched twice; predecessor count
	// underflow; transfer with zero or negative bytes; ready time
	// inconsistency on pop.
	CodeSchedulerDoubleDispatch   = "SCHEDULER_DOUBLE_DISPATCH"
	CodeSchedulerCountUnderflow   = "SCHEDULER_COUNT_UNDERFLOW"
	CodeSchedulerInvalidTransfer  = "SCHEDULER_INVALID_TRANSFER"
	CodeSchedulerReadyInconsistent = "SCHEDULER_READY_INCONSISTENT"

	// Loader / config / I/O errors surfaced by the wrapper around the core.
	CodeConfigError = "CONFIG_ERROR"
	CodeIOError     = "IO_ERROR"
	CodeParseError  = "PARSE_ERROR"
)

// AppError represents an application error with a code, message, and the
// offending identifier (task id, element handle, link id, layer id, ...).
type AppError struct {
	Code    string
	Message string
	Detail  string // offending identifier, human readable
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	switch {
	case e.Err != nil && e.Detail != "":
		return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Message, e.Detail, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, e.Detail)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// WithDetail returns a copy of the error annotated with an offending
// identifier (e.g. "layer 4", "link 12", "task compute/3/7").
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Wrap wraps an existing error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// GetErrorCode extracts the error code from an error, or CodeUnknown.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
