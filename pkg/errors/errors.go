// Package errors provides the unified error type and factory functions for
// logkpredict.  Every pipeline stage (parsing, normalization, descriptors,
// feature assembly, engine invocation) returns either a value or an *AppError
// whose Code identifies exactly one kind of the error taxonomy, so callers can
// branch on the kind without string matching.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		// Trim standard-library noise to keep traces readable.
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout logkpredict.
// It satisfies the standard error interface and supports errors.Is / errors.As
// / errors.Unwrap across package boundaries.
//
// Usage:
//
//	return errors.New(errors.CodeInvalidInput, "input record has fewer than 3 lines")
//	return errors.Wrap(err, errors.CodeMolecularProcessing, "failed to set dative bonds")
type AppError struct {
	// Code is the typed error code that uniquely identifies the failure kind.
	Code ErrorCode

	// Message is the primary human-readable description of the error.
	Message string

	// Detail carries supplementary context (file path, stage name, ...).
	Detail string

	// Cause is the underlying error that triggered this AppError.  Its message
	// is preserved in Error() so that library failures are never lost when
	// re-wrapped at a stage boundary.
	Cause error

	// Stack contains the call stack captured at the point of creation.  It is
	// not part of Error() output.
	Stack string
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>: <cause>"; empty segments are omitted.
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code.String(), e.Message)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Kind returns the taxonomy kind of the error code.
func (e *AppError) Kind() Kind {
	return e.Code.Kind()
}

// WithDetail returns a shallow copy of the receiver with Detail set.  It is
// safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with fmt.Sprintf formatting of the message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil so it can be used inline.
//
// When err is already an *AppError and code is CodeUnknown the original code
// is preserved, so adding context never loses the original classification.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError found in err's chain.
// CodeOK is returned for a nil error, CodeUnknown when no *AppError is present.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// KindOf returns the taxonomy kind of the outermost *AppError in err's chain.
func KindOf(err error) Kind {
	return GetCode(err).Kind()
}

// IsEnvironment reports whether err is an EnvironmentError.
func IsEnvironment(err error) bool { return IsCode(err, CodeEnvironment) }

// IsModelNotFound reports whether err is a ModelNotFound error.
func IsModelNotFound(err error) bool { return IsCode(err, CodeModelNotFound) }

// IsInvalidInput reports whether err is an InvalidInput error.
func IsInvalidInput(err error) bool { return IsCode(err, CodeInvalidInput) }

// IsMolecularProcessing reports whether err is a MolecularProcessingError.
func IsMolecularProcessing(err error) bool { return IsCode(err, CodeMolecularProcessing) }

// IsPredictionEngine reports whether err is a PredictionEngineError.
func IsPredictionEngine(err error) bool { return IsCode(err, CodePredictionEngine) }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return IsCode(err, CodeConfiguration) }

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factories for the outer surfaces
// ─────────────────────────────────────────────────────────────────────────────

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Stack: captureStack(1)}
}

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message, Stack: captureStack(1)}
}

// Internal constructs a CodeInternal AppError.
func Internal(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Stack: captureStack(1)}
}
