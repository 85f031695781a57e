package apierrors

import (
	"errors"
	"fmt"
	"runtime"
)

// Error is the fluent, chainable error type used at every AutoScorer
// boundary. It carries everything spec.md §7 requires of an error block:
// code, message, stage, structured details, and an optional logs path.
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Stage      Stage          `json:"stage"`
	Details    map[string]any `json:"details,omitempty"`
	LogsPath   string         `json:"logs_path,omitempty"`
	InnerError error          `json:"-"`
	Stack      string         `json:"-"`
}

// New creates an Error for the given taxonomy code, deriving its stage
// automatically from the code table.
func New(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Stage:   StageForCode(code),
		Stack:   captureStack(),
	}
}

// Newf is New with a formatted message.
func Newf(code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func captureStack() string {
	var pcs [16]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	out := ""
	for {
		frame, more := frames.Next()
		out += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return out
}

// WithCode overrides the code and re-derives the stage.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	e.Stage = StageForCode(code)
	return e
}

// WithMessage overrides the message.
func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

// WithMessagef overrides the message using a format string.
func (e *Error) WithMessagef(format string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithStage overrides the stage explicitly, for the rare case a code spans
// more than one stage in practice (e.g. a validation error surfaced while
// scoring against a stale workspace).
func (e *Error) WithStage(stage Stage) *Error {
	e.Stage = stage
	return e
}

// WithDetail sets a single entry in Details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges the given map into Details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithLogsPath records where relevant logs were captured.
func (e *Error) WithLogsPath(path string) *Error {
	e.LogsPath = path
	return e
}

// WithError wraps an inner error, used for %w-style chaining and for
// producing the message when none was set explicitly.
func (e *Error) WithError(err error) *Error {
	e.InnerError = err
	if e.Message == "" && err != nil {
		e.Message = err.Error()
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.InnerError != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.InnerError)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.InnerError
}

// As attempts to extract an *Error from a standard error, for the common
// case of a lower layer returning a plain error that some code along the
// chain wrapped with apierrors.New.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// FromError normalizes any error into an *Error, defaulting to
// CodeUnhandledError when it isn't already one of ours.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	return New(CodeUnhandledError, err.Error()).WithError(err)
}
