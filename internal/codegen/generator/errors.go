package generator

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is().
var (
	// ErrInput indicates the source is missing, unreadable or unparsable, or
	// the request itself is invalid.
	ErrInput = errors.New("input error")

	// ErrOutput indicates the destination could not be written.
	ErrOutput = errors.New("output error")

	// ErrTool indicates the generator backend failed on a readable source.
	ErrTool = errors.New("tool error")

	// ErrStale indicates a check found the destination out of date.
	ErrStale = errors.New("bindings are stale")
)

// InputError wraps ErrInput together with the underlying cause.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", ErrInput, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInput, e.Path, e.Err)
}

func (e *InputError) Unwrap() []error { return []error{ErrInput, e.Err} }

// OutputError wraps ErrOutput together with the underlying cause.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrOutput, e.Path, e.Err)
}

func (e *OutputError) Unwrap() []error { return []error{ErrOutput, e.Err} }

// ToolError wraps ErrTool. Stderr holds the trimmed diagnostic output of an
// external generator, if any.
type ToolError struct {
	Tool   string
	Err    error
	Stderr string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", ErrTool, e.Tool, e.Err)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() []error { return []error{ErrTool, e.Err} }
