package splat

import (
	"fmt"
	"time"
)

// ValidationError reports a field value that could not be accepted at
// construction time, either because it failed exact-decimal parsing or
// because it falls outside the tool's documented range.
type ValidationError struct {
	Field  string
	Value  string
	Reason string // set for range/format violations
	Err    error  // set when a decimal parse failed
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TimeoutError reports that the splat process exceeded its wall-clock
// budget and was killed.
type TimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not complete within %v", e.Path, e.Timeout)
}

// ExecError reports a nonzero splat exit, with the captured process
// output attached for diagnosis.
type ExecError struct {
	Path     string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Path, e.ExitCode)
}

// ReportError reports that the three expected quantities could not be
// located in order in a splat report. Text carries the full decoded
// report verbatim; the report format is undocumented, so callers need
// the raw text for offline triage.
type ReportError struct {
	Text string
}

func (e *ReportError) Error() string {
	return "splat report is missing the expected path loss and field strength values"
}
