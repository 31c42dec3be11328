package monitor

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported by monitors. Use errors.Is to classify a failure.
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrUnknownField     = errors.New("unknown field")
	ErrNoDataFound      = errors.New("no data found")
	ErrSamplingTool     = errors.New("sampling tool failure")
	ErrUnknownMonitor   = errors.New("unknown monitor")
)

// ParamError reports a recognized flag whose value could not be used.
type ParamError struct {
	Flag   string
	Value  string
	Reason string
}

func (e *ParamError) Error() string {
	msg := fmt.Sprintf("invalid parameter: --%s=%s", e.Flag, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ParamError) Is(target error) bool { return target == ErrInvalidParameter }

// FieldError reports a field name that is absent from a monitor's field registry.
type FieldError struct {
	Monitor string
	Field   string
}

func (e *FieldError) Error() string {
	if e.Monitor == "" {
		return fmt.Sprintf("unknown field %q", e.Field)
	}
	return fmt.Sprintf("%s: unknown field %q", e.Monitor, e.Field)
}

func (e *FieldError) Is(target error) bool { return target == ErrUnknownField }

// NoDataError reports that no line of the raw text matched the device filter.
type NoDataError struct {
	Filter string
	Detail string
}

func (e *NoDataError) Error() string {
	msg := fmt.Sprintf("fail to find data for %q", e.Filter)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoDataFound }

// SamplingError reports an external sampling tool that could not be started
// or exited with a non-zero status.
type SamplingError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SamplingError) Error() string {
	cmd := strings.TrimSpace(e.Tool + " " + strings.Join(e.Args, " "))
	msg := fmt.Sprintf("sampling tool %q failed", cmd)
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *SamplingError) Unwrap() error { return e.Err }

func (e *SamplingError) Is(target error) bool { return target == ErrSamplingTool }

// LookupError reports a (module, purpose) pair with no registered monitor.
type LookupError struct {
	Module  string
	Purpose string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no monitor registered for %s/%s", e.Module, e.Purpose)
}

func (e *LookupError) Is(target error) bool { return target == ErrUnknownMonitor }
