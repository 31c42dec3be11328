// Package sampler runs external sampling tools such as sar and returns their
// standard output as text.
package sampler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

// IntervalPlaceholder is replaced by the sampling interval in argument templates.
const IntervalPlaceholder = "{interval}"

// Runner executes a command once and returns its standard output.
type Runner interface {
	Run(ctx context.Context, tool string, args []string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run starts tool, waits for it to exit and returns stdout. A missing tool or
// a non-zero exit status is reported as a *monitor.SamplingError that carries
// the exit code and trimmed stderr. When ctx ended the run, the error wraps
// ctx.Err() instead of the kill signal.
func (ExecRunner) Run(ctx context.Context, tool string, args []string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		serr := &monitor.SamplingError{
			Tool:   tool,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			serr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			serr.Err = ctxErr
		}
		return "", serr
	}
	return stdout.String(), nil
}

// Command is a tool plus an argument template.
type Command struct {
	Tool string
	Args []string
}

// Expand substitutes the interval into every argument.
func (c Command) Expand(interval int) []string {
	value := strconv.Itoa(interval)
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, IntervalPlaceholder, value)
	}
	return args
}

// Sampler invokes one Command through a Runner.
type Sampler struct {
	cmd    Command
	runner Runner
}

// New creates a sampler. A nil runner uses ExecRunner.
func New(cmd Command, runner Runner) *Sampler {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Sampler{cmd: cmd, runner: runner}
}

// Sample runs the command once with the given interval.
func (s *Sampler) Sample(ctx context.Context, interval int) (string, error) {
	return s.runner.Run(ctx, s.cmd.Tool, s.cmd.Expand(interval))
}
