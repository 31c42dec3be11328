package sampler

import (
	"context"
	"errors"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

func TestCommand_Expand(t *testing.T) {
	cmd := Command{Tool: "sar", Args: []string{"-n", "EDEV", "{interval}", "1"}}
	got := cmd.Expand(5)
	want := []string{"-n", "EDEV", "5", "1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand(5) = %v, want %v", got, want)
	}
	if cmd.Args[2] != "{interval}" {
		t.Error("Expand modified the template")
	}
}

type recordingRunner struct {
	tool string
	args []string
	out  string
	err  error
}

func (r *recordingRunner) Run(ctx context.Context, tool string, args []string) (string, error) {
	r.tool, r.args = tool, args
	return r.out, r.err
}

func TestSampler_Sample(t *testing.T) {
	rr := &recordingRunner{out: "data"}
	s := New(Command{Tool: "sar", Args: []string{"-n", "EDEV", "{interval}", "1"}}, rr)

	got, err := s.Sample(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "data" {
		t.Errorf("Sample() = %q", got)
	}
	if rr.tool != "sar" || !reflect.DeepEqual(rr.args, []string{"-n", "EDEV", "3", "1"}) {
		t.Errorf("ran %s %v", rr.tool, rr.args)
	}
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	r := ExecRunner{}
	ctx := context.Background()

	t.Run("stdout", func(t *testing.T) {
		out, err := r.Run(ctx, "sh", []string{"-c", "echo interval=$1", "sh", "4"})
		if err != nil {
			t.Fatal(err)
		}
		if out != "interval=4\n" {
			t.Errorf("Run() = %q", out)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		_, err := r.Run(ctx, "sh", []string{"-c", "echo boom >&2; exit 3"})
		if !errors.Is(err, monitor.ErrSamplingTool) {
			t.Fatalf("error = %v, want ErrSamplingTool", err)
		}
		var se *monitor.SamplingError
		if !errors.As(err, &se) {
			t.Fatalf("error %T is not *SamplingError", err)
		}
		if se.ExitCode != 3 || se.Stderr != "boom" {
			t.Errorf("ExitCode = %d, Stderr = %q", se.ExitCode, se.Stderr)
		}
	})

	t.Run("missing tool", func(t *testing.T) {
		_, err := r.Run(ctx, "/nonexistent/sampling-tool", nil)
		if !errors.Is(err, monitor.ErrSamplingTool) {
			t.Errorf("error = %v, want ErrSamplingTool", err)
		}
	})
	t.Run("deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		_, err := r.Run(ctx, "sh", []string{"-c", "sleep 5"})
		if !errors.Is(err, monitor.ErrSamplingTool) {
			t.Fatalf("error = %v, want ErrSamplingTool", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want it to wrap context.DeadlineExceeded", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.Run(ctx, "sh", []string{"-c", "exit 0"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want it to wrap context.Canceled", err)
		}
	})
}
