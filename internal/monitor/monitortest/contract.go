// Package monitortest holds the contract tests every monitor.Monitor
// implementation must pass.
package monitortest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Guliveer/vitalis/monitor/internal/monitor"
)

// Sample is raw text known to contain at least one line for NIC.
type Sample struct {
	Raw string
	NIC string
}

// Run exercises m against the shared Monitor contract.
func Run(t *testing.T, m monitor.Monitor, sample Sample) {
	t.Helper()

	t.Run("Identity", func(t *testing.T) {
		id := m.Identity()
		if id.Module == "" || id.Purpose == "" {
			t.Fatalf("Identity() = %+v, want module and purpose", id)
		}
	})

	t.Run("OneTokenPerField", func(t *testing.T) {
		fields := m.Fields()
		if len(fields) == 0 {
			t.Fatal("Fields() is empty")
		}
		para := "--nic=" + sample.NIC
		for _, f := range fields {
			para += " --fields=" + f
		}
		got, err := m.Decode(sample.Raw, para)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", para, err)
		}
		if !strings.HasPrefix(got, " ") {
			t.Fatalf("Decode() = %q, want leading space", got)
		}
		if tokens := strings.Split(got[1:], " "); len(tokens) != len(fields) {
			t.Errorf("Decode() returned %d tokens, want %d: %q", len(tokens), len(fields), got)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		para := "--nic=" + sample.NIC + " --fields=" + m.Fields()[0]
		first, err := m.Decode(sample.Raw, para)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			again, err := m.Decode(sample.Raw, para)
			if err != nil {
				t.Fatal(err)
			}
			if again != first {
				t.Fatalf("Decode() = %q on repeat, first was %q", again, first)
			}
		}
	})

	t.Run("UnknownField", func(t *testing.T) {
		_, err := m.Decode(sample.Raw, "--nic="+sample.NIC+" --fields=no_such_field")
		if !errors.Is(err, monitor.ErrUnknownField) {
			t.Errorf("Decode() error = %v, want ErrUnknownField", err)
		}
	})

	t.Run("NoData", func(t *testing.T) {
		for _, raw := range []string{"", "garbage\nmore garbage\n"} {
			_, err := m.Decode(raw, "--nic="+sample.NIC+" --fields="+m.Fields()[0])
			if !errors.Is(err, monitor.ErrNoDataFound) {
				t.Errorf("Decode(%q) error = %v, want ErrNoDataFound", raw, err)
			}
		}
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		_, err := m.Get(context.Background(), "--interval=abc")
		if !errors.Is(err, monitor.ErrInvalidParameter) {
			t.Errorf("Get() error = %v, want ErrInvalidParameter", err)
		}
	})
}
