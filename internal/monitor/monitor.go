// Package monitor defines the Monitor contract shared by every subsystem
// collector and a registry that resolves monitors by (module, purpose).
package monitor

import "context"

// Identity names a monitor in the registry, e.g. NET/ESTAT.
type Identity struct {
	Module  string `json:"module" yaml:"module"`
	Purpose string `json:"purpose" yaml:"purpose"`
}

// String returns the identity as MODULE/PURPOSE.
func (id Identity) String() string {
	return id.Module + "/" + id.Purpose
}

// Monitor is the interface that all subsystem collectors must implement.
// Get samples the subsystem once and returns the raw text; Decode projects
// the requested fields out of that text.
type Monitor interface {
	// Identity returns the registry key for this monitor.
	Identity() Identity

	// Get invokes the sampler once and blocks until it finishes.
	// para carries optional get parameters such as --interval=N.
	Get(ctx context.Context, para string) (string, error)

	// Decode parses raw text produced by Get and returns the fields selected
	// by para. It performs no I/O.
	Decode(raw, para string) (string, error)

	// Fields lists the field names accepted by Decode, in registry order.
	Fields() []string
}

// Checker is implemented by monitors that can validate a Decode parameter
// string up front, so that a bad field name is rejected before Get spawns
// a sampling process.
type Checker interface {
	Check(para string) error
}
