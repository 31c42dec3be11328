package monitor

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry resolves monitors by their (module, purpose) identity.
type Registry struct {
	monitors map[Identity]Monitor
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		monitors: make(map[Identity]Monitor),
		logger:   logger,
	}
}

// Register adds a monitor. Registering the same identity twice is an error.
func (r *Registry) Register(m Monitor) error {
	if m == nil {
		return fmt.Errorf("register monitor: nil monitor")
	}
	id := m.Identity()
	if id.Module == "" || id.Purpose == "" {
		return fmt.Errorf("register monitor: empty identity %q", id.String())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.monitors[id]; exists {
		return fmt.Errorf("register monitor: %s already registered", id)
	}
	r.monitors[id] = m
	r.logger.Info("Registered monitor", zap.Stringer("monitor", id))
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(m Monitor) {
	if err := r.Register(m); err != nil {
		panic(err)
	}
}

// Lookup returns the monitor registered for module/purpose.
func (r *Registry) Lookup(module, purpose string) (Monitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.monitors[Identity{Module: module, Purpose: purpose}]
	if !ok {
		return nil, &LookupError{Module: module, Purpose: purpose}
	}
	return m, nil
}

// Identities returns all registered identities sorted by module then purpose.
func (r *Registry) Identities() []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]Identity, 0, len(r.monitors))
	for id := range r.monitors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Module != ids[j].Module {
			return ids[i].Module < ids[j].Module
		}
		return ids[i].Purpose < ids[j].Purpose
	})
	return ids
}
