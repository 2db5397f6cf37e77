// Package health aggregates readiness checks for the subsystems the API
// depends on (storage, and anything else registered at startup).
package health

import (
	"context"
	"sort"
	"sync"
)

// Status is the result of checking one subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes a single subsystem. Checkers must be safe to call
// concurrently and should honor ctx deadlines.
type Checker func(ctx context.Context) Status

// Registry holds named checkers and runs them on demand. An empty registry
// reports healthy; in-memory deployments register nothing.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{checkers: make(map[string]Checker)}
}

// Register adds a checker under a name. Registering the same name twice
// replaces the earlier checker.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	r.checkers[name] = check
	r.mu.Unlock()
}

// CheckAll runs every registered checker and reports the aggregate plus the
// per-subsystem results, ordered by name so the health payload is stable.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	checks := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		checks[name] = c
	}
	r.mu.RUnlock()

	sort.Strings(names)

	healthy = true
	statuses = make([]Status, 0, len(names))
	for _, name := range names {
		st := checks[name](ctx)
		if !st.Healthy {
			healthy = false
		}
		statuses = append(statuses, st)
	}
	return healthy, statuses
}
