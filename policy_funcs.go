package envelope

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// HelperFunc is a callable exposed to policy expressions.
type HelperFunc func(args ...any) (any, error)

// canonicalHelperName folds a helper name to its lookup key. Surrounding
// whitespace is ignored and matching is case-insensitive, so an expression
// can spell "sameMajor" however it likes.
func canonicalHelperName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// HelperRegistry holds the helpers a policy expression may invoke, either
// through the "call" binding or by name.
type HelperRegistry struct {
	mu      sync.RWMutex
	entries map[string]HelperFunc
}

// NewHelperRegistry constructs an empty registry.
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{entries: make(map[string]HelperFunc)}
}

// Register stores fn under name. Names that canonicalize to the same key
// collide; registering over an existing helper is an error.
func (r *HelperRegistry) Register(name string, fn HelperFunc) error {
	if fn == nil {
		return fmt.Errorf("envelope: helper %q is nil", name)
	}
	key := canonicalHelperName(name)
	if key == "" {
		return fmt.Errorf("envelope: helper name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[string]HelperFunc)
	}
	if _, taken := r.entries[key]; taken {
		return fmt.Errorf("envelope: helper %q already registered", name)
	}
	r.entries[key] = fn
	return nil
}

// Clone returns a registry with the same helpers; later registrations on
// either side stay independent.
func (r *HelperRegistry) Clone() *HelperRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &HelperRegistry{entries: make(map[string]HelperFunc, len(r.entries))}
	for key, fn := range r.entries {
		clone.entries[key] = fn
	}
	return clone
}

// Call executes the helper registered under name.
func (r *HelperRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("envelope: helper registry is nil")
	}
	r.mu.RLock()
	fn := r.entries[canonicalHelperName(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("envelope: helper %q not registered", name)
	}
	return fn(args...)
}

// Names returns the canonical helper names, sorted.
func (r *HelperRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for key := range r.entries {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}
