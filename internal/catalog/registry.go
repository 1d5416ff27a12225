package catalog

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds channel definitions by name
type Registry struct {
	entries map[string]Definition
	mu      sync.RWMutex
}

// NewRegistry creates a new channel registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Definition),
	}
}

// Register adds a definition. Registering the same name again with the same
// payload type is a no-op, since package-level channels may be defined from
// more than one place. A different payload type under a known name is an
// error: observers of one would fail on posts of the other.
func (r *Registry) Register(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" {
		return &Error{
			Type:    ErrorValidationFailed,
			Message: "channel name cannot be empty",
		}
	}

	if existing, exists := r.entries[def.Name]; exists {
		if existing.PayloadType == def.PayloadType {
			return nil
		}
		return &Error{
			Type:    ErrorConflictingPayload,
			Channel: def.Name,
			Module:  def.Module,
			Message: fmt.Sprintf("channel %s already carries %s, cannot redefine it as %s", def.Name, existing.PayloadType, def.PayloadType),
		}
	}

	r.entries[def.Name] = def
	return nil
}

// Get retrieves a definition by name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.entries[name]
	return def, exists
}

// List returns all definitions sorted by name
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.entries))
	for _, def := range r.entries {
		defs = append(defs, def)
	}
	sortByName(defs)
	return defs
}

// ListByModule returns definitions for a specific module
func (r *Registry) ListByModule(module string) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []Definition
	for _, def := range r.entries {
		if def.Module == module {
			defs = append(defs, def)
		}
	}
	sortByName(defs)
	return defs
}

// Count returns the number of registered channels
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Reset removes all definitions (primarily for testing)
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]Definition)
}

// Stats returns registry statistics
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalChannels:   len(r.entries),
		ModuleBreakdown: make(map[string]int),
	}
	for _, def := range r.entries {
		if def.Optional {
			stats.OptionalChannels++
		}
		stats.ModuleBreakdown[def.Module]++
	}
	return stats
}

func sortByName(defs []Definition) {
	slices.SortFunc(defs, func(a, b Definition) int {
		return strings.Compare(a.Name, b.Name)
	})
}
