package catalog

import (
	"fmt"
	"slices"
	"sync"
)

// Manager combines the registry and the validator
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates a new catalog manager with registry and validator
func NewManager() *Manager {
	return &Manager{
		registry:  NewRegistry(),
		validator: NewValidator(),
	}
}

// Register validates a definition and adds it to the registry
func (m *Manager) Register(def Definition) error {
	if err := m.validator.ValidateDefinition(def); err != nil {
		return &Error{
			Type:    ErrorValidationFailed,
			Channel: def.Name,
			Module:  def.Module,
			Message: "channel validation failed",
			Cause:   err,
		}
	}
	return m.registry.Register(def)
}

// MustRegister registers a definition and panics on error (for static initialization)
func (m *Manager) MustRegister(def Definition) {
	if err := m.Register(def); err != nil {
		panic(fmt.Sprintf("failed to register channel %s: %v", def.Name, err))
	}
}

// Get retrieves a definition by name
func (m *Manager) Get(name string) (Definition, bool) {
	return m.registry.Get(name)
}

// Lookup is Get with a structured error for unknown names
func (m *Manager) Lookup(name string) (Definition, error) {
	def, ok := m.registry.Get(name)
	if !ok {
		return Definition{}, &Error{
			Type:    ErrorChannelNotFound,
			Channel: name,
			Message: fmt.Sprintf("channel not found: %s", name),
		}
	}
	return def, nil
}

// List returns all registered definitions
func (m *Manager) List() []Definition {
	return m.registry.List()
}

// ListByModule returns definitions for a specific module
func (m *Manager) ListByModule(module string) []Definition {
	return m.registry.ListByModule(module)
}

// ListModules returns all unique module names that have registered channels
func (m *Manager) ListModules() []string {
	var modules []string
	for module := range m.registry.Stats().ModuleBreakdown {
		if module != "" {
			modules = append(modules, module)
		}
	}
	slices.Sort(modules)
	return modules
}

// ValidateName checks if a channel name is valid without registering anything
func (m *Manager) ValidateName(name string) error {
	return m.validator.ValidateName(name)
}

// Validate checks a definition without registering it
func (m *Manager) Validate(def Definition) error {
	return m.validator.ValidateDefinition(def)
}

// Count returns the total number of registered channels
func (m *Manager) Count() int {
	return m.registry.Count()
}

// Stats returns catalog statistics
func (m *Manager) Stats() Stats {
	return m.registry.Stats()
}

// Reset removes all registered channels (primarily for testing)
func (m *Manager) Reset() {
	m.registry.Reset()
}

// Global manager instance
var (
	defaultManager     *Manager
	defaultManagerOnce sync.Once
)

// Default returns the default global manager
func Default() *Manager {
	defaultManagerOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}
