package tools

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"toolforge/internal/logging"
)

// Registry maps tool names to the currently active Tool.
//
// Each name owns a slot holding an atomic pointer. The mutex only guards the
// slot map itself; replacing the tool of an existing name is a single pointer
// swap, so activity on one name never blocks activity on another and a reader
// sees either the old tool or the new one, never anything in between.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*slot
}

type slot struct {
	tool atomic.Pointer[Tool]
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		slots: make(map[string]*slot),
	}
}

// Register adds a tool that must not already exist.
// Built-in tools are registered this way at startup.
func (r *Registry) Register(tool *Tool) error {
	if err := r.check(tool); err != nil {
		return err
	}

	s := r.slotFor(tool.Name)
	if !s.tool.CompareAndSwap(nil, tool) {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	logging.RegistryDebug("Registered tool: %s (category=%s, source=%s)", tool.Name, tool.Category, tool.Source)
	return nil
}

// MustRegister registers a tool and panics on error.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Put installs tool as the active entry for its name, replacing any prior
// entry atomically. It returns the replaced tool, or nil.
func (r *Registry) Put(tool *Tool) (*Tool, error) {
	if err := r.check(tool); err != nil {
		return nil, err
	}

	prev := r.slotFor(tool.Name).tool.Swap(tool)
	if prev != nil {
		logging.Registry("Hot-swapped tool: %s", tool.Name)
	} else {
		logging.Registry("Activated tool: %s", tool.Name)
	}
	return prev, nil
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	s := r.slots[name]
	r.mu.RUnlock()
	if s == nil {
		return nil
	}
	return s.tool.Load()
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	return r.Get(name) != nil
}

// All returns all registered tools sorted by name.
func (r *Registry) All() []*Tool {
	r.mu.RLock()
	result := make([]*Tool, 0, len(r.slots))
	for _, s := range r.slots {
		if t := s.tool.Load(); t != nil {
			result = append(result, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns all registered tool names.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.Name
	}
	return names
}

// Descriptors returns the descriptor of every registered tool.
func (r *Registry) Descriptors() []Descriptor {
	all := r.All()
	out := make([]Descriptor, len(all))
	for i, t := range all {
		out[i] = t.Describe()
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	return len(r.All())
}

func (r *Registry) check(tool *Tool) error {
	if tool == nil {
		return fmt.Errorf("invalid tool: %w", ErrToolExecuteNil)
	}
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	if tool.Name == CodeExecutorName {
		return fmt.Errorf("%w: %s", ErrToolReserved, tool.Name)
	}
	return nil
}

// slotFor returns the slot for name, creating it under the write lock if needed.
func (r *Registry) slotFor(name string) *slot {
	r.mu.RLock()
	s := r.slots[name]
	r.mu.RUnlock()
	if s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s = r.slots[name]; s == nil {
		s = &slot{}
		r.slots[name] = s
	}
	return s
}
