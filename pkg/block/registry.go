package block

import (
	"fmt"
	"sort"
	"sync"

	kiterrors "github.com/conneroisu/statickit/internal/errors"
)

// Registry maps block type names to definitions. It is filled once at
// startup and read concurrently afterwards.
type Registry struct {
	blocks map[string]Definition
	mutex  sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		blocks: make(map[string]Definition),
	}
}

// Register adds a definition. A definition needs a type and a render
// function. Registering a type twice fails and keeps the first definition.
func (r *Registry) Register(def Definition) error {
	if def.Type == "" {
		return kiterrors.NewRegistrationError(kiterrors.ErrCodeInvalidDefinition, "block type must not be empty")
	}
	if def.Render == nil {
		return kiterrors.NewRegistrationError(kiterrors.ErrCodeInvalidDefinition,
			fmt.Sprintf("block type %q has no render function", def.Type)).WithComponent(def.Type)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.blocks[def.Type]; exists {
		return kiterrors.NewRegistrationError(
			kiterrors.ErrCodeDuplicateType,
			fmt.Sprintf("block type %q is already registered", def.Type),
		).WithComponent(def.Type)
	}
	r.blocks[def.Type] = def

	return nil
}

// MustRegister registers every definition and panics on the first error.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a definition by type.
func (r *Registry) Get(typ string) (Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.blocks[typ]

	return def, exists
}

// Require is Get that fails for unknown types.
func (r *Registry) Require(typ string) (Definition, error) {
	def, ok := r.Get(typ)
	if !ok {
		return Definition{}, kiterrors.NewLookupError(
			kiterrors.ErrCodeUnknownType,
			fmt.Sprintf("unknown block type: %q", typ),
		)
	}

	return def, nil
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.Get(typ)

	return ok
}

// All returns every definition sorted by type.
func (r *Registry) All() []Definition {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Definition, 0, len(r.blocks))
	for _, def := range r.blocks {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })

	return result
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]string, 0, len(r.blocks))
	for typ := range r.blocks {
		result = append(result, typ)
	}
	sort.Strings(result)

	return result
}

// Count returns the number of registered types.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.blocks)
}

// Clear removes every definition. Intended for tests.
func (r *Registry) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.blocks = make(map[string]Definition)
}
