package vm

import (
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Registry: defined classes and interfaces
// ---------------------------------------------------------------------------

// Registry defines klasses, assigns their IDs, and finds them by name.
// It's thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*Klass
	all     []*Klass // in ID order
	nextID  KlassID
	symbols *SymbolTable
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Klass),
		nextID:  1,
		symbols: NewSymbolTable(),
	}
}

// Symbols returns the symbol table shared by every klass in the registry.
func (r *Registry) Symbols() *SymbolTable { return r.symbols }

// Define registers a new klass. Interfaces may not have a superclass, and
// every entry of ifaces must be an interface.
func (r *Registry) Define(name, pkg string, flags KlassFlags, super *Klass, ifaces ...*Klass) (*Klass, error) {
	if flags&KlassInterface != 0 && super != nil {
		return nil, fmt.Errorf("interface %s cannot extend class %s", name, super.Name)
	}
	if super != nil && super.IsInterface() {
		return nil, fmt.Errorf("%s: superclass %s: %w", name, super.Name, ErrIncompatibleClassChange)
	}
	for _, i := range ifaces {
		if !i.IsInterface() {
			return nil, fmt.Errorf("%s: %s: %w", name, i.Name, ErrNotInterface)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateKlass)
	}
	k := &Klass{
		Name:       name,
		Package:    pkg,
		Flags:      flags,
		Superclass: super,
		Interfaces: ifaces,
		id:         r.nextID,
		symbols:    r.symbols,
	}
	r.nextID++
	r.byName[name] = k
	r.all = append(r.all, k)
	return k, nil
}

// DefineClass registers a concrete class.
func (r *Registry) DefineClass(name, pkg string, super *Klass, ifaces ...*Klass) (*Klass, error) {
	return r.Define(name, pkg, 0, super, ifaces...)
}

// DefineInterface registers an interface extending supers.
func (r *Registry) DefineInterface(name, pkg string, supers ...*Klass) (*Klass, error) {
	return r.Define(name, pkg, KlassInterface, nil, supers...)
}

// Lookup finds a klass by name.
func (r *Registry) Lookup(name string) *Klass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// All returns every klass in ID order.
func (r *Registry) All() []*Klass {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Klass, len(r.all))
	copy(out, r.all)
	return out
}

// Subtypes returns every klass other than k that k is assignable from,
// in ID order.
func (r *Registry) Subtypes(k *Klass) []*Klass {
	var out []*Klass
	for _, c := range r.All() {
		if c != k && k.IsAssignableFrom(c) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of defined klasses.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.all)
}
