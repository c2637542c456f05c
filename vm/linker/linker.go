// Package linker links classes and interfaces: it orders them so every
// supertype is linked first, builds their vtables and itables, and publishes
// the result on the klass.
package linker

import (
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/ilink/vm"
	"github.com/chazu/ilink/vm/itable"
)

var log = commonlog.GetLogger("ilink.linker")

// Linker runs the table construction pipeline. A Linker holds no per-class
// state and may link different classes from different goroutines.
type Linker struct {
	policy vm.AccessPolicy
}

// Option configures a Linker.
type Option func(*Linker)

// WithAccessPolicy sets the rule deciding which inherited methods can
// implement interface methods. The default is vm.JVMAccess.
func WithAccessPolicy(p vm.AccessPolicy) Option {
	return func(l *Linker) { l.policy = p }
}

// New creates a Linker.
func New(opts ...Option) *Linker {
	l := &Linker{policy: vm.JVMAccess{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Policy returns the access policy in use.
func (l *Linker) Policy() vm.AccessPolicy { return l.policy }

// Link links k unless it is already linked, and returns its tables. Its
// superclass and superinterfaces must be linked.
func (l *Linker) Link(k *vm.Klass) (*vm.Tables, error) {
	if t := k.Tables(); t != nil {
		return t, nil
	}
	return l.Rebuild(k)
}

// Rebuild runs the whole pipeline for k again and publishes the new tables
// in place of the old ones. Readers see either the old or the new tables.
func (l *Linker) Rebuild(k *vm.Klass) (*vm.Tables, error) {
	if err := checkSupertypes(k); err != nil {
		return nil, err
	}
	t := l.build(k)
	k.Publish(t)
	log.Infof("linked %s (id %d, generation %d): %d interfaces, %d mirandas",
		k.Name, k.ID(), t.Generation, len(t.KlassTable), len(t.Mirandas))
	return t, nil
}

func (l *Linker) build(k *vm.Klass) *vm.Tables {
	if k.IsInterface() {
		return &vm.Tables{KlassTable: itable.InterfaceKlassTable(k)}
	}

	h := itable.Create(k, l.policy)
	log.Debugf("%s: pass 1: %d helper tables, %d mirandas", k.Name, len(h.Tables), len(h.Mirandas))

	vt, mirandas := vm.BuildVTable(k, h.Mirandas, l.policy)
	h.Resolve(vt, mirandas)
	res := h.Materialize(vt, mirandas)

	for i, table := range res.ITables {
		for _, r := range table {
			if r.IsPoison() {
				log.Warningf("%s: conflicting default methods for %s.%s from %v",
					k.Name, res.KlassTable[i].Name, k.Symbols().Name(r.Method.Name), r.Conflicts())
			}
		}
	}

	return &vm.Tables{
		VTable:     vt,
		Mirandas:   mirandas,
		KlassTable: res.KlassTable,
		ITables:    res.ITables,
	}
}

func checkSupertypes(k *vm.Klass) error {
	if k.Superclass != nil && !k.Superclass.IsLinked() {
		return fmt.Errorf("link %s: superclass %s: %w", k.Name, k.Superclass.Name, vm.ErrNotLinked)
	}
	for _, i := range k.Interfaces {
		if !i.IsLinked() {
			return fmt.Errorf("link %s: interface %s: %w", k.Name, i.Name, vm.ErrNotLinked)
		}
	}
	return nil
}
