// Package redefine replaces the declarations of linked classes and relinks
// everything that depends on them.
package redefine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/ilink/store"
	"github.com/chazu/ilink/vm"
	"github.com/chazu/ilink/vm/linker"
	"github.com/chazu/ilink/vm/snapshot"
)

var log = commonlog.GetLogger("ilink.redefine")

// Listener is notified around a redefinition.
type Listener interface {
	// ShouldRerunClassInitializer is asked for every relinked klass.
	// changed is true when the hierarchy of k or of one of its supertypes
	// was changed by the redefinition.
	ShouldRerunClassInitializer(k *vm.Klass, changed bool) bool

	// PostRedefinition is called once every affected klass is relinked.
	PostRedefinition(relinked []*vm.Klass)

	// CollectExtraClassesToReload may add changes to a redefinition before
	// it is applied.
	CollectExtraClassesToReload(requested []Change) []Change
}

// MethodDecl declares one method of a redefined klass.
type MethodDecl struct {
	Name      string
	Signature string
	Flags     vm.AccessFlags
	Body      vm.Func
}

// Change is the new definition of one klass.
type Change struct {
	Klass   *vm.Klass
	Methods []MethodDecl

	// Interfaces replaces the directly declared superinterfaces when
	// non-nil. An empty non-nil slice removes them all.
	Interfaces []*vm.Klass
}

// Report lists what a redefinition did.
type Report struct {
	// Relinked holds every klass whose tables were rebuilt, supertypes first.
	Relinked []*vm.Klass
	// Reinitialize holds the klasses a listener asked to reinitialize.
	Reinitialize []*vm.Klass
}

// Redefiner applies redefinitions. One redefinition runs at a time.
type Redefiner struct {
	mu        sync.Mutex
	registry  *vm.Registry
	linker    *linker.Linker
	listeners []Listener
	store     *store.Store
}

// Option configures a Redefiner.
type Option func(*Redefiner)

// WithListener registers a listener.
func WithListener(l Listener) Option {
	return func(r *Redefiner) { r.listeners = append(r.listeners, l) }
}

// WithStore records a snapshot of every relinked klass.
func WithStore(s *store.Store) Option {
	return func(r *Redefiner) { r.store = s }
}

// New creates a Redefiner over the klasses of reg.
func New(reg *vm.Registry, l *linker.Linker, opts ...Option) *Redefiner {
	r := &Redefiner{registry: reg, linker: l}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redefine applies changes, relinks the changed klasses and every linked
// subtype, and notifies listeners. Changes are checked against the
// hierarchy they would produce before any klass is modified; if relinking
// still fails, the previous declarations are restored.
func (r *Redefiner) Redefine(ctx context.Context, changes ...Change) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.listeners {
		changes = append(changes, l.CollectExtraClassesToReload(changes)...)
	}
	proposed, err := propose(changes)
	if err != nil {
		return nil, err
	}
	if err := checkCycles(proposed); err != nil {
		return nil, err
	}
	// The current hierarchy is still acyclic, and every new subtype of a
	// changed klass is reached through another changed klass.
	affected := r.affected(changes)
	if err := checkLinked(affected, proposed); err != nil {
		return nil, err
	}

	saved := save(changes)
	var hierarchyChanged []*vm.Klass
	for _, c := range changes {
		if apply(c) {
			hierarchyChanged = append(hierarchyChanged, c.Klass)
		}
	}

	order, err := linker.Order(affected)
	if err != nil {
		r.rollback(saved, nil)
		return nil, err
	}
	relink := linker.Restrict(order, affected)
	if rebuilt, err := r.linker.RebuildOrdered(relink); err != nil {
		r.rollback(saved, rebuilt)
		return nil, err
	}

	report := &Report{}
	for _, k := range relink {
		report.Relinked = append(report.Relinked, k)
		changed := inHierarchy(k, hierarchyChanged)
		for _, l := range r.listeners {
			if l.ShouldRerunClassInitializer(k, changed) {
				report.Reinitialize = append(report.Reinitialize, k)
				break
			}
		}
		if err := r.record(ctx, k); err != nil {
			return nil, err
		}
	}

	for _, l := range r.listeners {
		l.PostRedefinition(report.Relinked)
	}
	log.Infof("redefined %d klasses, relinked %d, %d to reinitialize",
		len(changes), len(report.Relinked), len(report.Reinitialize))
	return report, nil
}

// propose returns the superinterfaces each change would install, keyed by
// klass. A later change of the same klass wins, as it does in apply.
func propose(changes []Change) (map[*vm.Klass][]*vm.Klass, error) {
	proposed := make(map[*vm.Klass][]*vm.Klass)
	for _, c := range changes {
		if c.Interfaces == nil {
			continue
		}
		for _, i := range c.Interfaces {
			if !i.IsInterface() {
				return nil, fmt.Errorf("redefine %s: %s: %w", c.Klass.Name, i.Name, vm.ErrNotInterface)
			}
		}
		proposed[c.Klass] = c.Interfaces
	}
	return proposed, nil
}

// supertypes returns the direct supertypes of k once proposed is applied.
func supertypes(k *vm.Klass, proposed map[*vm.Klass][]*vm.Klass) []*vm.Klass {
	ifaces, ok := proposed[k]
	if !ok {
		ifaces = k.Interfaces
	}
	if k.Superclass == nil {
		return ifaces
	}
	return append([]*vm.Klass{k.Superclass}, ifaces...)
}

// checkCycles rejects a proposed hierarchy in which a klass would extend
// itself.
func checkCycles(proposed map[*vm.Klass][]*vm.Klass) error {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[*vm.Klass]int)

	var visit func(k *vm.Klass, path []string) error
	visit = func(k *vm.Klass, path []string) error {
		switch state[k] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("redefine %s: hierarchy cycle %v -> %s: %w",
				k.Name, path, k.Name, vm.ErrIncompatibleClassChange)
		}
		state[k] = visiting
		path = append(path, k.Name)
		for _, s := range supertypes(k, proposed) {
			if err := visit(s, path); err != nil {
				return err
			}
		}
		state[k] = done
		return nil
	}

	for k := range proposed {
		if err := visit(k, nil); err != nil {
			return err
		}
	}
	return nil
}

// checkLinked verifies that every supertype of an affected klass is either
// linked already or relinked before it.
func checkLinked(affected []*vm.Klass, proposed map[*vm.Klass][]*vm.Klass) error {
	relinked := make(map[*vm.Klass]bool, len(affected))
	for _, k := range affected {
		relinked[k] = true
	}
	for _, k := range affected {
		for _, s := range supertypes(k, proposed) {
			if !s.IsLinked() && !relinked[s] {
				return fmt.Errorf("redefine %s: %s: %w", k.Name, s.Name, vm.ErrNotLinked)
			}
		}
	}
	return nil
}

type declaration struct {
	klass      *vm.Klass
	methods    []*vm.Method
	interfaces []*vm.Klass
}

func save(changes []Change) []declaration {
	seen := make(map[*vm.Klass]bool)
	var out []declaration
	for _, c := range changes {
		if seen[c.Klass] {
			continue
		}
		seen[c.Klass] = true
		out = append(out, declaration{
			klass:      c.Klass,
			methods:    c.Klass.Methods(),
			interfaces: c.Klass.Interfaces,
		})
	}
	return out
}

// rollback restores saved declarations and relinks the klasses that were
// already rebuilt from the redefined ones.
func (r *Redefiner) rollback(saved []declaration, rebuilt []*vm.Klass) {
	for _, d := range saved {
		d.klass.SetMethods(d.methods)
		d.klass.Interfaces = d.interfaces
	}
	if _, err := r.linker.RebuildOrdered(rebuilt); err != nil {
		log.Errorf("rollback: %s", err)
	}
}

// apply installs c and reports whether it changed c.Klass's superinterfaces.
func apply(c Change) bool {
	k := c.Klass
	k.ClearMethods()
	for _, d := range c.Methods {
		k.AddMethod(d.Name, d.Signature, d.Flags, d.Body)
	}
	if c.Interfaces == nil || sameKlasses(k.Interfaces, c.Interfaces) {
		return false
	}
	k.Interfaces = c.Interfaces
	return true
}

// affected returns the changed klasses and every linked klass below them.
func (r *Redefiner) affected(changes []Change) []*vm.Klass {
	seen := make(map[*vm.Klass]bool)
	var out []*vm.Klass
	add := func(k *vm.Klass) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, c := range changes {
		add(c.Klass)
	}
	for _, c := range changes {
		for _, sub := range r.registry.Subtypes(c.Klass) {
			if sub.IsLinked() {
				add(sub)
			}
		}
	}
	return out
}

func (r *Redefiner) record(ctx context.Context, k *vm.Klass) error {
	if r.store == nil {
		return nil
	}
	snap, err := snapshot.Take(k)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, snap)
}

func inHierarchy(k *vm.Klass, changed []*vm.Klass) bool {
	for _, c := range changed {
		if c.IsAssignableFrom(k) {
			return true
		}
	}
	return false
}

func sameKlasses(a, b []*vm.Klass) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
