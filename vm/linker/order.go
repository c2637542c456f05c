package linker

import (
	"fmt"

	"github.com/chazu/ilink/vm"
)

// LinkAll links every klass in ks, supertypes first. Klasses that are
// already linked are left alone.
func (l *Linker) LinkAll(ks []*vm.Klass) error {
	order, err := Order(ks)
	if err != nil {
		return err
	}
	for _, k := range order {
		if _, err := l.Link(k); err != nil {
			return err
		}
	}
	return nil
}

// RebuildAll relinks every klass in ks, supertypes first. Supertypes not in
// ks keep their tables.
func (l *Linker) RebuildAll(ks []*vm.Klass) error {
	order, err := Order(ks)
	if err != nil {
		return err
	}
	_, err = l.RebuildOrdered(Restrict(order, ks))
	return err
}

// RebuildOrdered relinks ks in the order given; every supertype must come
// before its subtypes or already be linked. It returns the klasses rebuilt
// before the first failure.
func (l *Linker) RebuildOrdered(ks []*vm.Klass) ([]*vm.Klass, error) {
	for i, k := range ks {
		if _, err := l.Rebuild(k); err != nil {
			return ks[:i], err
		}
	}
	return ks, nil
}

// Restrict keeps the members of order that are in ks, preserving order.
func Restrict(order, ks []*vm.Klass) []*vm.Klass {
	want := make(map[*vm.Klass]bool, len(ks))
	for _, k := range ks {
		want[k] = true
	}
	var out []*vm.Klass
	for _, k := range order {
		if want[k] {
			out = append(out, k)
		}
	}
	return out
}

// Order returns ks and all of their supertypes, each supertype before its
// subtypes. Otherwise the order of ks is kept.
func Order(ks []*vm.Klass) ([]*vm.Klass, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*vm.Klass]int)
	var order []*vm.Klass

	var visit func(k *vm.Klass, path []string) error
	visit = func(k *vm.Klass, path []string) error {
		switch state[k] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("hierarchy cycle: %v -> %s", path, k.Name)
		}
		state[k] = visiting
		path = append(path, k.Name)
		if k.Superclass != nil {
			if err := visit(k.Superclass, path); err != nil {
				return err
			}
		}
		for _, i := range k.Interfaces {
			if err := visit(i, path); err != nil {
				return err
			}
		}
		state[k] = done
		order = append(order, k)
		return nil
	}

	for _, k := range ks {
		if err := visit(k, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
