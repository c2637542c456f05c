package itable

import "github.com/chazu/ilink/vm"

// Closure returns every interface k implements, without duplicates.
//
// For an interface the result starts with the interface itself, followed by
// the closures of its superinterfaces in declaration order. For a class it is
// the linked klass table, or, before linking, the interfaces reached through
// its superinterfaces and then its superclass.
//
// Linked klasses answer from their published tables.
func Closure(k *vm.Klass) []*vm.Klass {
	if t := k.Tables(); t != nil {
		return t.KlassTable
	}
	return collect(k)
}

func collect(k *vm.Klass) []*vm.Klass {
	var out []*vm.Klass
	if k.IsInterface() {
		out = append(out, k)
	}
	for _, super := range k.Interfaces {
		for _, i := range Closure(super) {
			out = appendNew(out, i)
		}
	}
	if k.Superclass != nil {
		for _, i := range Closure(k.Superclass) {
			out = appendNew(out, i)
		}
	}
	return out
}

// InterfaceKlassTable links the itable side of an interface: each declared
// method gets its declaration order as its itable index, and the returned
// closure seeds the lookups of classes implementing iface.
func InterfaceKlassTable(iface *vm.Klass) []*vm.Klass {
	for i, m := range iface.Methods() {
		m.SetITableIndex(i)
	}
	// Not Closure: a relinked interface must not answer from its old tables.
	return collect(iface)
}

func appendNew(table []*vm.Klass, k *vm.Klass) []*vm.Klass {
	if canInsert(k, table) {
		return append(table, k)
	}
	return table
}

func canInsert(k *vm.Klass, table []*vm.Klass) bool {
	for _, t := range table {
		if t == k {
			return false
		}
	}
	return true
}
