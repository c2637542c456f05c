package itable

import "github.com/chazu/ilink/vm"

// Helper is the result of pass 1: for each interface in KlassTable, the
// parallel entry of Tables locates the implementation of every method the
// interface declares. Mirandas are the interface methods nobody implements;
// the vtable builder appends them to the class's vtable.
//
// A Helper belongs to one class and one link attempt.
type Helper struct {
	Klass      *vm.Klass
	KlassTable []*vm.Klass
	Tables     [][]Entry
	Mirandas   []*vm.Method
}

type builder struct {
	klass  *vm.Klass
	super  *vm.Klass
	pkg    string
	policy vm.AccessPolicy
	h      *Helper
}

// Create runs pass 1 for class k. k's superclass and superinterfaces must
// already be linked.
func Create(k *vm.Klass, policy vm.AccessPolicy) *Helper {
	b := &builder{
		klass:  k,
		super:  k.Superclass,
		pkg:    k.Package,
		policy: policy,
		h:      &Helper{Klass: k},
	}
	for _, iface := range k.Interfaces {
		b.fillMirandas(iface)
		for _, super := range Closure(iface) {
			b.fillMirandas(super)
		}
	}
	// Interfaces reached only through the superclass find their methods in
	// the inherited vtable, so no new miranda is created past this point.
	if b.super != nil {
		for _, iface := range Closure(b.super) {
			b.fillMirandas(iface)
		}
	}
	return b.h
}

func (b *builder) fillMirandas(iface *vm.Klass) {
	if !canInsert(iface, b.h.KlassTable) {
		return
	}
	methods := iface.Methods()
	entries := make([]Entry, len(methods))
	for i, im := range methods {
		entries[i] = b.lookupLocation(im)
	}
	b.h.Tables = append(b.h.Tables, entries)
	b.h.KlassTable = append(b.h.KlassTable, iface)
}

// lookupLocation finds where im's implementation lives, preferring an
// inherited virtual method, then a declared one, then an existing miranda.
func (b *builder) lookupLocation(im *vm.Method) Entry {
	if b.super != nil {
		if r, ok := vm.ResolveVirtual(b.super, im.Name, im.Signature, b.pkg, b.policy); ok {
			return Entry{Loc: SuperVTable, Index: r.Slot}
		}
	}
	if i := b.klass.DeclaredVirtualIndex(im.Name, im.Signature); i >= 0 {
		return Entry{Loc: Declared, Index: i}
	}
	if i := b.lookupMirandas(im); i >= 0 {
		return Entry{Loc: Mirandas, Index: i}
	}
	b.h.Mirandas = append(b.h.Mirandas, im)
	return Entry{Loc: Mirandas, Index: len(b.h.Mirandas) - 1}
}

func (b *builder) lookupMirandas(im *vm.Method) int {
	for i, m := range b.h.Mirandas {
		if m.Matches(im.Name, im.Signature) {
			return i
		}
	}
	return -1
}
