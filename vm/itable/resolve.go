package itable

import "github.com/chazu/ilink/vm"

// SlotTable is the class's vtable as seen by passes 2 and 3.
type SlotTable interface {
	Len() int
	At(i int) vm.MethodRef
	// Set binds slot i and corrects the reference's slot index.
	Set(i int, r vm.MethodRef)
	// DeclaredSlot maps a declared method index to its slot, or -1.
	DeclaredSlot(i int) int
}

// Resolve runs pass 2. vt must be the final vtable of h.Klass and mirandas
// the installed miranda list, index-parallel to h.Mirandas. Both are
// rebound in place where a default method wins.
func (h *Helper) Resolve(vt SlotTable, mirandas []vm.MethodRef) {
	if len(mirandas) != len(h.Mirandas) {
		invariant(h.Klass, "%d mirandas installed, %d found", len(mirandas), len(h.Mirandas))
	}
	for i, table := range h.Tables {
		h.fixVTable(table, h.KlassTable[i], vt, mirandas)
	}
}

func (h *Helper) fixVTable(table []Entry, iface *vm.Klass, vt SlotTable, mirandas []vm.MethodRef) {
	methods := iface.Methods()
	if len(methods) != len(table) {
		invariant(h.Klass, "helper table for %s has %d entries, interface declares %d", iface.Name, len(table), len(methods))
	}
	for i, e := range table {
		virtual := h.fetch(e, vt, mirandas)
		im := vm.Ref(methods[i], i)
		if !virtual.HasCode() && im.HasCode() {
			// An abstract method always loses to a default; no conflict check.
			h.update(e, virtual, im, vt, mirandas)
		} else if defaultConflict(virtual, im) {
			if result := maximallySpecific(virtual, im); !result.Same(virtual) {
				h.update(e, virtual, result, vt, mirandas)
			}
		}
	}
}

// update rebinds the location e to put. virtual is what it was bound to.
func (h *Helper) update(e Entry, virtual, put vm.MethodRef, vt SlotTable, mirandas []vm.MethodRef) {
	switch e.Loc {
	case SuperVTable:
		vt.Set(e.Index, put)
	case Declared:
		vt.Set(h.declaredSlot(e.Index, vt), put)
	case Mirandas:
		slot := virtual.Slot
		h.checkSlot(slot, vt)
		installed := put.At(slot)
		vt.Set(slot, installed)
		mirandas[e.Index] = installed
	default:
		invariant(h.Klass, "unknown location %v", e.Loc)
	}
}

// fetch returns what entry e currently resolves to.
func (h *Helper) fetch(e Entry, vt SlotTable, mirandas []vm.MethodRef) vm.MethodRef {
	switch e.Loc {
	case SuperVTable:
		h.checkSlot(e.Index, vt)
		return vt.At(e.Index)
	case Declared:
		// Through the vtable, so a default adopted for an abstract declared
		// method is seen by later interfaces.
		return vt.At(h.declaredSlot(e.Index, vt))
	case Mirandas:
		if e.Index < 0 || e.Index >= len(mirandas) {
			invariant(h.Klass, "miranda index %d out of range [0,%d)", e.Index, len(mirandas))
		}
		return mirandas[e.Index]
	}
	invariant(h.Klass, "unknown location %v", e.Loc)
	return vm.MethodRef{}
}

func (h *Helper) declaredSlot(i int, vt SlotTable) int {
	slot := vt.DeclaredSlot(i)
	if slot < 0 {
		invariant(h.Klass, "declared method %d has no vtable slot", i)
	}
	h.checkSlot(slot, vt)
	return slot
}

func (h *Helper) checkSlot(slot int, vt SlotTable) {
	if slot < 0 || slot >= vt.Len() {
		invariant(h.Klass, "vtable slot %d out of range [0,%d)", slot, vt.Len())
	}
}

// defaultConflict reports whether two distinct default methods compete for
// the same slot.
func defaultConflict(a, b vm.MethodRef) bool {
	return a.DeclaringKlass() != b.DeclaringKlass() && a.IsDefault() && b.IsDefault()
}

// maximallySpecific adds the default b to the defaults a binds and keeps
// the maximally specific ones. A default declared in a supertype of one
// already bound is dropped. When more than one remains, calling the method
// must fail, so the result is a poison pill recording all of them.
func maximallySpecific(a, b vm.MethodRef) vm.MethodRef {
	kb := b.DeclaringKlass()
	bound := a.Conflicts()
	for _, k := range bound {
		if kb.IsAssignableFrom(k) {
			return a
		}
	}
	var remaining []*vm.Klass
	for _, k := range bound {
		if !k.IsAssignableFrom(kb) {
			remaining = append(remaining, k)
		}
	}
	if len(remaining) == 0 {
		return b
	}
	return vm.Poison(b.Method, append(remaining, kb)...)
}
