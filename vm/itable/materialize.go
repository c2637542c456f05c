package itable

import (
	"sort"

	"github.com/chazu/ilink/vm"
)

// Result holds the final tables of a class: one itable per interface,
// ordered by interface ID.
type Result struct {
	KlassTable []*vm.Klass
	ITables    [][]vm.MethodRef
}

// Materialize runs pass 3. It copies out the method each entry resolves to,
// assigns it its itable slot, and orders the tables by interface ID.
func (h *Helper) Materialize(vt SlotTable, mirandas []vm.MethodRef) Result {
	type pair struct {
		klass *vm.Klass
		table []vm.MethodRef
	}
	pairs := make([]pair, len(h.Tables))
	for i, entries := range h.Tables {
		table := make([]vm.MethodRef, len(entries))
		for pos, e := range entries {
			r := h.fetch(e, vt, mirandas)
			if r.IsZero() {
				invariant(h.Klass, "%s entry %d (%v) resolves to no method", h.KlassTable[i].Name, pos, e)
			}
			table[pos] = r.At(pos)
		}
		pairs[i] = pair{klass: h.KlassTable[i], table: table}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].klass.ID() < pairs[j].klass.ID()
	})

	res := Result{
		KlassTable: make([]*vm.Klass, len(pairs)),
		ITables:    make([][]vm.MethodRef, len(pairs)),
	}
	for i, p := range pairs {
		res.KlassTable[i] = p.klass
		res.ITables[i] = p.table
	}
	return res
}
