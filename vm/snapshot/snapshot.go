// Package snapshot records the linked tables of a klass in a stable,
// self-describing form: the same tables always encode to the same bytes.
package snapshot

import (
	"fmt"

	"github.com/chazu/ilink/vm"
)

// Snapshot is the linked state of one klass at one generation.
type Snapshot struct {
	Class      string   `cbor:"1,keyasint"`
	ID         int32    `cbor:"2,keyasint"`
	Generation int      `cbor:"3,keyasint"`
	Interface  bool     `cbor:"4,keyasint,omitempty"`
	VTable     []Slot   `cbor:"5,keyasint,omitempty"`
	Mirandas   []Slot   `cbor:"6,keyasint,omitempty"`
	ITables    []ITable `cbor:"7,keyasint,omitempty"`
	// Closure is the klass table of an interface, in discovery order.
	Closure []string `cbor:"8,keyasint,omitempty"`
}

// ITable is the dispatch table for one implemented interface.
type ITable struct {
	Interface string `cbor:"1,keyasint"`
	ID        int32  `cbor:"2,keyasint"`
	Methods   []Slot `cbor:"3,keyasint"`
}

// Slot is one installed method.
type Slot struct {
	Index     int    `cbor:"1,keyasint"`
	Declaring string `cbor:"2,keyasint,omitempty"`
	Name      string `cbor:"3,keyasint"`
	Signature string `cbor:"4,keyasint"`
	Abstract  bool   `cbor:"5,keyasint,omitempty"`
	Poison    bool   `cbor:"6,keyasint,omitempty"`
}

// Take captures k's published tables.
func Take(k *vm.Klass) (*Snapshot, error) {
	t := k.Tables()
	if t == nil {
		return nil, fmt.Errorf("snapshot %s: %w", k.Name, vm.ErrNotLinked)
	}
	st := k.Symbols()
	s := &Snapshot{
		Class:      k.Name,
		ID:         int32(k.ID()),
		Generation: t.Generation,
		Interface:  k.IsInterface(),
	}
	if k.IsInterface() {
		for _, i := range t.KlassTable {
			s.Closure = append(s.Closure, i.Name)
		}
		return s, nil
	}
	if t.VTable != nil {
		s.VTable = slots(st, t.VTable.Slots())
	}
	s.Mirandas = slots(st, t.Mirandas)
	for i, iface := range t.KlassTable {
		s.ITables = append(s.ITables, ITable{
			Interface: iface.Name,
			ID:        int32(iface.ID()),
			Methods:   slots(st, t.ITables[i]),
		})
	}
	return s, nil
}

func slots(st *vm.SymbolTable, refs []vm.MethodRef) []Slot {
	out := make([]Slot, len(refs))
	for i, r := range refs {
		out[i] = Slot{
			Index:     r.Slot,
			Name:      st.Name(r.Method.Name),
			Signature: st.Name(r.Method.Signature),
			Abstract:  !r.HasCode(),
			Poison:    r.IsPoison(),
		}
		// A poison pill stands for several defaults; which one it was
		// copied from depends on discovery order.
		if !r.IsPoison() {
			out[i].Declaring = r.DeclaringKlass().Name
		}
	}
	return out
}

// Interfaces returns the names of the implemented interfaces in table order.
func (s *Snapshot) Interfaces() []string {
	if s.Interface {
		return s.Closure
	}
	out := make([]string, len(s.ITables))
	for i, t := range s.ITables {
		out[i] = t.Interface
	}
	return out
}
