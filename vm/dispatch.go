package vm

import (
	"fmt"
	"sort"
)

// Interface dispatch
//
// A call site names an interface and the index of one of its declared
// methods. The receiver's klass table is sorted by KlassID, so the interface
// is found by binary search and the method by direct indexing.

// ITableFor returns the itable k holds for iface.
func (k *Klass) ITableFor(iface *Klass) ([]MethodRef, bool) {
	t := k.Tables()
	if t == nil || len(t.ITables) == 0 {
		return nil, false
	}
	kt := t.KlassTable
	i := sort.Search(len(kt), func(i int) bool { return kt[i].id >= iface.id })
	if i < len(kt) && kt[i] == iface {
		return t.ITables[i], true
	}
	return nil, false
}

// LookupInterface selects the method a call to iface's index-th declared
// method binds to on receiver.
func LookupInterface(receiver, iface *Klass, index int) (MethodRef, error) {
	if !receiver.IsLinked() {
		return MethodRef{}, fmt.Errorf("%s: %w", receiver.Name, ErrNotLinked)
	}
	itable, ok := receiver.ITableFor(iface)
	if !ok {
		return MethodRef{}, fmt.Errorf("%w: %s does not implement %s", ErrIncompatibleClassChange, receiver.Name, iface.Name)
	}
	if index < 0 || index >= len(itable) {
		return MethodRef{}, fmt.Errorf("%w: %s has no method %d", ErrIncompatibleClassChange, iface.Name, index)
	}
	return itable[index], nil
}

// InvokeInterface performs an interface call on receiver.
func InvokeInterface(receiver, iface *Klass, index int, args ...any) (any, error) {
	r, err := LookupInterface(receiver, iface, index)
	if err != nil {
		return nil, err
	}
	return r.Invoke(receiver, args...)
}
