package vm

import "fmt"

// AccessFlags are the modifier bits of a method.
type AccessFlags uint16

const (
	AccPublic AccessFlags = 1 << iota
	AccPrivate
	AccProtected
	AccStatic
	AccFinal
	AccAbstract
	AccSynthetic
)

// Has reports whether all bits of mask are set.
func (f AccessFlags) Has(mask AccessFlags) bool { return f&mask == mask }

// Func is the executable body of a concrete method.
type Func func(receiver *Klass, args []any) (any, error)

// Method describes one declared method.
//
// A Method is owned by its declaring Klass and is not modified by table
// construction. Tables hold MethodRef values that point at it.
type Method struct {
	Name      Symbol
	Signature Symbol
	Flags     AccessFlags

	// Body runs when the method is invoked. It may be nil for a concrete
	// method whose result does not matter; HasCode is what makes a method
	// concrete.
	Body    Func
	hasCode bool

	declaring   *Klass
	index       int // position in declaring klass's declared methods
	itableIndex int // stamped when the declaring interface is linked
}

// HasCode reports whether the method is concrete (not abstract).
func (m *Method) HasCode() bool { return m.hasCode }

// DeclaringKlass returns the class or interface that declares m.
func (m *Method) DeclaringKlass() *Klass { return m.declaring }

// Index returns m's position in its declaring klass's declared methods.
func (m *Method) Index() int { return m.index }

// ITableIndex returns the itable slot assigned to an interface method when
// its interface was linked, or -1.
func (m *Method) ITableIndex() int { return m.itableIndex }

// SetITableIndex assigns the itable slot of an interface method.
func (m *Method) SetITableIndex(i int) { m.itableIndex = i }

func (m *Method) IsStatic() bool    { return m.Flags.Has(AccStatic) }
func (m *Method) IsPrivate() bool   { return m.Flags.Has(AccPrivate) }
func (m *Method) IsPublic() bool    { return m.Flags.Has(AccPublic) }
func (m *Method) IsProtected() bool { return m.Flags.Has(AccProtected) }

// IsPackagePrivate reports whether m has no access modifier.
func (m *Method) IsPackagePrivate() bool {
	return m.Flags&(AccPublic|AccPrivate|AccProtected) == 0
}

// IsVirtual reports whether m takes a vtable slot.
func (m *Method) IsVirtual() bool {
	return !m.IsStatic() && !m.IsPrivate()
}

// IsDefault reports whether m is a default method: a concrete instance
// method declared in an interface.
func (m *Method) IsDefault() bool {
	return m.hasCode && m.IsVirtual() && m.declaring != nil && m.declaring.IsInterface()
}

// Matches reports whether m has the given name and signature.
func (m *Method) Matches(name, sig Symbol) bool {
	return m.Name == name && m.Signature == sig
}

func (m *Method) String() string {
	if m.declaring == nil || m.declaring.symbols == nil {
		return fmt.Sprintf("#%d#%d", m.Name, m.Signature)
	}
	st := m.declaring.symbols
	return m.declaring.Name + "." + st.Name(m.Name) + st.Name(m.Signature)
}

// ---------------------------------------------------------------------------
// MethodRef: a method installed in a table
// ---------------------------------------------------------------------------

// MethodRef is a method as installed in a vtable, miranda list, or itable.
// It is a value: copying it proxies the method with its own slot index, so
// no two tables share slot bookkeeping.
type MethodRef struct {
	Method *Method
	Slot   int
	poison bool

	// conflicts holds the interfaces whose defaults a poison pill stands
	// for. Never modified once the reference is created.
	conflicts []*Klass
}

// Ref creates a reference to m at slot.
func Ref(m *Method, slot int) MethodRef {
	return MethodRef{Method: m, Slot: slot}
}

// Poison creates a poison-pill reference standing in for m and for the
// defaults declared by conflicts. It is valid to store and fails only when
// invoked. Without conflicts, m's declaring klass is the only one recorded.
func Poison(m *Method, conflicts ...*Klass) MethodRef {
	r := MethodRef{Method: m, Slot: -1, poison: true}
	if len(conflicts) > 0 {
		r.conflicts = append([]*Klass(nil), conflicts...)
	}
	return r
}

// IsZero reports whether r refers to no method.
func (r MethodRef) IsZero() bool { return r.Method == nil }

// IsPoison reports whether r stands for an ambiguous default method.
func (r MethodRef) IsPoison() bool { return r.poison }

// HasCode reports whether invoking r can run code.
func (r MethodRef) HasCode() bool { return r.Method != nil && r.Method.HasCode() }

// IsDefault reports whether r refers to a default method. A poison pill
// keeps the default-ness of the method it replaces so that later conflicts
// are still detected.
func (r MethodRef) IsDefault() bool { return r.Method != nil && r.Method.IsDefault() }

// DeclaringKlass returns the declaring klass of the referenced method.
func (r MethodRef) DeclaringKlass() *Klass {
	if r.Method == nil {
		return nil
	}
	return r.Method.declaring
}

// Conflicts returns the interfaces whose default methods r binds: every
// conflicting interface for a poison pill, otherwise the declaring klass.
func (r MethodRef) Conflicts() []*Klass {
	if len(r.conflicts) > 0 {
		return append([]*Klass(nil), r.conflicts...)
	}
	if k := r.DeclaringKlass(); k != nil {
		return []*Klass{k}
	}
	return nil
}

// At returns a proxy of r at a different slot.
func (r MethodRef) At(slot int) MethodRef {
	r.Slot = slot
	return r
}

// Same reports whether r and o bind the same method the same way,
// ignoring slots.
func (r MethodRef) Same(o MethodRef) bool {
	if r.Method != o.Method || r.poison != o.poison {
		return false
	}
	if len(r.conflicts) != len(o.conflicts) {
		return false
	}
	for i := range r.conflicts {
		if r.conflicts[i] != o.conflicts[i] {
			return false
		}
	}
	return true
}

// Invoke runs the referenced method.
func (r MethodRef) Invoke(receiver *Klass, args ...any) (any, error) {
	switch {
	case r.Method == nil:
		return nil, ErrAbstractMethod
	case r.poison:
		return nil, fmt.Errorf("%w: conflicting default methods for %s", ErrIncompatibleClassChange, r.Method)
	case !r.Method.hasCode:
		return nil, fmt.Errorf("%w: %s", ErrAbstractMethod, r.Method)
	case r.Method.Body == nil:
		return nil, nil
	}
	return r.Method.Body(receiver, args)
}
