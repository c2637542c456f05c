package vm

import "sync/atomic"

// ---------------------------------------------------------------------------
// Klass: runtime class or interface descriptor
// ---------------------------------------------------------------------------

// KlassID is the registry-assigned identity of a Klass. IDs are handed out
// in increasing order and are used only as a deterministic sort key.
type KlassID int32

// KlassFlags describe what kind of type a Klass is.
type KlassFlags uint8

const (
	KlassInterface KlassFlags = 1 << iota
	KlassAbstract
)

// Klass is a class or interface. Its identity is its pointer.
//
// The hierarchy fields are set when the klass is defined and are only
// changed by redefinition, which runs while the klass is exclusively held.
// Linked tables are published atomically and may be read concurrently.
type Klass struct {
	Name       string
	Package    string // runtime package, used for package-private overriding
	Flags      KlassFlags
	Superclass *Klass   // nil for interfaces and roots
	Interfaces []*Klass // directly declared superinterfaces

	id      KlassID
	methods []*Method
	symbols *SymbolTable
	tables  atomic.Pointer[Tables]
}

// Tables is the linked runtime metadata of a klass. A Tables value is never
// modified after it is published.
type Tables struct {
	Generation int

	// VTable and Mirandas are nil for interfaces.
	VTable   *VTable
	Mirandas []MethodRef

	// KlassTable lists every interface the klass implements. For classes it
	// is sorted by ID and parallel to ITables. For interfaces it is the
	// discovery-ordered closure, starting with the interface itself.
	KlassTable []*Klass
	ITables    [][]MethodRef
}

// ID returns the klass identity used for table ordering.
func (k *Klass) ID() KlassID { return k.id }

// IsInterface reports whether k is an interface.
func (k *Klass) IsInterface() bool { return k.Flags&KlassInterface != 0 }

// IsAbstract reports whether k is an abstract class or an interface.
func (k *Klass) IsAbstract() bool { return k.Flags&(KlassAbstract|KlassInterface) != 0 }

// Symbols returns the table k's method names are interned in.
func (k *Klass) Symbols() *SymbolTable { return k.symbols }

// Methods returns the declared methods in declaration order.
func (k *Klass) Methods() []*Method { return k.methods }

// AddMethod declares a method on k. A method without AccAbstract is concrete.
// Interface methods are public unless declared private.
func (k *Klass) AddMethod(name, sig string, flags AccessFlags, body Func) *Method {
	if k.IsInterface() && !flags.Has(AccPrivate) {
		flags = flags&^AccProtected | AccPublic
	}
	m := &Method{
		Name:        k.symbols.Intern(name),
		Signature:   k.symbols.Intern(sig),
		Flags:       flags,
		Body:        body,
		hasCode:     flags&AccAbstract == 0,
		declaring:   k,
		index:       len(k.methods),
		itableIndex: -1,
	}
	k.methods = append(k.methods, m)
	return m
}

// ClearMethods drops every declared method. Used by redefinition before the
// new declarations are added; already-published tables keep the old methods.
func (k *Klass) ClearMethods() {
	k.methods = nil
}

// SetMethods reinstalls methods previously returned by Methods.
func (k *Klass) SetMethods(ms []*Method) {
	k.methods = ms
}

// DeclaredVirtualIndex returns the index of the declared vtable-resident
// method matching name and sig, or -1.
func (k *Klass) DeclaredVirtualIndex(name, sig Symbol) int {
	for i, m := range k.methods {
		if m.IsVirtual() && m.Matches(name, sig) {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Hierarchy queries
// ---------------------------------------------------------------------------

// IsSubclassOf returns true if c is a subclass of other (or is the same class).
func (k *Klass) IsSubclassOf(other *Klass) bool {
	for current := k; current != nil; current = current.Superclass {
		if current == other {
			return true
		}
	}
	return false
}

// IsAssignableFrom reports whether other is k or a subtype of k, through
// either the superclass chain or any superinterface.
func (k *Klass) IsAssignableFrom(other *Klass) bool {
	if other == nil {
		return false
	}
	if !k.IsInterface() {
		return other.IsSubclassOf(k)
	}
	if other == k {
		return true
	}
	for _, i := range other.Interfaces {
		if k.IsAssignableFrom(i) {
			return true
		}
	}
	return k.IsAssignableFrom(other.Superclass)
}

// ---------------------------------------------------------------------------
// Linked tables
// ---------------------------------------------------------------------------

// Tables returns the currently published tables, or nil if k is not linked.
func (k *Klass) Tables() *Tables { return k.tables.Load() }

// IsLinked reports whether tables have been published for k.
func (k *Klass) IsLinked() bool { return k.tables.Load() != nil }

// Publish atomically replaces k's tables and returns the previous ones.
// The generation of t is set to one more than the previous generation.
func (k *Klass) Publish(t *Tables) *Tables {
	for {
		old := k.tables.Load()
		t.Generation = 1
		if old != nil {
			t.Generation = old.Generation + 1
		}
		if k.tables.CompareAndSwap(old, t) {
			return old
		}
	}
}

func (k *Klass) String() string { return k.Name }
