package vm

// VTable holds the virtual dispatch table of a class.
//
// Slots are inherited positionally: slot i of a class means the same
// name+signature as slot i of its superclass. Overriding methods replace the
// inherited slot, new virtual methods are appended, and miranda methods are
// appended last.
type VTable struct {
	klass    *Klass
	slots    []MethodRef
	declared []int // declared method index -> slot, -1 when not virtual
	mirandas []int // miranda index -> slot
}

// Class returns the class this vtable belongs to.
func (vt *VTable) Class() *Klass { return vt.klass }

// Len returns the number of slots.
func (vt *VTable) Len() int { return len(vt.slots) }

// At returns the method bound to slot i.
func (vt *VTable) At(i int) MethodRef { return vt.slots[i] }

// Set binds slot i. The reference's own slot index is corrected to i.
func (vt *VTable) Set(i int, r MethodRef) {
	vt.slots[i] = r.At(i)
}

// DeclaredSlot returns the slot of the i-th declared method, or -1 if it is
// not vtable-resident.
func (vt *VTable) DeclaredSlot(i int) int {
	if i < 0 || i >= len(vt.declared) {
		return -1
	}
	return vt.declared[i]
}

// MirandaSlot returns the slot the i-th miranda was appended at.
func (vt *VTable) MirandaSlot(i int) int {
	if i < 0 || i >= len(vt.mirandas) {
		return -1
	}
	return vt.mirandas[i]
}

// Slots returns a copy of the slot array.
func (vt *VTable) Slots() []MethodRef {
	out := make([]MethodRef, len(vt.slots))
	copy(out, vt.slots)
	return out
}

// Lookup returns the method bound for name+sig, searching slots in order.
func (vt *VTable) Lookup(name, sig Symbol) (MethodRef, bool) {
	for _, r := range vt.slots {
		if r.Method.Matches(name, sig) {
			return r, true
		}
	}
	return MethodRef{}, false
}

// BuildVTable builds k's vtable from its superclass's published vtable, its
// declared virtual methods, and the miranda methods found for it. It returns
// the vtable and the mirandas installed at their slots.
//
// The superclass must already be linked.
func BuildVTable(k *Klass, mirandas []*Method, policy AccessPolicy) (*VTable, []MethodRef) {
	vt := &VTable{
		klass:    k,
		declared: make([]int, len(k.methods)),
		mirandas: make([]int, len(mirandas)),
	}
	if k.Superclass != nil {
		if st := k.Superclass.Tables(); st != nil && st.VTable != nil {
			vt.slots = make([]MethodRef, len(st.VTable.slots), len(st.VTable.slots)+len(k.methods)+len(mirandas))
			copy(vt.slots, st.VTable.slots)
		}
	}
	inherited := len(vt.slots)

	for i, m := range k.methods {
		vt.declared[i] = -1
		if !m.IsVirtual() {
			continue
		}
		slot := -1
		for s := 0; s < inherited; s++ {
			if old := vt.slots[s].Method; old.Matches(m.Name, m.Signature) && policy.CanOverride(old, k.Package) {
				slot = s
				break
			}
		}
		if slot < 0 {
			slot = len(vt.slots)
			vt.slots = append(vt.slots, MethodRef{})
		}
		vt.slots[slot] = Ref(m, slot)
		vt.declared[i] = slot
	}

	installed := make([]MethodRef, len(mirandas))
	for i, m := range mirandas {
		slot := len(vt.slots)
		installed[i] = Ref(m, slot)
		vt.slots = append(vt.slots, installed[i])
		vt.mirandas[i] = slot
	}
	return vt, installed
}
