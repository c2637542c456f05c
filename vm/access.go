package vm

import "fmt"

// AccessPolicy decides whether a method inherited through the vtable can be
// overridden (and therefore implement an interface method) from a class in
// the given runtime package.
type AccessPolicy interface {
	CanOverride(m *Method, pkg string) bool
}

// JVMAccess overrides public and protected methods from anywhere and
// package-private methods only from the same runtime package.
type JVMAccess struct{}

func (JVMAccess) CanOverride(m *Method, pkg string) bool {
	switch {
	case !m.IsVirtual():
		return false
	case m.IsPublic(), m.IsProtected():
		return true
	}
	owner := m.DeclaringKlass()
	return owner != nil && owner.Package == pkg
}

// OpenAccess treats every virtual method as overridable.
type OpenAccess struct{}

func (OpenAccess) CanOverride(m *Method, _ string) bool { return m.IsVirtual() }

// PolicyByName returns the policy configured as "jvm" (the default when name
// is empty) or "open".
func PolicyByName(name string) (AccessPolicy, error) {
	switch name {
	case "", "jvm":
		return JVMAccess{}, nil
	case "open":
		return OpenAccess{}, nil
	}
	return nil, fmt.Errorf("unknown access policy %q", name)
}

// ResolveVirtual finds the method k's vtable would dispatch name+sig to when
// called from a class in pkg. It returns false when k is unlinked or has no
// accessible match.
func ResolveVirtual(k *Klass, name, sig Symbol, pkg string, policy AccessPolicy) (MethodRef, bool) {
	t := k.Tables()
	if t == nil || t.VTable == nil {
		return MethodRef{}, false
	}
	for _, r := range t.VTable.slots {
		if r.Method.Matches(name, sig) && policy.CanOverride(r.Method, pkg) {
			return r, true
		}
	}
	return MethodRef{}, false
}
