package vm

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// ---------------------------------------------------------------------------
// SymbolTable tests
// ---------------------------------------------------------------------------

func TestSymbolTableIntern(t *testing.T) {
	st := NewSymbolTable()

	a := st.Intern("run")
	if a == NoSymbol {
		t.Fatal("Intern returned NoSymbol")
	}
	if again := st.Intern("run"); again != a {
		t.Errorf("re-Intern got %d, want %d", again, a)
	}
	b := st.Intern("()V")
	if b == a {
		t.Error("different strings should get different symbols")
	}
	if st.Name(b) != "()V" {
		t.Errorf("Name(%d) = %q, want ()V", b, st.Name(b))
	}
	if st.Len() != 2 {
		t.Errorf("Len = %d, want 2", st.Len())
	}
}

func TestSymbolTableLookup(t *testing.T) {
	st := NewSymbolTable()
	id := st.Intern("size")

	if got := st.Lookup("size"); got != id {
		t.Errorf("Lookup(size) = %d, want %d", got, id)
	}
	if got := st.Lookup("missing"); got != NoSymbol {
		t.Errorf("Lookup(missing) = %d, want NoSymbol", got)
	}
	if st.Name(NoSymbol) != "" || st.Name(999) != "" {
		t.Error("Name of invalid symbol should be empty")
	}
}

func TestSymbolTableConcurrency(t *testing.T) {
	st := NewSymbolTable()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			st.Intern(fmt.Sprintf("m%d", n%10))
		}(i)
	}
	wg.Wait()

	if st.Len() != 10 {
		t.Errorf("Len = %d, want 10", st.Len())
	}
}

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryAssignsIncreasingIDs(t *testing.T) {
	reg := NewRegistry()
	i, _ := reg.DefineInterface("I", "p")
	c, _ := reg.DefineClass("C", "p", nil, i)

	if i.ID() >= c.ID() {
		t.Errorf("IDs %d, %d should increase in definition order", i.ID(), c.ID())
	}
	if reg.Lookup("C") != c {
		t.Error("Lookup(C) should return the defined class")
	}
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want 2", reg.Len())
	}
}

func TestRegistryRejectsBadDefinitions(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.DefineClass("C", "p", nil)
	i, _ := reg.DefineInterface("I", "p")

	if _, err := reg.DefineClass("C", "p", nil); !errors.Is(err, ErrDuplicateKlass) {
		t.Errorf("duplicate: err = %v, want ErrDuplicateKlass", err)
	}
	if _, err := reg.DefineClass("D", "p", nil, c); !errors.Is(err, ErrNotInterface) {
		t.Errorf("class as interface: err = %v, want ErrNotInterface", err)
	}
	if _, err := reg.DefineClass("E", "p", i); err == nil {
		t.Error("interface as superclass should fail")
	}
	if _, err := reg.Define("J", "p", KlassInterface, c); err == nil {
		t.Error("interface with superclass should fail")
	}
}

func TestRegistrySubtypes(t *testing.T) {
	reg := NewRegistry()
	j, _ := reg.DefineInterface("J", "p")
	i, _ := reg.DefineInterface("I", "p", j)
	s, _ := reg.DefineClass("S", "p", nil, i)
	c, _ := reg.DefineClass("C", "p", s)
	reg.DefineClass("Other", "p", nil)

	got := reg.Subtypes(j)
	want := []*Klass{i, s, c}
	if len(got) != len(want) {
		t.Fatalf("Subtypes(J) = %v, want %v", got, want)
	}
	for n := range want {
		if got[n] != want[n] {
			t.Errorf("Subtypes(J)[%d] = %v, want %v", n, got[n], want[n])
		}
	}
}

// ---------------------------------------------------------------------------
// Hierarchy tests
// ---------------------------------------------------------------------------

func TestIsAssignableFrom(t *testing.T) {
	reg := NewRegistry()
	j, _ := reg.DefineInterface("J", "p")
	i, _ := reg.DefineInterface("I", "p", j)
	k, _ := reg.DefineInterface("K", "p")
	s, _ := reg.DefineClass("S", "p", nil, i)
	c, _ := reg.DefineClass("C", "p", s)

	tests := []struct {
		super, sub *Klass
		want       bool
	}{
		{j, i, true},
		{j, c, true},
		{i, s, true},
		{s, c, true},
		{c, s, false},
		{k, c, false},
		{i, j, false},
		{c, c, true},
		{j, j, true},
	}
	for _, tt := range tests {
		if got := tt.super.IsAssignableFrom(tt.sub); got != tt.want {
			t.Errorf("%s.IsAssignableFrom(%s) = %v, want %v", tt.super.Name, tt.sub.Name, got, tt.want)
		}
	}
}

func TestInterfaceMethodsArePublic(t *testing.T) {
	reg := NewRegistry()
	i, _ := reg.DefineInterface("I", "p")
	m := i.AddMethod("m", "()V", 0, nil)
	p := i.AddMethod("helper", "()V", AccPrivate, nil)

	if !m.IsPublic() {
		t.Error("interface method without modifiers should be public")
	}
	if !m.IsDefault() {
		t.Error("concrete interface method should be a default method")
	}
	if p.IsPublic() || p.IsDefault() {
		t.Error("private interface method should stay private and not be a default")
	}
}

func TestPublishGenerations(t *testing.T) {
	reg := NewRegistry()
	c, _ := reg.DefineClass("C", "p", nil)
	if c.IsLinked() {
		t.Fatal("new class should not be linked")
	}

	first := &Tables{}
	if old := c.Publish(first); old != nil {
		t.Error("first Publish should return nil")
	}
	second := &Tables{}
	if old := c.Publish(second); old != first {
		t.Error("second Publish should return the first tables")
	}
	if first.Generation != 1 || second.Generation != 2 {
		t.Errorf("generations = %d, %d; want 1, 2", first.Generation, second.Generation)
	}
	if c.Tables() != second {
		t.Error("Tables should return the latest publication")
	}
}

// ---------------------------------------------------------------------------
// Access policy tests
// ---------------------------------------------------------------------------

func TestJVMAccess(t *testing.T) {
	reg := NewRegistry()
	s, _ := reg.DefineClass("S", "a", nil)
	pub := s.AddMethod("pub", "()V", AccPublic, nil)
	prot := s.AddMethod("prot", "()V", AccProtected, nil)
	pkg := s.AddMethod("pkg", "()V", 0, nil)
	priv := s.AddMethod("priv", "()V", AccPrivate, nil)
	stat := s.AddMethod("stat", "()V", AccPublic|AccStatic, nil)

	tests := []struct {
		m    *Method
		pkg  string
		want bool
	}{
		{pub, "b", true},
		{prot, "b", true},
		{pkg, "a", true},
		{pkg, "b", false},
		{priv, "a", false},
		{stat, "a", false},
	}
	for _, tt := range tests {
		if got := (JVMAccess{}).CanOverride(tt.m, tt.pkg); got != tt.want {
			t.Errorf("CanOverride(%v, %s) = %v, want %v", tt.m, tt.pkg, got, tt.want)
		}
	}
	if !(OpenAccess{}).CanOverride(pkg, "b") {
		t.Error("OpenAccess should allow package-private overrides")
	}
}

func TestPolicyByName(t *testing.T) {
	for _, name := range []string{"", "jvm", "open"} {
		if _, err := PolicyByName(name); err != nil {
			t.Errorf("PolicyByName(%q): %v", name, err)
		}
	}
	if _, err := PolicyByName("loose"); err == nil {
		t.Error("unknown policy should fail")
	}
}

// ---------------------------------------------------------------------------
// Benchmarks
// ---------------------------------------------------------------------------

func BenchmarkIsAssignableFrom(b *testing.B) {
	reg := NewRegistry()
	root, _ := reg.DefineInterface("Root", "p")
	k := root
	for i := 0; i < 8; i++ {
		k, _ = reg.DefineInterface(fmt.Sprintf("I%d", i), "p", k)
	}
	c, _ := reg.DefineClass("C", "p", nil, k)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = root.IsAssignableFrom(c)
	}
}
