package vm

import (
	"errors"
	"testing"
)

// publishITables links c by hand with one itable per interface.
func publishITables(c *Klass, ifaces []*Klass, tables [][]MethodRef) {
	c.Publish(&Tables{KlassTable: ifaces, ITables: tables})
}

func TestITableForBinarySearch(t *testing.T) {
	reg := NewRegistry()
	var ifaces []*Klass
	var tables [][]MethodRef
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		i, _ := reg.DefineInterface(name, "p")
		m := i.AddMethod("m", "()V", 0, nil)
		ifaces = append(ifaces, i)
		tables = append(tables, []MethodRef{Ref(m, 0)})
	}
	missing, _ := reg.DefineInterface("Missing", "p")
	c, _ := reg.DefineClass("Impl", "p", nil)
	publishITables(c, ifaces, tables)

	for n, i := range ifaces {
		got, ok := c.ITableFor(i)
		if !ok || got[0].Method != tables[n][0].Method {
			t.Errorf("ITableFor(%s) = %v, %v", i.Name, got, ok)
		}
	}
	if _, ok := c.ITableFor(missing); ok {
		t.Error("ITableFor(Missing) should fail")
	}
}

func TestInvokeInterface(t *testing.T) {
	reg := NewRegistry()
	i, _ := reg.DefineInterface("I", "p")
	def := i.AddMethod("run", "()V", 0, func(receiver *Klass, args []any) (any, error) {
		return receiver.Name, nil
	})
	abs := i.AddMethod("stop", "()V", AccAbstract, nil)
	conflict := i.AddMethod("both", "()V", 0, nil)
	c, _ := reg.DefineClass("C", "p", nil, i)

	if _, err := InvokeInterface(c, i, 0); !errors.Is(err, ErrNotLinked) {
		t.Errorf("unlinked: err = %v, want ErrNotLinked", err)
	}

	publishITables(c, []*Klass{i}, [][]MethodRef{{Ref(def, 0), Ref(abs, 1), Poison(conflict).At(2)}})

	if got, err := InvokeInterface(c, i, 0); err != nil || got != "C" {
		t.Errorf("run = %v, %v; want C", got, err)
	}
	if _, err := InvokeInterface(c, i, 1); !errors.Is(err, ErrAbstractMethod) {
		t.Errorf("stop: err = %v, want ErrAbstractMethod", err)
	}
	if _, err := InvokeInterface(c, i, 2); !errors.Is(err, ErrIncompatibleClassChange) {
		t.Errorf("both: err = %v, want ErrIncompatibleClassChange", err)
	}
	if _, err := InvokeInterface(c, i, 3); !errors.Is(err, ErrIncompatibleClassChange) {
		t.Errorf("out of range: err = %v, want ErrIncompatibleClassChange", err)
	}

	other, _ := reg.DefineInterface("Other", "p")
	if _, err := InvokeInterface(c, other, 0); !errors.Is(err, ErrIncompatibleClassChange) {
		t.Errorf("unimplemented: err = %v, want ErrIncompatibleClassChange", err)
	}
}

func TestMethodRefProxyIsIndependent(t *testing.T) {
	reg := NewRegistry()
	i, _ := reg.DefineInterface("I", "p")
	m := i.AddMethod("m", "()V", 0, nil)

	orig := Ref(m, 3)
	moved := orig.At(9)
	if orig.Slot != 3 || moved.Slot != 9 {
		t.Errorf("slots = %d, %d; want 3, 9", orig.Slot, moved.Slot)
	}
	if !orig.Same(moved) {
		t.Error("proxies of one method should be Same")
	}
	if orig.Same(Poison(m)) {
		t.Error("a poison pill is not the same binding as the method")
	}
	if !Poison(m).IsDefault() {
		t.Error("poison pill should keep the default-ness of its method")
	}

	j, _ := reg.DefineInterface("J", "p")
	p := Poison(m, i, j)
	if got := p.Conflicts(); len(got) != 2 || got[0] != i || got[1] != j {
		t.Errorf("Conflicts() = %v, want [I J]", got)
	}
	if p.Same(Poison(m, i)) {
		t.Error("poison pills over different interfaces are not the same binding")
	}
	if got := orig.Conflicts(); len(got) != 1 || got[0] != i {
		t.Errorf("Conflicts() of a plain reference = %v, want [I]", got)
	}
}
