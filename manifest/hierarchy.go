package manifest

import (
	"fmt"

	"github.com/chazu/ilink/vm"
)

// Define registers every declared class in reg, supertypes first, and
// returns them in definition order. Definition order is ID order, so a
// supertype always has a smaller ID than its subtypes.
func (m *Manifest) Define(reg *vm.Registry) ([]*vm.Klass, error) {
	decls := make(map[string]*ClassDecl, len(m.Classes))
	for i := range m.Classes {
		d := &m.Classes[i]
		if d.Name == "" {
			return nil, fmt.Errorf("class %d: missing name", i)
		}
		if _, dup := decls[d.Name]; dup {
			return nil, fmt.Errorf("class %s: %w", d.Name, vm.ErrDuplicateKlass)
		}
		decls[d.Name] = d
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var defined []*vm.Klass

	var define func(name, from string) (*vm.Klass, error)
	define = func(name, from string) (*vm.Klass, error) {
		d, ok := decls[name]
		if !ok {
			if k := reg.Lookup(name); k != nil {
				return k, nil
			}
			return nil, fmt.Errorf("class %s: unknown type %s", from, name)
		}
		switch state[name] {
		case done:
			return reg.Lookup(name), nil
		case visiting:
			return nil, fmt.Errorf("class %s: hierarchy cycle through %s", from, name)
		}
		state[name] = visiting

		var super *vm.Klass
		if d.Super != "" {
			k, err := define(d.Super, name)
			if err != nil {
				return nil, err
			}
			super = k
		}
		ifaces := make([]*vm.Klass, 0, len(d.Interfaces))
		for _, iname := range d.Interfaces {
			k, err := define(iname, name)
			if err != nil {
				return nil, err
			}
			ifaces = append(ifaces, k)
		}

		var flags vm.KlassFlags
		if d.Interface {
			flags |= vm.KlassInterface
		}
		if d.Abstract {
			flags |= vm.KlassAbstract
		}
		k, err := reg.Define(d.Name, d.Package, flags, super, ifaces...)
		if err != nil {
			return nil, err
		}
		for _, md := range d.Methods {
			acc, err := md.flags()
			if err != nil {
				return nil, fmt.Errorf("class %s: method %s: %w", d.Name, md.Name, err)
			}
			k.AddMethod(md.Name, md.Signature, acc, nil)
		}

		state[name] = done
		defined = append(defined, k)
		return k, nil
	}

	for _, d := range m.Classes {
		if _, err := define(d.Name, d.Name); err != nil {
			return nil, err
		}
	}
	return defined, nil
}

func (md MethodDecl) flags() (vm.AccessFlags, error) {
	var f vm.AccessFlags
	switch md.Access {
	case "", "public":
		f = vm.AccPublic
	case "protected":
		f = vm.AccProtected
	case "private":
		f = vm.AccPrivate
	case "package":
	default:
		return 0, fmt.Errorf("unknown access %q", md.Access)
	}
	if md.Abstract {
		f |= vm.AccAbstract
	}
	if md.Static {
		f |= vm.AccStatic
	}
	if md.Name == "" || md.Signature == "" {
		return 0, fmt.Errorf("name and signature are required")
	}
	return f, nil
}
