package itable

import "fmt"

// Location says which array an Entry's index refers to. The arrays are
// still being filled in while helper tables are built, so entries record a
// position rather than a method.
type Location uint8

const (
	// SuperVTable indexes the vtable. Slots inherited from the superclass
	// keep their index in the subclass.
	SuperVTable Location = iota
	// Declared indexes the class's own declared methods.
	Declared
	// Mirandas indexes the miranda list.
	Mirandas
)

func (l Location) String() string {
	switch l {
	case SuperVTable:
		return "supervtable"
	case Declared:
		return "declared"
	case Mirandas:
		return "mirandas"
	}
	return fmt.Sprintf("Location(%d)", uint8(l))
}

// Entry locates the implementation of one interface method.
type Entry struct {
	Loc   Location
	Index int
}

func (e Entry) String() string {
	return fmt.Sprintf("%s[%d]", e.Loc, e.Index)
}
