package itable

import (
	"fmt"

	"github.com/chazu/ilink/vm"
)

// InvariantError is the panic value raised when table construction finds
// its own state inconsistent. It indicates a defect, not bad input.
type InvariantError struct {
	Klass string
	Msg   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("itable: %s: %s", e.Klass, e.Msg)
}

func invariant(k *vm.Klass, format string, args ...any) {
	name := "<nil>"
	if k != nil {
		name = k.Name
	}
	panic(&InvariantError{Klass: name, Msg: fmt.Sprintf(format, args...)})
}
