package vm

import "errors"

var (
	// ErrIncompatibleClassChange is returned when an interface call cannot be
	// bound, most notably when it selects a poison pill left by two
	// unrelated default methods.
	ErrIncompatibleClassChange = errors.New("incompatible class change")

	// ErrAbstractMethod is returned when an interface call selects a method
	// with no code.
	ErrAbstractMethod = errors.New("abstract method")

	// ErrNotLinked is returned when dispatching through a klass whose tables
	// have not been published yet.
	ErrNotLinked = errors.New("klass not linked")

	ErrDuplicateKlass = errors.New("duplicate klass")
	ErrNotInterface   = errors.New("not an interface")
)
