// Package vm holds the object model that interface dispatch runs on.
//
// A Klass is a class or an interface with its declared methods. Once
// linked, a klass carries an immutable Tables value: the vtable, the
// miranda methods, and one itable per implemented interface, ordered by
// interface ID. Dispatch reads the published tables without locking.
package vm
