// Package itable builds interface dispatch tables.
//
// Construction runs in three passes around the external vtable builder:
//
//   - Create (pass 1) walks every interface the class implements and records,
//     for each interface method, where its implementation will be found: an
//     inherited vtable slot, a declared method, or a miranda method. Methods
//     nobody implements become new mirandas.
//   - Resolve (pass 2) runs once the vtable is built. It settles
//     abstract-versus-default and default-versus-default conflicts by
//     rebinding vtable slots and miranda entries. Unrelated defaults become
//     poison pills.
//   - Materialize (pass 3) copies the resolved methods out into one itable per
//     interface, ordered by interface ID.
//
// Interfaces themselves only need their closure; see InterfaceKlassTable.
package itable
