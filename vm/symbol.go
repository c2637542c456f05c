package vm

import "sync"

// ---------------------------------------------------------------------------
// SymbolTable: Interned method names and signatures
// ---------------------------------------------------------------------------

// Symbol is an interned name or signature. Two methods match across classes
// when their name and signature symbols are equal, so matching never
// compares strings.
type Symbol uint32

// NoSymbol is never returned by Intern.
const NoSymbol Symbol = 0

// SymbolTable interns strings to unique Symbols.
//
// The table is append-only. Intern takes the read lock on the fast path so
// classes being linked on different goroutines can share one table.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]Symbol // name -> symbol
	byID   []string          // symbol -> name; slot 0 is reserved for NoSymbol
}

// NewSymbolTable creates a new empty symbol table.
func NewSymbolTable() *SymbolTable {
	byID := make([]string, 1, 256)
	return &SymbolTable{
		byName: make(map[string]Symbol),
		byID:   byID,
	}
}

// Intern returns the symbol for s, creating a new one if needed.
func (st *SymbolTable) Intern(s string) Symbol {
	// Fast path: read-only lookup
	st.mu.RLock()
	if id, ok := st.byName[s]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := st.byName[s]; ok {
		return id
	}

	id := Symbol(len(st.byID))
	st.byName[s] = id
	st.byID = append(st.byID, s)
	return id
}

// Lookup returns the symbol for s, or NoSymbol if s was never interned.
func (st *SymbolTable) Lookup(s string) Symbol {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.byName[s]
}

// Name returns the string for a symbol, or "" if invalid.
func (st *SymbolTable) Name(id Symbol) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if id == NoSymbol || int(id) >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Len returns the number of interned symbols.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID) - 1
}
