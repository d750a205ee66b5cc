package vm

import "fmt"

// ---------------------------------------------------------------------------
// Globals: Shared variable store
// ---------------------------------------------------------------------------

// NameTable maps global variable names to storage slots. It is built
// upstream (the compiler and the manifest agree on it) and handed to the
// VM; three slots are reserved for the system variables the interpreter
// writes itself.
type NameTable struct {
	Slots map[string]int

	// Reserved system-variable slots.
	SubroutineVar int // current subroutine name
	BoxVar        int // current dialogue-box name
	TextVar       int // current text identifier
}

// Globals is the fixed-capacity slot array shared by all threads. Only
// one thread executes at a time, so slot access needs no locking.
type Globals struct {
	slots []Value
	names *NameTable
}

// NewGlobals creates a store with the given capacity and name table.
func NewGlobals(capacity int, names *NameTable) *Globals {
	for name, slot := range names.Slots {
		if slot < 0 || slot >= capacity {
			panic(fmt.Sprintf("global %q mapped to slot %d outside capacity %d", name, slot, capacity))
		}
	}
	return &Globals{
		slots: make([]Value, capacity),
		names: names,
	}
}

// Names returns the name table the store was built with.
func (g *Globals) Names() *NameTable {
	return g.names
}

// Get reads a slot. An uninitialized slot defaults to integer 0 on
// first read.
func (g *Globals) Get(slot int) Value {
	if g.slots[slot].IsUninit() {
		g.slots[slot] = FromInt(0)
	}
	return g.slots[slot]
}

// Set writes a slot.
func (g *Globals) Set(slot int, v Value) {
	g.slots[slot] = v
}

// Lookup resolves a variable name to its slot. Hosts resolve once and
// then read slots directly.
func (g *Globals) Lookup(name string) (int, bool) {
	slot, ok := g.names.Slots[name]
	return slot, ok
}

// setSystemNames mirrors the dialogue-block names into the reserved
// slots. Called by the interpreter on ACTIVATE_TEXT.
func (g *Globals) setSystemNames(box, text string) {
	g.slots[g.names.BoxVar] = FromString(box)
	g.slots[g.names.TextVar] = FromString(text)
}
