package vm

import (
	"errors"
	"fmt"
)

// Resolution errors. These surface from thread creation and call-site
// resolution; they are ordinary errors, unlike the interpreter's fatal
// invariant panics.
var (
	ErrUnknownModule     = errors.New("unknown module")
	ErrUnknownSubroutine = errors.New("unknown subroutine")
	ErrDuplicateThread   = errors.New("thread name already in use")
)

// ---------------------------------------------------------------------------
// Module: Immutable compiled script unit
// ---------------------------------------------------------------------------

// Module is one compiled script unit. Modules are immutable after load
// and shared by reference across every thread that executes them.
type Module struct {
	Name        string
	Subroutines []Subroutine
	Strings     []string // string pool, addressed by 16-bit token
	Consts      []Const  // constant pool, addressed by 16-bit index
	Imports     []string // module names callable through CALL_FAR
}

// Subroutine is a named, callable code block within a module.
type Subroutine struct {
	Name   string
	Code   []byte
	Blocks []DialogueBlock // dialogue-block descriptors, addressed by token
}

// DialogueBlock associates a script region with a UI box and a text
// identifier. ACTIVATE_TEXT mirrors both into the system variables.
type DialogueBlock struct {
	Box  string
	Text string
}

// ConstKind identifies a constant-pool entry type.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstDelta
	ConstBuiltin // built-in engine constant id
	ConstString  // string-pool token
)

// Const is one constant-pool entry. Num doubles as the string token for
// ConstString entries and the enum id for ConstBuiltin entries.
type Const struct {
	Kind  ConstKind
	Num   int64
	Float float64
}

// SubroutineIndex resolves a subroutine name to its position.
func (m *Module) SubroutineIndex(name string) (int, bool) {
	for i := range m.Subroutines {
		if m.Subroutines[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// StringAt returns a string-pool entry. An out-of-range token means the
// module is corrupt.
func (m *Module) StringAt(token int) string {
	if token < 0 || token >= len(m.Strings) {
		panic(fmt.Sprintf("module %s: string token %d out of bounds (len=%d)",
			m.Name, token, len(m.Strings)))
	}
	return m.Strings[token]
}

// ImportAt returns an import-table entry.
func (m *Module) ImportAt(i int) string {
	if i < 0 || i >= len(m.Imports) {
		panic(fmt.Sprintf("module %s: import index %d out of bounds (len=%d)",
			m.Name, i, len(m.Imports)))
	}
	return m.Imports[i]
}

// ConstValue materializes a constant-pool entry as a runtime value.
func (m *Module) ConstValue(i int) Value {
	if i < 0 || i >= len(m.Consts) {
		panic(fmt.Sprintf("module %s: constant index %d out of bounds (len=%d)",
			m.Name, i, len(m.Consts)))
	}
	c := m.Consts[i]
	switch c.Kind {
	case ConstInt:
		return FromInt(c.Num)
	case ConstFloat:
		return FromFloat(c.Float)
	case ConstDelta:
		return FromDelta(c.Num)
	case ConstBuiltin:
		return FromConst(c.Num)
	case ConstString:
		return FromString(m.StringAt(int(c.Num)))
	}
	panic(fmt.Sprintf("module %s: unknown constant kind %d", m.Name, c.Kind))
}

// ModuleLoader resolves module names to immutable compiled modules.
// Implementations must cache: loading the same name twice returns the
// same *Module.
type ModuleLoader interface {
	Load(name string) (*Module, error)
}
