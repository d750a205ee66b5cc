package vm

import "encoding/binary"

// ---------------------------------------------------------------------------
// CodeBuilder: Helper for constructing subroutine bytecode
// ---------------------------------------------------------------------------

// CodeBuilder helps construct bytecode sequences. The compiler emits
// through it; tests and tools hand-assemble with it.
type CodeBuilder struct {
	bytes []byte
}

// NewCodeBuilder creates an empty builder.
func NewCodeBuilder() *CodeBuilder {
	return &CodeBuilder{
		bytes: make([]byte, 0, 64),
	}
}

// Bytes returns the constructed bytecode.
func (b *CodeBuilder) Bytes() []byte {
	return b.bytes
}

// Len returns the current length.
func (b *CodeBuilder) Len() int {
	return len(b.bytes)
}

// Emit appends an opcode with no operands.
func (b *CodeBuilder) Emit(op Opcode) {
	b.bytes = append(b.bytes, byte(op))
}

// EmitByte appends an opcode with a single byte operand.
func (b *CodeBuilder) EmitByte(op Opcode, operand byte) {
	b.bytes = append(b.bytes, byte(op), operand)
}

// EmitUint16 appends an opcode with a 16-bit operand (little-endian).
func (b *CodeBuilder) EmitUint16(op Opcode, operand uint16) {
	b.bytes = append(b.bytes, byte(op), byte(operand), byte(operand>>8))
}

// EmitBinary appends a BINARY instruction.
func (b *CodeBuilder) EmitBinary(op BinOp) {
	b.bytes = append(b.bytes, byte(OpBinary), byte(op))
}

// EmitCall appends a CALL instruction.
func (b *CodeBuilder) EmitCall(nameToken uint16, argc uint8) {
	b.bytes = append(b.bytes, byte(OpCall), byte(nameToken), byte(nameToken>>8), argc)
}

// EmitCallFar appends a CALL_FAR instruction.
func (b *CodeBuilder) EmitCallFar(importIndex uint8, nameToken uint16, argc uint8) {
	b.bytes = append(b.bytes, byte(OpCallFar), importIndex,
		byte(nameToken), byte(nameToken>>8), argc)
}

// EmitDispatch appends a DISPATCH instruction.
func (b *CodeBuilder) EmitDispatch(fn FuncID, argc uint8) {
	b.bytes = append(b.bytes, byte(OpDispatch), byte(fn), byte(fn>>8), argc)
}

// ---------------------------------------------------------------------------
// Label management for jumps
// ---------------------------------------------------------------------------

// Label represents a jump target, possibly not yet emitted. Offsets are
// encoded relative to the position of the jump opcode itself.
type Label struct {
	resolved bool
	position int
	refs     []int // opcode positions awaiting a patch
}

// NewLabel creates an unresolved label.
func (b *CodeBuilder) NewLabel() *Label {
	return &Label{refs: make([]int, 0, 2)}
}

// EmitJump appends a jump instruction targeting a label, patching later
// if the label is still unresolved.
func (b *CodeBuilder) EmitJump(op Opcode, label *Label) {
	at := len(b.bytes)
	if label.resolved {
		off := label.position - at
		b.EmitUint16(op, uint16(int16(off)))
		return
	}
	label.refs = append(label.refs, at)
	b.EmitUint16(op, 0)
}

// Mark resolves a label to the current position and patches every jump
// that referenced it.
func (b *CodeBuilder) Mark(label *Label) {
	if label.resolved {
		panic("label already resolved")
	}
	label.resolved = true
	label.position = len(b.bytes)
	for _, at := range label.refs {
		off := int16(label.position - at)
		binary.LittleEndian.PutUint16(b.bytes[at+1:], uint16(off))
	}
	label.refs = nil
}
