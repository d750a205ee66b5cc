package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Stack Operations
const (
	OpNop Opcode = 0x00 // no operation
	OpPop Opcode = 0x01 // discard top of stack
	OpDup Opcode = 0x02 // duplicate top of stack
)

// Immediate Loads
const (
	OpPushZero   Opcode = 0x10 // push integer 0
	OpPushOne    Opcode = 0x11 // push integer 1
	OpPushTrue   Opcode = 0x12 // push true
	OpPushFalse  Opcode = 0x13 // push false
	OpPushNull   Opcode = 0x14 // push null
	OpPushBlank  Opcode = 0x15 // push the empty string
	OpPushConst  Opcode = 0x16 // push constant-pool entry (16-bit index)
	OpPushString Opcode = 0x17 // push string-pool entry (16-bit token)
)

// Variable and Argument Operations
const (
	OpLoadGlobal  Opcode = 0x20 // push global slot (16-bit slot)
	OpStoreGlobal Opcode = 0x21 // pop into global slot (16-bit slot)
	OpLoadArg0    Opcode = 0x22 // push argument 0
	OpLoadArg1    Opcode = 0x23 // push argument 1
	OpLoadArg2    Opcode = 0x24 // push argument 2
	OpLoadArg3    Opcode = 0x25 // push argument 3
	OpLoadArg     Opcode = 0x26 // push argument (8-bit index)
	OpStoreArg0   Opcode = 0x27 // pop into argument 0
	OpStoreArg1   Opcode = 0x28 // pop into argument 1
	OpStoreArg2   Opcode = 0x29 // pop into argument 2
	OpStoreArg3   Opcode = 0x2A // pop into argument 3
	OpStoreArg    Opcode = 0x2B // pop into argument (8-bit index)
)

// Operators
const (
	OpBinary   Opcode = 0x30 // pop two, apply operator (8-bit BinOp), push result
	OpEqual    Opcode = 0x31 // pop two, push equality
	OpNotEqual Opcode = 0x32 // pop two, push inequality
	OpNeg      Opcode = 0x33 // negate top in place
	OpInc      Opcode = 0x34 // increment integer top in place
	OpDec      Opcode = 0x35 // decrement integer top in place
	OpDelta    Opcode = 0x36 // retag integer top as relative offset
	OpInvert   Opcode = 0x37 // logical-not boolean top in place
)

// Control Flow. Jump offsets are signed 16-bit and relative to the
// position of the jump opcode itself.
const (
	OpJump      Opcode = 0x40 // unconditional jump (16-bit offset)
	OpJumpTrue  Opcode = 0x41 // pop, jump if truthy (16-bit offset)
	OpJumpFalse Opcode = 0x42 // pop, jump if falsy (16-bit offset)
	OpCall      Opcode = 0x43 // call subroutine (16-bit name token, 8-bit argc)
	OpCallFar   Opcode = 0x44 // call imported module (8-bit import, 16-bit name token, 8-bit argc)
	OpReturn    Opcode = 0x45 // pop current call frame
)

// Host Operations
const (
	OpDispatch     Opcode = 0x50 // invoke built-in (16-bit function id, 8-bit argc)
	OpActivateText Opcode = 0x51 // activate dialogue block (16-bit block token)
	OpSelectStart  Opcode = 0x52 // open a choice-menu wait
	OpIsPressed    Opcode = 0x53 // push whether named choice is pressed (16-bit string token)
	OpSelectEnd    Opcode = 0x54 // park the thread until a choice lands
	OpPresentText  Opcode = 0x55 // begin a dialogue line (16-bit string token)
	OpAwaitInput   Opcode = 0x56 // wait for host input
)

// Curve Literals
const (
	OpBezierStart Opcode = 0x60 // reset the segment accumulator
	OpBezierSeg   Opcode = 0x61 // pop 8 coordinates into one segment
	OpBezierEnd   Opcode = 0x62 // push accumulated segments as a curve value
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name         string // human-readable name
	OperandBytes int    // number of operand bytes
	StackEffect  int    // net effect on stack (-99 = variable)
}

// StackEffectVariable marks opcodes whose stack effect depends on operands.
const StackEffectVariable = -99

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpNop: {"NOP", 0, 0},
	OpPop: {"POP", 0, -1},
	OpDup: {"DUP", 0, 1},

	OpPushZero:   {"PUSH_ZERO", 0, 1},
	OpPushOne:    {"PUSH_ONE", 0, 1},
	OpPushTrue:   {"PUSH_TRUE", 0, 1},
	OpPushFalse:  {"PUSH_FALSE", 0, 1},
	OpPushNull:   {"PUSH_NULL", 0, 1},
	OpPushBlank:  {"PUSH_BLANK", 0, 1},
	OpPushConst:  {"PUSH_CONST", 2, 1},
	OpPushString: {"PUSH_STRING", 2, 1},

	OpLoadGlobal:  {"LOAD_GLOBAL", 2, 1},
	OpStoreGlobal: {"STORE_GLOBAL", 2, -1},
	OpLoadArg0:    {"LOAD_ARG0", 0, 1},
	OpLoadArg1:    {"LOAD_ARG1", 0, 1},
	OpLoadArg2:    {"LOAD_ARG2", 0, 1},
	OpLoadArg3:    {"LOAD_ARG3", 0, 1},
	OpLoadArg:     {"LOAD_ARG", 1, 1},
	OpStoreArg0:   {"STORE_ARG0", 0, -1},
	OpStoreArg1:   {"STORE_ARG1", 0, -1},
	OpStoreArg2:   {"STORE_ARG2", 0, -1},
	OpStoreArg3:   {"STORE_ARG3", 0, -1},
	OpStoreArg:    {"STORE_ARG", 1, -1},

	OpBinary:   {"BINARY", 1, -1},
	OpEqual:    {"EQUAL", 0, -1},
	OpNotEqual: {"NOT_EQUAL", 0, -1},
	OpNeg:      {"NEG", 0, 0},
	OpInc:      {"INC", 0, 0},
	OpDec:      {"DEC", 0, 0},
	OpDelta:    {"DELTA", 0, 0},
	OpInvert:   {"INVERT", 0, 0},

	OpJump:      {"JUMP", 2, 0},
	OpJumpTrue:  {"JUMP_TRUE", 2, -1},
	OpJumpFalse: {"JUMP_FALSE", 2, -1},
	OpCall:      {"CALL", 3, StackEffectVariable},
	OpCallFar:   {"CALL_FAR", 4, StackEffectVariable},
	OpReturn:    {"RETURN", 0, StackEffectVariable},

	OpDispatch:     {"DISPATCH", 3, StackEffectVariable},
	OpActivateText: {"ACTIVATE_TEXT", 2, 0},
	OpSelectStart:  {"SELECT_START", 0, 0},
	OpIsPressed:    {"IS_PRESSED", 2, 1},
	OpSelectEnd:    {"SELECT_END", 0, 0},
	OpPresentText:  {"PRESENT_TEXT", 2, 0},
	OpAwaitInput:   {"AWAIT_INPUT", 0, 0},

	OpBezierStart: {"BEZIER_START", 0, 0},
	OpBezierSeg:   {"BEZIER_SEG", 0, -8},
	OpBezierEnd:   {"BEZIER_END", 0, 1},
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the human-readable name for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// OperandBytes returns the number of operand bytes for an opcode.
func (op Opcode) OperandBytes() int {
	return op.Info().OperandBytes
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// ---------------------------------------------------------------------------
// Disassembler
// ---------------------------------------------------------------------------

// Disassemble renders one subroutine's bytecode as a listing, one
// instruction per line with offsets and decoded operands.
func Disassemble(m *Module, sub int) string {
	var sb strings.Builder
	s := &m.Subroutines[sub]
	fmt.Fprintf(&sb, "%s.%s:\n", m.Name, s.Name)
	code := s.Code
	pc := 0
	for pc < len(code) {
		op := Opcode(code[pc])
		info := op.Info()
		fmt.Fprintf(&sb, "  %04X  %-14s", pc, info.Name)
		operand := code[pc+1:]
		switch op {
		case OpPushConst:
			idx := binary.LittleEndian.Uint16(operand)
			fmt.Fprintf(&sb, " %d  ; %s", idx, m.ConstValue(int(idx)))
		case OpPushString, OpIsPressed, OpPresentText:
			tok := binary.LittleEndian.Uint16(operand)
			fmt.Fprintf(&sb, " %d  ; %q", tok, m.StringAt(int(tok)))
		case OpLoadGlobal, OpStoreGlobal, OpActivateText:
			fmt.Fprintf(&sb, " %d", binary.LittleEndian.Uint16(operand))
		case OpLoadArg, OpStoreArg:
			fmt.Fprintf(&sb, " %d", operand[0])
		case OpBinary:
			fmt.Fprintf(&sb, " %s", BinOp(operand[0]))
		case OpJump, OpJumpTrue, OpJumpFalse:
			off := int16(binary.LittleEndian.Uint16(operand))
			fmt.Fprintf(&sb, " %+d  ; -> %04X", off, pc+int(off))
		case OpCall:
			tok := binary.LittleEndian.Uint16(operand)
			fmt.Fprintf(&sb, " %q argc=%d", m.StringAt(int(tok)), operand[2])
		case OpCallFar:
			imp := operand[0]
			tok := binary.LittleEndian.Uint16(operand[1:])
			fmt.Fprintf(&sb, " %s.%q argc=%d", m.ImportAt(int(imp)), m.StringAt(int(tok)), operand[3])
		case OpDispatch:
			fn := binary.LittleEndian.Uint16(operand)
			fmt.Fprintf(&sb, " fn=%d argc=%d", fn, operand[2])
		}
		sb.WriteByte('\n')
		pc += 1 + info.OperandBytes
	}
	return sb.String()
}
