package vm

import (
	"strings"
	"testing"
)

var allOpcodes = []Opcode{
	OpNop, OpPop, OpDup,
	OpPushZero, OpPushOne, OpPushTrue, OpPushFalse, OpPushNull, OpPushBlank,
	OpPushConst, OpPushString,
	OpLoadGlobal, OpStoreGlobal,
	OpLoadArg0, OpLoadArg1, OpLoadArg2, OpLoadArg3, OpLoadArg,
	OpStoreArg0, OpStoreArg1, OpStoreArg2, OpStoreArg3, OpStoreArg,
	OpBinary, OpEqual, OpNotEqual, OpNeg, OpInc, OpDec, OpDelta, OpInvert,
	OpJump, OpJumpTrue, OpJumpFalse, OpCall, OpCallFar, OpReturn,
	OpDispatch, OpActivateText, OpSelectStart, OpIsPressed, OpSelectEnd,
	OpPresentText, OpAwaitInput,
	OpBezierStart, OpBezierSeg, OpBezierEnd,
}

func TestEveryOpcodeHasMetadata(t *testing.T) {
	for _, op := range allOpcodes {
		info := op.Info()
		if strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode %02X has no table entry", byte(op))
		}
		if info.OperandBytes < 0 || info.OperandBytes > 4 {
			t.Errorf("opcode %s has implausible operand size %d", info.Name, info.OperandBytes)
		}
	}
}

func TestUnknownOpcodeInfo(t *testing.T) {
	info := Opcode(0xEE).Info()
	if info.Name != "UNKNOWN_EE" {
		t.Errorf("Info name = %q", info.Name)
	}
}

func TestBuilderEmitsLittleEndian(t *testing.T) {
	b := NewCodeBuilder()
	b.EmitUint16(OpPushConst, 0x1234)
	want := []byte{byte(OpPushConst), 0x34, 0x12}
	got := b.Bytes()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %02X, want %02X", i, got[i], want[i])
		}
	}
}

// Jump offsets are relative to the jump opcode itself, for both forward
// and backward targets.
func TestBuilderLabelPatching(t *testing.T) {
	b := NewCodeBuilder()
	top := b.NewLabel()
	b.Mark(top)
	b.Emit(OpNop)                // 0
	exit := b.NewLabel()
	b.EmitJump(OpJumpTrue, exit) // 1: forward, patched at Mark
	b.EmitJump(OpJump, top)      // 4: backward, resolved immediately
	b.Mark(exit)                 // 7
	b.Emit(OpReturn)

	code := b.Bytes()
	fwd := int16(uint16(code[2]) | uint16(code[3])<<8)
	if int(fwd) != 7-1 {
		t.Errorf("forward offset = %d, want %d", fwd, 6)
	}
	back := int16(uint16(code[5]) | uint16(code[6])<<8)
	if int(back) != 0-4 {
		t.Errorf("backward offset = %d, want %d", back, -4)
	}
}

func TestDisassembleListing(t *testing.T) {
	b := NewCodeBuilder()
	b.EmitUint16(OpPushConst, 0)
	b.EmitUint16(OpPushString, 1)
	b.EmitBinary(BinAdd)
	b.EmitCall(0, 2)
	b.EmitDispatch(FuncID(0x10), 1)
	b.Emit(OpReturn)

	m := &Module{
		Name:    "demo",
		Strings: []string{"intro", "world"},
		Consts:  []Const{{Kind: ConstInt, Num: 41}},
		Subroutines: []Subroutine{
			{Name: "main", Code: b.Bytes()},
		},
	}

	out := Disassemble(m, 0)
	for _, want := range []string{
		"demo.main:",
		"PUSH_CONST", "; 41",
		"PUSH_STRING", `"world"`,
		"BINARY", "+",
		"CALL", `"intro"`,
		"DISPATCH", "fn=16 argc=1",
		"RETURN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}
