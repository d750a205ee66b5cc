package vm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Outcome: Result of one interpreter tick
// ---------------------------------------------------------------------------

// Outcome reports how a tick ended.
type Outcome int

const (
	// Continue: the thread reached a natural frame boundary (call,
	// return, built-in dispatch) and has more work on its next turn.
	Continue Outcome = iota

	// Yielded: the thread is blocked on the host (dialogue line,
	// input, choice menu) until something external happens.
	Yielded

	// Finished: the call-frame stack emptied; the thread is done.
	Finished
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Yielded:
		return "yielded"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ---------------------------------------------------------------------------
// Interpreter: Bytecode execution engine
// ---------------------------------------------------------------------------

// Interpreter executes Scena bytecode, one bounded tick at a time.
// Fatal conditions (stack underflow, operator on a wrong tag, unknown
// opcode) panic: they mean the module is corrupt or incompatible, and
// the VM makes no attempt to recover per thread.
type Interpreter struct {
	globals *Globals
	host    Host
	loader  ModuleLoader
	log     commonlog.Logger
}

// NewInterpreter creates an interpreter over the given collaborators.
func NewInterpreter(globals *Globals, host Host, loader ModuleLoader) *Interpreter {
	return &Interpreter{
		globals: globals,
		host:    host,
		loader:  loader,
		log:     commonlog.GetLogger("scena.vm"),
	}
}

// Tick executes one thread from its current program counter until a
// suspension point. It never blocks and never runs another thread.
func (in *Interpreter) Tick(t *Thread) Outcome {
	for {
		f := t.frame()
		code := f.Code()

		if f.PC >= len(code) {
			// Implicit return at end of subroutine code.
			return in.returnFrom(t)
		}

		base := f.PC
		op := Opcode(code[f.PC])
		f.PC++

		switch op {
		// --- Stack operations ---
		case OpNop:
			// Do nothing.

		case OpPop:
			t.stack.Pop()

		case OpDup:
			t.stack.Push(t.stack.Top())

		// --- Immediate loads ---
		case OpPushZero:
			t.stack.Push(FromInt(0))

		case OpPushOne:
			t.stack.Push(FromInt(1))

		case OpPushTrue:
			t.stack.Push(True)

		case OpPushFalse:
			t.stack.Push(False)

		case OpPushNull:
			t.stack.Push(Null)

		case OpPushBlank:
			t.stack.Push(Blank)

		case OpPushConst:
			idx := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			t.stack.Push(f.Module.ConstValue(idx))

		case OpPushString:
			tok := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			t.stack.Push(FromString(f.Module.StringAt(tok)))

		// --- Globals ---
		case OpLoadGlobal:
			slot := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			// The subroutine-name slot is refreshed from the active
			// frame before it is read, so scripts always observe the
			// name of the subroutine actually executing.
			if slot == in.globals.names.SubroutineVar {
				in.globals.Set(slot, FromString(f.SubName()))
			}
			t.stack.Push(in.globals.Get(slot))

		case OpStoreGlobal:
			slot := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			in.globals.Set(slot, t.stack.Pop())

		// --- Argument window ---
		case OpLoadArg0, OpLoadArg1, OpLoadArg2, OpLoadArg3:
			t.stack.Push(t.stack.At(f.ArgBase + int(op-OpLoadArg0)))

		case OpLoadArg:
			idx := int(code[f.PC])
			f.PC++
			t.stack.Push(t.stack.At(f.ArgBase + idx))

		case OpStoreArg0, OpStoreArg1, OpStoreArg2, OpStoreArg3:
			*t.stack.Ref(f.ArgBase + int(op-OpStoreArg0)) = t.stack.Pop()

		case OpStoreArg:
			idx := int(code[f.PC])
			f.PC++
			*t.stack.Ref(f.ArgBase + idx) = t.stack.Pop()

		// --- Operators ---
		case OpBinary:
			binop := BinOp(code[f.PC])
			f.PC++
			b := t.stack.Pop()
			a := t.stack.Pop()
			t.stack.Push(Apply(binop, a, b))

		case OpEqual:
			b := t.stack.Pop()
			a := t.stack.Pop()
			t.stack.Push(FromBool(a.Equals(b)))

		case OpNotEqual:
			b := t.stack.Pop()
			a := t.stack.Pop()
			t.stack.Push(FromBool(!a.Equals(b)))

		case OpNeg:
			t.stack.TopRef().Neg()

		case OpInc:
			t.stack.TopRef().Add1(1)

		case OpDec:
			t.stack.TopRef().Add1(-1)

		case OpDelta:
			t.stack.TopRef().ToDelta()

		case OpInvert:
			t.stack.TopRef().Invert()

		// --- Control flow ---
		case OpJump:
			off := int(int16(binary.LittleEndian.Uint16(code[f.PC:])))
			f.PC = base + off

		case OpJumpTrue:
			off := int(int16(binary.LittleEndian.Uint16(code[f.PC:])))
			f.PC += 2
			if t.stack.Pop().Truthy() {
				f.PC = base + off
			}

		case OpJumpFalse:
			off := int(int16(binary.LittleEndian.Uint16(code[f.PC:])))
			f.PC += 2
			if !t.stack.Pop().Truthy() {
				f.PC = base + off
			}

		case OpCall:
			tok := int(binary.LittleEndian.Uint16(code[f.PC:]))
			argc := int(code[f.PC+2])
			f.PC += 3
			in.call(t, f.Module, f.Module.StringAt(tok), argc)
			return Continue

		case OpCallFar:
			imp := int(code[f.PC])
			tok := int(binary.LittleEndian.Uint16(code[f.PC+1:]))
			argc := int(code[f.PC+3])
			f.PC += 4
			name := f.Module.ImportAt(imp)
			mod, err := in.loader.Load(name)
			if err != nil {
				panic(fmt.Sprintf("call into module %q: %v", name, err))
			}
			in.call(t, mod, f.Module.StringAt(tok), argc)
			return Continue

		case OpReturn:
			return in.returnFrom(t)

		// --- Host operations ---
		case OpDispatch:
			fn := FuncID(binary.LittleEndian.Uint16(code[f.PC:]))
			argc := int(code[f.PC+2])
			f.PC += 3
			in.dispatch(t, fn, argc)
			return Continue

		case OpActivateText:
			tok := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			blocks := f.Module.Subroutines[f.Sub].Blocks
			if tok >= len(blocks) {
				panic(fmt.Sprintf("module %s: dialogue block %d out of bounds (len=%d)",
					f.Module.Name, tok, len(blocks)))
			}
			in.globals.setSystemNames(blocks[tok].Box, blocks[tok].Text)

		case OpSelectStart:
			t.selectPC = f.PC

		case OpIsPressed:
			tok := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			name := strings.TrimPrefix(f.Module.StringAt(tok), "*")
			t.stack.Push(FromBool(in.host.IsChoicePressed(name)))

		case OpSelectEnd:
			// No choice landed this pass: rewind to just after
			// SELECT_START and park until the next one.
			f.PC = t.selectPC
			return Yielded

		case OpPresentText:
			tok := int(binary.LittleEndian.Uint16(code[f.PC:]))
			f.PC += 2
			in.host.BeginDialogueLine(f.Module.StringAt(tok))
			return Yielded

		case OpAwaitInput:
			in.host.WaitForInput()
			return Yielded

		// --- Curve literals ---
		case OpBezierStart:
			t.curve.start()

		case OpBezierSeg:
			var seg CurveSegment
			for p := 3; p >= 0; p-- {
				seg[p].Y = t.stack.Pop()
				seg[p].X = t.stack.Pop()
			}
			t.curve.add(seg)

		case OpBezierEnd:
			t.stack.Push(FromCurve(t.curve.finish()))

		default:
			panic(fmt.Sprintf("unknown opcode: %02X at %s.%s+%04X",
				byte(op), f.Module.Name, f.SubName(), base))
		}
	}
}

// call pushes a frame for a named subroutine. The arguments are the top
// argc values already on the stack; they become the callee's window.
func (in *Interpreter) call(t *Thread, mod *Module, name string, argc int) {
	idx, ok := mod.SubroutineIndex(name)
	if !ok {
		panic(fmt.Sprintf("%v: %q in module %q", ErrUnknownSubroutine, name, mod.Name))
	}
	t.pushFrame(CallFrame{
		Module:   mod,
		Sub:      idx,
		ArgBase:  t.stack.Len() - argc,
		ArgCount: argc,
	})
}

// returnFrom pops the active frame. A value left above the argument
// window is the subroutine's result and is moved to the caller's stack
// top; the arguments themselves are discarded.
func (in *Interpreter) returnFrom(t *Thread) Outcome {
	f := t.popFrame()
	var result Value
	hasResult := t.stack.Len() > f.ArgBase+f.ArgCount
	if hasResult {
		result = t.stack.Pop()
	}
	t.stack.Truncate(f.ArgBase)
	if hasResult {
		t.stack.Push(result)
	}
	if t.Done() {
		return Finished
	}
	return Continue
}

// dispatch runs a DISPATCH instruction: diagnostics in-line, everything
// else through the host. The argument span is popped afterwards; a
// produced value is pushed in its place.
func (in *Interpreter) dispatch(t *Thread, fn FuncID, argc int) {
	args := t.stack.Span(t.stack.Len()-argc, argc)
	var result Value
	var hasResult bool

	switch fn {
	case FnLog:
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		in.log.Info(strings.Join(parts, " "))

	case FnAssert:
		if !args[0].Truthy() {
			panic(fmt.Sprintf("script assertion failed in thread %q", t.Name))
		}

	case FnAssertEq:
		if !args[0].Equals(args[1]) {
			panic(fmt.Sprintf("script assertion failed in thread %q: %s != %s",
				t.Name, args[0], args[1]))
		}

	case FnFail:
		panic(fmt.Sprintf("script failure in thread %q", t.Name))

	case FnFailMsg:
		panic(fmt.Sprintf("script failure in thread %q: %s", t.Name, args[0]))

	default:
		result, hasResult = in.host.Dispatch(fn, args)
	}

	t.stack.Truncate(t.stack.Len() - argc)
	if hasResult {
		t.stack.Push(result)
	}
}
