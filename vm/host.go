package vm

// ---------------------------------------------------------------------------
// Host: Built-in dispatch and dialogue side channels
// ---------------------------------------------------------------------------

// FuncID identifies a built-in function in a DISPATCH instruction.
type FuncID uint16

// Diagnostic built-ins handled by the interpreter itself. Host function
// ids start at FirstHostFunc.
const (
	FnLog      FuncID = 0x01 // log(values...)
	FnAssert   FuncID = 0x02 // assert(cond)
	FnAssertEq FuncID = 0x03 // asserteq(a, b)
	FnFail     FuncID = 0x04 // fail()
	FnFailMsg  FuncID = 0x05 // fail_msg(text)

	FirstHostFunc FuncID = 0x10
)

// Host executes built-in functions and presents dialogue on behalf of
// the VM. All methods are called synchronously from inside a tick and
// must return promptly: a wait that spans host frames is expressed by
// the calling thread yielding (and, if the host needs it, suspending
// the thread through the scheduler API), never by blocking in here.
type Host interface {
	// Dispatch runs a built-in function. The args slice aliases the
	// calling thread's stack and must not be retained. The boolean
	// reports whether a result value was produced.
	Dispatch(fn FuncID, args []Value) (Value, bool)

	// BeginDialogueLine hands a decoded dialogue line to the host for
	// presentation. The calling thread yields right after.
	BeginDialogueLine(text string)

	// WaitForInput notifies the host that the calling thread is about
	// to yield until player input.
	WaitForInput()

	// IsChoicePressed reports whether the named choice was activated
	// since the current choice menu opened.
	IsChoicePressed(name string) bool
}
