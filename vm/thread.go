package vm

import "time"

// ---------------------------------------------------------------------------
// CallFrame: Execution state of one subroutine invocation
// ---------------------------------------------------------------------------

// CallFrame records one active invocation: which subroutine of which
// module, where execution resumes, and where the invocation's argument
// window starts on the owning thread's stack. Frames share their module
// by reference and never outlive their thread.
type CallFrame struct {
	Module   *Module
	Sub      int // subroutine index within Module
	PC       int // next instruction offset
	ArgBase  int // absolute stack index of argument 0
	ArgCount int
}

// Code returns the bytecode for this frame's subroutine.
func (f *CallFrame) Code() []byte {
	return f.Module.Subroutines[f.Sub].Code
}

// SubName returns the name of this frame's subroutine.
func (f *CallFrame) SubName() string {
	return f.Module.Subroutines[f.Sub].Name
}

// ---------------------------------------------------------------------------
// Thread: Cooperative unit of script execution
// ---------------------------------------------------------------------------

// Thread is a named cooperative task. It owns its call-frame stack and
// evaluation stack exclusively; the scheduler owns the thread itself.
type Thread struct {
	Name string

	frames []CallFrame
	stack  Stack

	suspended   bool
	suspendedAt time.Time
	wakeAfter   time.Duration
	hasWake     bool

	// yielded marks a thread already ticked in the current Run pass.
	yielded bool

	// selectPC is where SELECT_END rewinds to while a choice menu is
	// open: the instruction right after the matching SELECT_START.
	selectPC int

	curve curveBuilder
}

// frame returns the active (innermost) call frame.
func (t *Thread) frame() *CallFrame {
	if len(t.frames) == 0 {
		panic("thread " + t.Name + " has no active frame")
	}
	return &t.frames[len(t.frames)-1]
}

func (t *Thread) pushFrame(f CallFrame) {
	t.frames = append(t.frames, f)
}

func (t *Thread) popFrame() CallFrame {
	f := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	return f
}

// Done reports whether the thread has nothing left to execute.
func (t *Thread) Done() bool {
	return len(t.frames) == 0
}

// Suspended reports whether the thread is currently parked.
func (t *Thread) Suspended() bool {
	return t.suspended
}

// Depth returns the call-stack depth, for host diagnostics.
func (t *Thread) Depth() int {
	return len(t.frames)
}
