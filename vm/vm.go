package vm

import (
	"fmt"
	"time"

	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// VM: Thread registry and cooperative scheduler
// ---------------------------------------------------------------------------

type actionKind int

const (
	actionCreate actionKind = iota
	actionTerminate
	actionSuspend
	actionResume
)

// threadAction is one queued lifecycle request. Actions are applied
// strictly between scheduling passes; a thread's state never changes
// mid-tick.
type threadAction struct {
	kind    actionKind
	thread  *Thread
	wake    time.Duration
	hasWake bool
}

// VM owns the thread registry, the pending-action queue and the global
// variable store. Script threads are cooperative tasks driven from one
// goroutine; nothing here is safe for concurrent use.
type VM struct {
	loader  ModuleLoader
	host    Host
	globals *Globals
	interp  *Interpreter

	threads []*Thread // registry, in creation order
	byName  map[string]*Thread
	pending []threadAction
	main    *Thread
	running *Thread

	clock func() time.Time
	log   commonlog.Logger
}

// NewVM creates a machine over the given module loader, host and
// global store.
func NewVM(loader ModuleLoader, host Host, globals *Globals) *VM {
	return &VM{
		loader:  loader,
		host:    host,
		globals: globals,
		interp:  NewInterpreter(globals, host, loader),
		byName:  make(map[string]*Thread),
		clock:   time.Now,
		log:     commonlog.GetLogger("scena.sched"),
	}
}

// Globals exposes the global variable store for host introspection.
func (vm *VM) Globals() *Globals {
	return vm.globals
}

// Running returns the thread currently inside a tick, or nil. Host
// built-ins use it to suspend their caller.
func (vm *VM) Running() *Thread {
	return vm.running
}

// ---------------------------------------------------------------------------
// Thread lifecycle API
// ---------------------------------------------------------------------------

// CreateThread queues a new thread running the named subroutine of the
// named module. The thread exists after the next scheduling pass; with
// start false it is created suspended and runs only once resumed. The
// first thread ever created becomes the main thread.
func (vm *VM) CreateThread(name, moduleName, entry string, start bool) (*Thread, error) {
	if _, taken := vm.byName[name]; taken {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateThread, name)
	}
	for _, a := range vm.pending {
		if a.kind == actionCreate && a.thread.Name == name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateThread, name)
		}
	}

	mod, err := vm.loader.Load(moduleName)
	if err != nil {
		return nil, fmt.Errorf("create thread %q: %w", name, err)
	}
	sub, ok := mod.SubroutineIndex(entry)
	if !ok {
		return nil, fmt.Errorf("create thread %q: %w: %q in module %q",
			name, ErrUnknownSubroutine, entry, moduleName)
	}

	t := &Thread{Name: name}
	t.pushFrame(CallFrame{Module: mod, Sub: sub})

	vm.pending = append(vm.pending, threadAction{kind: actionCreate, thread: t})
	if !start {
		vm.pending = append(vm.pending, threadAction{kind: actionSuspend, thread: t})
	}
	if vm.main == nil {
		vm.main = t
	}
	vm.log.Debugf("thread %q created (entry %s.%s, start=%v)", name, moduleName, entry, start)
	return t, nil
}

// SuspendThread queues an indefinite suspension; the thread stays
// parked until explicitly resumed.
func (vm *VM) SuspendThread(t *Thread) {
	vm.pending = append(vm.pending, threadAction{kind: actionSuspend, thread: t})
}

// SuspendThreadFor queues a timed suspension; RefreshThreadState wakes
// the thread once the duration has elapsed.
func (vm *VM) SuspendThreadFor(t *Thread, d time.Duration) {
	vm.pending = append(vm.pending, threadAction{kind: actionSuspend, thread: t, wake: d, hasWake: true})
}

// ResumeThread queues a resume, clearing any wake timeout.
func (vm *VM) ResumeThread(t *Thread) {
	vm.pending = append(vm.pending, threadAction{kind: actionResume, thread: t})
}

// TerminateThread queues removal of a thread from the registry. The
// thread's frames are simply dropped.
func (vm *VM) TerminateThread(t *Thread) {
	vm.pending = append(vm.pending, threadAction{kind: actionTerminate, thread: t})
}

// SuspendMainThread suspends the first-created thread.
func (vm *VM) SuspendMainThread() {
	if vm.main != nil {
		vm.SuspendThread(vm.main)
	}
}

// ResumeMainThread resumes the first-created thread.
func (vm *VM) ResumeMainThread() {
	if vm.main != nil {
		vm.ResumeThread(vm.main)
	}
}

// TryGetThread looks a thread up by name.
func (vm *VM) TryGetThread(name string) (*Thread, bool) {
	t, ok := vm.byName[name]
	return t, ok
}

// ThreadCount returns the number of registered threads plus pending
// creations, so a host loop can tell when the script world is empty.
func (vm *VM) ThreadCount() int {
	n := len(vm.threads)
	for _, a := range vm.pending {
		if a.kind == actionCreate {
			n++
		}
	}
	return n
}

// registered reports whether t is currently in the registry.
func (vm *VM) registered(t *Thread) bool {
	return vm.byName[t.Name] == t
}

// applyPending drains the action queue in order. Actions against a
// thread that was terminated earlier in the queue are dropped.
func (vm *VM) applyPending() {
	queue := vm.pending
	vm.pending = nil
	for _, a := range queue {
		switch a.kind {
		case actionCreate:
			vm.threads = append(vm.threads, a.thread)
			vm.byName[a.thread.Name] = a.thread

		case actionTerminate:
			if !vm.registered(a.thread) {
				continue
			}
			delete(vm.byName, a.thread.Name)
			for i, t := range vm.threads {
				if t == a.thread {
					vm.threads = append(vm.threads[:i], vm.threads[i+1:]...)
					break
				}
			}
			vm.log.Debugf("thread %q terminated", a.thread.Name)

		case actionSuspend:
			if !vm.registered(a.thread) {
				continue
			}
			a.thread.suspended = true
			a.thread.suspendedAt = vm.clock()
			a.thread.wakeAfter = a.wake
			a.thread.hasWake = a.hasWake

		case actionResume:
			if !vm.registered(a.thread) {
				continue
			}
			a.thread.suspended = false
			a.thread.hasWake = false
		}
	}
}

// ---------------------------------------------------------------------------
// Scheduling
// ---------------------------------------------------------------------------

// Run drives one round-robin scheduling invocation: apply pending
// actions, tick every runnable thread once in registration order, and
// repeat the sweep for threads created or resumed along the way. No
// thread is ticked more than once per invocation. Returns whether any
// work was performed.
func (vm *VM) Run() bool {
	worked := false
	for {
		vm.applyPending()

		progress := false
		// Ticks may queue creations; iterate over a snapshot so new
		// threads wait for the next sweep.
		snapshot := vm.threads
		for _, t := range snapshot {
			if t.suspended || t.yielded || !vm.registered(t) {
				continue
			}
			t.yielded = true
			vm.running = t
			outcome := vm.interp.Tick(t)
			vm.running = nil
			progress = true
			worked = true
			if outcome == Finished {
				vm.TerminateThread(t)
			}
		}

		if !progress && len(vm.pending) == 0 {
			break
		}
	}

	for _, t := range vm.threads {
		t.yielded = false
	}
	return worked
}

// RefreshThreadState wakes timed-suspended threads whose deadline has
// elapsed. Wake-up is polled, not interrupt-driven: the host must call
// this on a regular cadence (typically once per frame). Returns whether
// any thread was woken.
func (vm *VM) RefreshThreadState() bool {
	now := vm.clock()
	woke := false
	for _, t := range vm.threads {
		if t.suspended && t.hasWake && now.Sub(t.suspendedAt) >= t.wakeAfter {
			t.suspended = false
			t.hasWake = false
			woke = true
			vm.log.Debugf("thread %q woke after %v", t.Name, t.wakeAfter)
		}
	}
	return woke
}
