package vm

// ---------------------------------------------------------------------------
// Stack: Per-thread evaluation stack
// ---------------------------------------------------------------------------

// Stack is a growable value stack. One stack is shared by all call
// frames of a thread; frames address their argument windows through
// absolute indices. Underflow means the module's bytecode is corrupt.
type Stack struct {
	values []Value
}

// Push appends a value.
func (s *Stack) Push(v Value) {
	s.values = append(s.values, v)
}

// Pop removes and returns the top value.
func (s *Stack) Pop() Value {
	n := len(s.values)
	if n == 0 {
		panic("stack underflow")
	}
	v := s.values[n-1]
	s.values = s.values[:n-1]
	return v
}

// Top returns the top value without removing it.
func (s *Stack) Top() Value {
	n := len(s.values)
	if n == 0 {
		panic("stack underflow")
	}
	return s.values[n-1]
}

// At returns the value at an absolute index.
func (s *Stack) At(i int) Value {
	if i < 0 || i >= len(s.values) {
		panic("stack index out of bounds")
	}
	return s.values[i]
}

// Ref returns a pointer to the slot at an absolute index, for in-place
// mutation by the unary operators and argument stores.
func (s *Stack) Ref(i int) *Value {
	if i < 0 || i >= len(s.values) {
		panic("stack index out of bounds")
	}
	return &s.values[i]
}

// TopRef returns a pointer to the top slot.
func (s *Stack) TopRef() *Value {
	n := len(s.values)
	if n == 0 {
		panic("stack underflow")
	}
	return &s.values[n-1]
}

// Span returns the contiguous values [start, start+n) without copying.
// The slice aliases the stack and is only valid until the next push.
func (s *Stack) Span(start, n int) []Value {
	if start < 0 || start+n > len(s.values) {
		panic("stack span out of bounds")
	}
	return s.values[start : start+n]
}

// Len returns the current height.
func (s *Stack) Len() int {
	return len(s.values)
}

// Truncate discards everything at or above height n.
func (s *Stack) Truncate(n int) {
	if n < 0 || n > len(s.values) {
		panic("stack truncate out of bounds")
	}
	s.values = s.values[:n]
}
