package vm

import (
	"math/rand"
	"testing"
)

// The stack must agree with a plain slice simulation for any sequence
// of pushes and pops that never over-pops.
func TestStackMatchesReferenceSimulation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var s Stack
	var ref []Value

	for i := 0; i < 10000; i++ {
		if len(ref) == 0 || rng.Intn(2) == 0 {
			v := FromInt(int64(i))
			s.Push(v)
			ref = append(ref, v)
		} else {
			got := s.Pop()
			want := ref[len(ref)-1]
			ref = ref[:len(ref)-1]
			if !got.Equals(want) {
				t.Fatalf("step %d: Pop = %s, want %s", i, got, want)
			}
		}
		if s.Len() != len(ref) {
			t.Fatalf("step %d: Len = %d, want %d", i, s.Len(), len(ref))
		}
	}

	for i := len(ref) - 1; i >= 0; i-- {
		if got := s.Pop(); !got.Equals(ref[i]) {
			t.Fatalf("drain %d: got %s, want %s", i, got, ref[i])
		}
	}
	if s.Len() != 0 {
		t.Errorf("drained stack has Len %d", s.Len())
	}
}

func TestStackAbsoluteIndexing(t *testing.T) {
	var s Stack
	for i := 0; i < 5; i++ {
		s.Push(FromInt(int64(i * 10)))
	}

	if got := s.At(2); got.Int() != 20 {
		t.Errorf("At(2) = %s, want 20", got)
	}
	if got := s.Top(); got.Int() != 40 {
		t.Errorf("Top = %s, want 40", got)
	}

	// Ref writes through to the slot.
	*s.Ref(1) = FromString("swapped")
	if got := s.At(1); got.Str() != "swapped" {
		t.Errorf("At(1) after Ref write = %s", got)
	}

	// Span aliases the stack without copying.
	span := s.Span(2, 3)
	if len(span) != 3 || span[0].Int() != 20 || span[2].Int() != 40 {
		t.Errorf("Span(2,3) = %v", span)
	}
	span[1] = FromInt(99)
	if s.At(3).Int() != 99 {
		t.Error("Span should alias the underlying stack")
	}
}

func TestStackTruncate(t *testing.T) {
	var s Stack
	for i := 0; i < 8; i++ {
		s.Push(FromInt(int64(i)))
	}
	s.Truncate(3)
	if s.Len() != 3 || s.Top().Int() != 2 {
		t.Errorf("after Truncate(3): Len=%d Top=%s", s.Len(), s.Top())
	}
}

func TestStackUnderflowPanics(t *testing.T) {
	expectPanic(t, "pop empty", func() { var s Stack; s.Pop() })
	expectPanic(t, "top empty", func() { var s Stack; s.Top() })
	expectPanic(t, "over-pop", func() {
		var s Stack
		s.Push(FromInt(1))
		s.Pop()
		s.Pop()
	})
	expectPanic(t, "bad index", func() { var s Stack; s.At(0) })
	expectPanic(t, "bad span", func() {
		var s Stack
		s.Push(FromInt(1))
		s.Span(0, 2)
	})
	expectPanic(t, "bad truncate", func() { var s Stack; s.Truncate(1) })
}
