package vm

import "testing"

func testNames() *NameTable {
	return &NameTable{
		Slots: map[string]int{
			"sys.subroutine": 0,
			"sys.box":        1,
			"sys.text":       2,
			"flag":           3,
			"count":          4,
		},
		SubroutineVar: 0,
		BoxVar:        1,
		TextVar:       2,
	}
}

func TestGlobalsLazyDefault(t *testing.T) {
	g := NewGlobals(8, testNames())

	v := g.Get(3)
	if !v.IsInt() || v.Int() != 0 {
		t.Errorf("first read of untouched slot = %s (%s), want integer 0", v, v.Kind())
	}
	// And the slot stays materialized.
	if g.slots[3].IsUninit() {
		t.Error("slot should no longer be uninitialized after first read")
	}
}

func TestGlobalsSetGet(t *testing.T) {
	g := NewGlobals(8, testNames())
	g.Set(4, FromString("ch_02"))
	if got := g.Get(4); got.Str() != "ch_02" {
		t.Errorf("Get(4) = %s", got)
	}
}

func TestGlobalsLookup(t *testing.T) {
	g := NewGlobals(8, testNames())
	slot, ok := g.Lookup("flag")
	if !ok || slot != 3 {
		t.Errorf("Lookup(flag) = %d, %v", slot, ok)
	}
	if _, ok := g.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestGlobalsSystemNames(t *testing.T) {
	g := NewGlobals(8, testNames())
	g.setSystemNames("msgwin", "t_0042")
	if got := g.Get(1); got.Str() != "msgwin" {
		t.Errorf("box slot = %s", got)
	}
	if got := g.Get(2); got.Str() != "t_0042" {
		t.Errorf("text slot = %s", got)
	}
}

func TestGlobalsRejectsOutOfRangeMapping(t *testing.T) {
	expectPanic(t, "slot beyond capacity", func() {
		NewGlobals(2, testNames())
	})
}
