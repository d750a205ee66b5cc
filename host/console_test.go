package host

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/karasuma/scena/vm"
)

func newTestConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(input), &out)
	c.rng = rand.New(rand.NewSource(1))
	return c, &out
}

func TestDispatchUnknownBuiltin(t *testing.T) {
	c, _ := newTestConsole("")
	_, ok := c.Dispatch(vm.FuncID(0xFFFF), nil)
	if ok {
		t.Error("unknown builtin produced a value")
	}
}

func TestRandomBuiltin(t *testing.T) {
	c, _ := newTestConsole("")
	for i := 0; i < 100; i++ {
		v, ok := c.Dispatch(FnRandom, []vm.Value{vm.FromInt(6)})
		if !ok {
			t.Fatal("random produced no value")
		}
		if n := v.Int(); n < 0 || n >= 6 {
			t.Fatalf("random(6) = %d", n)
		}
	}
	v, ok := c.Dispatch(FnRandom, []vm.Value{vm.FromInt(0)})
	if !ok || v.Int() != 0 {
		t.Errorf("random(0) = %s, %v", v, ok)
	}
}

func TestMovePictureResolvesDeltas(t *testing.T) {
	c, _ := newTestConsole("")
	c.Dispatch(FnShowPicture, []vm.Value{vm.FromString("yuki")})
	c.Dispatch(FnMovePicture, []vm.Value{
		vm.FromString("yuki"), vm.FromInt(100), vm.FromInt(50),
	})
	if pos := c.positions["yuki"]; pos != [2]int64{100, 50} {
		t.Fatalf("absolute move: pos = %v", pos)
	}

	// Deltas offset the current position, absolutes replace it.
	c.Dispatch(FnMovePicture, []vm.Value{
		vm.FromString("yuki"), vm.FromDelta(-20), vm.FromInt(80),
	})
	if pos := c.positions["yuki"]; pos != [2]int64{80, 80} {
		t.Errorf("relative move: pos = %v", pos)
	}

	c.Dispatch(FnHidePicture, []vm.Value{vm.FromString("yuki")})
	if _, ok := c.positions["yuki"]; ok {
		t.Error("picture still positioned after hide")
	}
}

func TestDialogueGoesToOutput(t *testing.T) {
	c, out := newTestConsole("\n")
	c.BeginDialogueLine("The snow kept falling.")
	c.WaitForInput()
	if got := out.String(); got != "The snow kept falling.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSetTitle(t *testing.T) {
	c, out := newTestConsole("")
	c.Dispatch(FnSetTitle, []vm.Value{vm.FromString("Chapter 1")})
	if !strings.Contains(out.String(), "Chapter 1") {
		t.Errorf("output = %q", out.String())
	}
}

// The script polls choice names in a loop; the console prompts once it
// sees the cycle repeat, then answers true for exactly the picked name.
func TestChoicePromptOnCycle(t *testing.T) {
	c, out := newTestConsole("2\n")

	if c.IsChoicePressed("yes") || c.IsChoicePressed("no") {
		t.Fatal("choice pressed before any prompt")
	}
	// Second cycle: prompt fires, player picks 2 ("no").
	if c.IsChoicePressed("yes") {
		t.Fatal("unpicked choice reported pressed")
	}
	if !strings.Contains(out.String(), "1) yes") || !strings.Contains(out.String(), "2) no") {
		t.Fatalf("prompt output = %q", out.String())
	}
	if !c.IsChoicePressed("no") {
		t.Fatal("picked choice not reported pressed")
	}

	// Menu state resets: a later menu prompts independently.
	if c.IsChoicePressed("left") || c.IsChoicePressed("right") {
		t.Error("stale menu state leaked into the next menu")
	}
}

func TestChoicePromptRejectsBadInput(t *testing.T) {
	c, _ := newTestConsole("zero\n9\n1\n")
	c.IsChoicePressed("stay")
	c.IsChoicePressed("leave")
	if !c.IsChoicePressed("stay") {
		t.Error("prompt did not settle on choice 1 after invalid input")
	}
}

// wait(ms) parks the calling thread via the scheduler; with a zero
// duration the next poll wakes it immediately.
func TestWaitSuspendsCallingThread(t *testing.T) {
	b := vm.NewCodeBuilder()
	b.EmitUint16(vm.OpPushConst, 0)
	b.EmitDispatch(FnWait, 1)
	b.Emit(vm.OpPushOne)
	b.EmitUint16(vm.OpStoreGlobal, 3)
	mod := &vm.Module{
		Name:        "m",
		Consts:      []vm.Const{{Kind: vm.ConstInt, Num: 0}},
		Subroutines: []vm.Subroutine{{Name: "main", Code: b.Bytes()}},
	}

	c, _ := newTestConsole("")
	loader := loaderFunc(func(name string) (*vm.Module, error) { return mod, nil })
	names := &vm.NameTable{
		Slots:         map[string]int{"sys.subroutine": 0, "sys.box": 1, "sys.text": 2, "done": 3},
		SubroutineVar: 0, BoxVar: 1, TextVar: 2,
	}
	machine := vm.NewVM(loader, c, vm.NewGlobals(8, names))
	c.AttachVM(machine)

	if _, err := machine.CreateThread("main", "m", "main", true); err != nil {
		t.Fatal(err)
	}

	machine.Run()
	machine.Run()
	if got := machine.Globals().Get(3); got.Int() != 0 {
		t.Fatal("thread ran past wait while suspended")
	}

	if !machine.RefreshThreadState() {
		t.Fatal("zero-duration wait did not wake on poll")
	}
	machine.Run()
	if got := machine.Globals().Get(3); got.Int() != 1 {
		t.Error("thread did not continue after waking")
	}
}

type loaderFunc func(name string) (*vm.Module, error)

func (f loaderFunc) Load(name string) (*vm.Module, error) { return f(name) }
