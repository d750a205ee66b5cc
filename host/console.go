// Package host provides the reference console host: a builtin dispatch
// table over the engine primitives and line-based dialogue presentation.
package host

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/karasuma/scena/vm"
)

// Host built-in function ids. The set is closed: scripts compiled for
// this engine can only name these.
const (
	FnWait        vm.FuncID = vm.FirstHostFunc + iota // wait(ms)
	FnRandom                                          // random(n) -> [0,n)
	FnShowPicture                                     // show_picture(name)
	FnMovePicture                                     // move_picture(name, x, y)
	FnHidePicture                                     // hide_picture(name)
	FnPlayMusic                                       // play_music(name)
	FnStopMusic                                       // stop_music()
	FnPlaySound                                       // play_sound(name)
	FnSetTitle                                        // set_title(text)
)

type builtin func(c *Console, args []vm.Value) (vm.Value, bool)

// builtins is the closed dispatch table.
var builtins = map[vm.FuncID]builtin{
	FnWait:        (*Console).wait,
	FnRandom:      (*Console).random,
	FnShowPicture: (*Console).showPicture,
	FnMovePicture: (*Console).movePicture,
	FnHidePicture: (*Console).hidePicture,
	FnPlayMusic:   (*Console).playMusic,
	FnStopMusic:   (*Console).stopMusic,
	FnPlaySound:   (*Console).playSound,
	FnSetTitle:    (*Console).setTitle,
}

// Console implements vm.Host over stdio. Graphics and audio primitives
// are logging stubs that still honor the value semantics (coordinate
// deltas, argument counts) so scripts behave as they would in a full
// presentation layer.
type Console struct {
	machine *vm.VM
	in      *bufio.Scanner
	out     io.Writer
	rng     *rand.Rand
	log     commonlog.Logger

	// Picture positions, for resolving relative move coordinates.
	positions map[string][2]int64

	// Open choice menu state. Names accumulate as the script polls
	// them; a repeated poll means a full cycle went by with nothing
	// selected, which is when the console prompts.
	menuNames []string
	menuSeen  map[string]bool
	selected  string
}

// NewConsole creates a console host over the given streams.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:        bufio.NewScanner(in),
		out:       out,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		log:       commonlog.GetLogger("scena.host"),
		positions: make(map[string][2]int64),
		menuSeen:  make(map[string]bool),
	}
}

// AttachVM hands the console its scheduler handle. Builtins that park
// their calling thread (wait) need it.
func (c *Console) AttachVM(machine *vm.VM) {
	c.machine = machine
}

// ---------------------------------------------------------------------------
// vm.Host implementation
// ---------------------------------------------------------------------------

// Dispatch implements vm.Host.
func (c *Console) Dispatch(fn vm.FuncID, args []vm.Value) (vm.Value, bool) {
	b, ok := builtins[fn]
	if !ok {
		c.log.Warningf("unknown builtin %#04x (%d args), ignoring", uint16(fn), len(args))
		return vm.Value{}, false
	}
	return b(c, args)
}

// BeginDialogueLine implements vm.Host.
func (c *Console) BeginDialogueLine(text string) {
	fmt.Fprintln(c.out, text)
}

// WaitForInput implements vm.Host. The console blocks on Enter; a
// graphical host would instead leave the thread parked until a click.
func (c *Console) WaitForInput() {
	c.in.Scan()
}

// IsChoicePressed implements vm.Host. The script polls each choice name
// once per scheduler pass; the first repeated name means a full menu
// cycle passed with no selection yet, so the console prompts then.
func (c *Console) IsChoicePressed(name string) bool {
	if c.selected != "" {
		if name == c.selected {
			c.resetMenu()
			return true
		}
		return false
	}
	if c.menuSeen[name] {
		c.selected = c.prompt()
		if name == c.selected {
			c.resetMenu()
			return true
		}
		return false
	}
	c.menuSeen[name] = true
	c.menuNames = append(c.menuNames, name)
	return false
}

func (c *Console) prompt() string {
	for {
		for i, name := range c.menuNames {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, name)
		}
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			// Input ran out: take the first choice so the script can
			// still make progress.
			return c.menuNames[0]
		}
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(c.in.Text()), "%d", &n); err == nil && n >= 1 && n <= len(c.menuNames) {
			return c.menuNames[n-1]
		}
	}
}

func (c *Console) resetMenu() {
	c.menuNames = nil
	c.menuSeen = make(map[string]bool)
	c.selected = ""
}

// ---------------------------------------------------------------------------
// Builtins
// ---------------------------------------------------------------------------

func (c *Console) wait(args []vm.Value) (vm.Value, bool) {
	ms := args[0].Int()
	if c.machine != nil {
		if t := c.machine.Running(); t != nil {
			c.machine.SuspendThreadFor(t, time.Duration(ms)*time.Millisecond)
		}
	}
	return vm.Value{}, false
}

func (c *Console) random(args []vm.Value) (vm.Value, bool) {
	n := args[0].Int()
	if n <= 0 {
		return vm.FromInt(0), true
	}
	return vm.FromInt(c.rng.Int63n(n)), true
}

func (c *Console) showPicture(args []vm.Value) (vm.Value, bool) {
	name := args[0].Str()
	c.positions[name] = [2]int64{0, 0}
	c.log.Infof("show picture %q", name)
	return vm.Value{}, false
}

func (c *Console) movePicture(args []vm.Value) (vm.Value, bool) {
	name := args[0].Str()
	pos := c.positions[name]
	pos[0] = resolveCoord(pos[0], args[1])
	pos[1] = resolveCoord(pos[1], args[2])
	c.positions[name] = pos
	c.log.Infof("move picture %q to (%d, %d)", name, pos[0], pos[1])
	return vm.Value{}, false
}

func (c *Console) hidePicture(args []vm.Value) (vm.Value, bool) {
	name := args[0].Str()
	delete(c.positions, name)
	c.log.Infof("hide picture %q", name)
	return vm.Value{}, false
}

func (c *Console) playMusic(args []vm.Value) (vm.Value, bool) {
	c.log.Infof("play music %q", args[0].Str())
	return vm.Value{}, false
}

func (c *Console) stopMusic(args []vm.Value) (vm.Value, bool) {
	c.log.Info("stop music")
	return vm.Value{}, false
}

func (c *Console) playSound(args []vm.Value) (vm.Value, bool) {
	c.log.Infof("play sound %q", args[0].Str())
	return vm.Value{}, false
}

func (c *Console) setTitle(args []vm.Value) (vm.Value, bool) {
	fmt.Fprintf(c.out, "== %s ==\n", args[0].Str())
	return vm.Value{}, false
}

// resolveCoord turns a coordinate value into an absolute position:
// deltas offset the current one, plain numbers replace it.
func resolveCoord(current int64, v vm.Value) int64 {
	if v.IsDelta() {
		return current + v.Int()
	}
	return int64(v.Float())
}
