// Scena CLI - runs a compiled visual-novel project.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tliron/commonlog"

	"github.com/karasuma/scena/host"
	"github.com/karasuma/scena/manifest"
	"github.com/karasuma/scena/script"
	"github.com/karasuma/scena/vm"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	disasm := flag.String("disasm", "", "Disassemble a module instead of running (module name)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scena [options] [project-dir]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the scena.toml project in the given directory (default \".\").\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  scena ./game                  # Run the project in ./game\n")
		fmt.Fprintf(os.Stderr, "  scena -disasm prologue ./game # Print a bytecode listing\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	dir := "."
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	if err := run(dir, *disasm); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dir, disasm string) error {
	m, err := manifest.Load(dir)
	if err != nil {
		return err
	}

	var pack *script.Pack
	if path := m.PackPath(); path != "" {
		pack, err = script.OpenPack(path)
		if err != nil {
			return err
		}
		defer pack.Close()
	}
	store := script.NewStore(m.ScriptDirPath(), pack)

	if disasm != "" {
		mod, err := store.Load(disasm)
		if err != nil {
			return err
		}
		for i := range mod.Subroutines {
			fmt.Print(vm.Disassemble(mod, i))
		}
		return nil
	}

	console := host.NewConsole(os.Stdin, os.Stdout)
	machine := vm.NewVM(store, console, vm.NewGlobals(m.Engine.GlobalSlots, m.NameTable()))
	console.AttachVM(machine)

	if m.Game.Title != "" {
		fmt.Printf("== %s ==\n", m.Game.Title)
	}
	if _, err := machine.CreateThread("main", m.Script.Entry, m.Script.EntrySub, true); err != nil {
		return err
	}

	// Frame loop: run every registered thread once, wake timed sleeps,
	// and pace to the configured frame rate when nothing is runnable.
	frame := time.Second / time.Duration(m.Engine.FrameRate)
	for machine.ThreadCount() > 0 {
		worked := machine.Run()
		woke := machine.RefreshThreadState()
		if !worked && !woke {
			time.Sleep(frame)
		}
	}
	return nil
}
