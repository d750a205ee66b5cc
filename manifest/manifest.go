// Package manifest handles scena.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/karasuma/scena/vm"
)

// Slots reserved for the engine; user variables map from the next one.
const (
	slotSubroutine = 0
	slotBox        = 1
	slotText       = 2

	firstUserSlot = 3
)

// Manifest represents a scena.toml project configuration.
type Manifest struct {
	Game   Game   `toml:"game"`
	Script Script `toml:"script"`
	Engine Engine `toml:"engine"`

	// Dir is the directory containing the scena.toml file (set at load time).
	Dir string `toml:"-"`
}

// Game contains presentation metadata.
type Game struct {
	Title string `toml:"title"`
}

// Script configures where compiled modules live and where execution
// starts.
type Script struct {
	Dir      string `toml:"dir"`
	Pack     string `toml:"pack"`
	Entry    string `toml:"entry"`
	EntrySub string `toml:"entry-sub"`
}

// Engine configures the runtime.
type Engine struct {
	GlobalSlots int      `toml:"global-slots"`
	FrameRate   int      `toml:"frame-rate"`
	Variables   []string `toml:"variables"`
}

// Load parses a scena.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "scena.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Script.Dir == "" && m.Script.Pack == "" {
		m.Script.Dir = "scripts"
	}
	if m.Script.EntrySub == "" {
		m.Script.EntrySub = "main"
	}
	if m.Engine.GlobalSlots == 0 {
		m.Engine.GlobalSlots = 256
	}
	if m.Engine.FrameRate == 0 {
		m.Engine.FrameRate = 60
	}

	if m.Script.Entry == "" {
		return nil, fmt.Errorf("%s: script.entry is required", path)
	}
	if n := firstUserSlot + len(m.Engine.Variables); n > m.Engine.GlobalSlots {
		return nil, fmt.Errorf("%s: %d variables need %d global slots, engine.global-slots is %d",
			path, len(m.Engine.Variables), n, m.Engine.GlobalSlots)
	}
	for i, name := range m.Engine.Variables {
		for j := 0; j < i; j++ {
			if m.Engine.Variables[j] == name {
				return nil, fmt.Errorf("%s: duplicate variable %q", path, name)
			}
		}
	}

	return &m, nil
}

// ScriptDirPath returns the absolute script directory, or "" when the
// project ships pack-only.
func (m *Manifest) ScriptDirPath() string {
	if m.Script.Dir == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Script.Dir)
}

// PackPath returns the absolute script pack path, or "" when none is
// configured.
func (m *Manifest) PackPath() string {
	if m.Script.Pack == "" {
		return ""
	}
	return filepath.Join(m.Dir, m.Script.Pack)
}

// NameTable builds the global-variable name mapping: the three system
// slots first, then the declared variables in order.
func (m *Manifest) NameTable() *vm.NameTable {
	slots := map[string]int{
		"sys.subroutine": slotSubroutine,
		"sys.box":        slotBox,
		"sys.text":       slotText,
	}
	for i, name := range m.Engine.Variables {
		slots[name] = firstUserSlot + i
	}
	return &vm.NameTable{
		Slots:         slots,
		SubroutineVar: slotSubroutine,
		BoxVar:        slotBox,
		TextVar:       slotText,
	}
}
