package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/karasuma/scena/vm"
)

// Store resolves module names to decoded modules. Loose `.scb` files in
// the script directory win over the pack, so a patched module dropped
// next to the pack overrides it. Decoded modules are cached; the same
// name always yields the same *vm.Module.
type Store struct {
	dir   string
	pack  *Pack
	cache map[string]*vm.Module
	log   commonlog.Logger
}

var _ vm.ModuleLoader = (*Store)(nil)

// NewStore creates a store over a script directory and an optional
// pack. Either may be empty/nil, but not both.
func NewStore(dir string, pack *Pack) *Store {
	return &Store{
		dir:   dir,
		pack:  pack,
		cache: make(map[string]*vm.Module),
		log:   commonlog.GetLogger("scena.script"),
	}
}

// Load implements vm.ModuleLoader.
func (s *Store) Load(name string) (*vm.Module, error) {
	if m, ok := s.cache[name]; ok {
		return m, nil
	}

	data, src, err := s.read(name)
	if err != nil {
		return nil, err
	}

	m, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("module %q (%s): %w", name, src, err)
	}
	if m.Name != name {
		return nil, fmt.Errorf("module %q (%s): wire form names itself %q", name, src, m.Name)
	}

	s.cache[name] = m
	s.log.Debugf("loaded module %q from %s (%d subroutines)", name, src, len(m.Subroutines))
	return m, nil
}

// read finds the raw wire form, directory first, then pack.
func (s *Store) read(name string) (data []byte, src string, err error) {
	if s.dir != "" {
		path := filepath.Join(s.dir, name+".scb")
		data, err = os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("module %q: %w", name, err)
		}
	}
	if s.pack != nil {
		data, err = s.pack.Read(name)
		if err == nil {
			return data, "pack " + s.pack.path, nil
		}
		if !errors.Is(err, ErrNotInPack) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("%w: %q", vm.ErrUnknownModule, name)
}
