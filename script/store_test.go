package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/karasuma/scena/vm"
)

func writeModuleFile(t *testing.T, dir string, m *vm.Module) {
	t.Helper()
	data, err := Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.Name+".scb"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStoreLoadsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, sampleModule())

	s := NewStore(dir, nil)
	m, err := s.Load("prologue")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "prologue" || len(m.Subroutines) != 1 {
		t.Errorf("loaded module = %+v", m)
	}
}

// Repeated loads yield the identical module pointer, so CALL_FAR always
// lands in the same module instance.
func TestStoreCachesByIdentity(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, sampleModule())

	s := NewStore(dir, nil)
	a, err := s.Load("prologue")
	if err != nil {
		t.Fatal(err)
	}

	// Even if the file vanishes, the cached module survives.
	if err := os.Remove(filepath.Join(dir, "prologue.scb")); err != nil {
		t.Fatal(err)
	}
	b, err := s.Load("prologue")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("second load returned a different module instance")
	}
}

func TestStoreMissingModule(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	_, err := s.Load("nosuch")
	if !errors.Is(err, vm.ErrUnknownModule) {
		t.Errorf("err = %v", err)
	}
}

func TestStoreRejectsMisnamedWireForm(t *testing.T) {
	dir := t.TempDir()
	m := sampleModule()
	data, err := Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	// File name says "epilogue", wire form says "prologue".
	if err := os.WriteFile(filepath.Join(dir, "epilogue.scb"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(dir, nil)
	if _, err := s.Load("epilogue"); err == nil {
		t.Error("misnamed module loaded without error")
	}
}

func TestStoreFallsBackToPack(t *testing.T) {
	dir := t.TempDir()
	pack, err := OpenPack(filepath.Join(dir, "scripts.pack"))
	if err != nil {
		t.Fatal(err)
	}
	defer pack.Close()

	m := sampleModule()
	data, err := Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := pack.Write(m.Name, data); err != nil {
		t.Fatal(err)
	}

	// Empty loose-file directory: the pack serves the module.
	s := NewStore(t.TempDir(), pack)
	got, err := s.Load("prologue")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "prologue" {
		t.Errorf("name = %q", got.Name)
	}
}

// A loose file shadows the pack's copy of the same module.
func TestStoreDirectoryOverridesPack(t *testing.T) {
	dir := t.TempDir()
	pack, err := OpenPack(filepath.Join(t.TempDir(), "scripts.pack"))
	if err != nil {
		t.Fatal(err)
	}
	defer pack.Close()

	packed := sampleModule()
	packed.Strings[1] = "Packed text."
	data, err := Marshal(packed)
	if err != nil {
		t.Fatal(err)
	}
	if err := pack.Write(packed.Name, data); err != nil {
		t.Fatal(err)
	}

	loose := sampleModule()
	loose.Strings[1] = "Patched text."
	writeModuleFile(t, dir, loose)

	s := NewStore(dir, pack)
	got, err := s.Load("prologue")
	if err != nil {
		t.Fatal(err)
	}
	if got.Strings[1] != "Patched text." {
		t.Errorf("Strings[1] = %q, want the loose-file copy", got.Strings[1])
	}
}
