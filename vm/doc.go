// Package vm implements the Scena virtual machine.
//
// This package contains:
//   - Tagged runtime values and their operator semantics
//   - Compiled script modules and call frames
//   - Bytecode interpreter with a bounded per-thread tick
//   - Cooperative thread scheduler with timed suspension
//   - Global variable store with reserved system variables
package vm
