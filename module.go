// module.go - Syscall stub generator and module-reference bindings

/*
module.go is the Go counterpart of the Rust reference's EmulatedModule:
for each imported procedure it writes a short guest-visible stub at a
module's current write cursor and hands the loader back that stub's
segment:offset so relocation fix-ups can point at it. The encoding
(MOV AX, ordinal / INT vector / RETF argument_bytes) is generalized
from module.rs's hardcoded INT 0xFF (KERNEL-only) to take the vector
each module binding carries, since this emulator dispatches four
banks rather than one.
*/

package main

import "fmt"

// INT vectors the syscall dispatcher recognizes, one per bank,
// matching constants.rs's KERNEL/USER/GDI/KEYBOARD_INT_VECTOR.
const (
	KernelIntVector   byte = 0xFF
	UserIntVector     byte = 0xFE
	GdiIntVector      byte = 0xFD
	KeyboardIntVector byte = 0xFC
)

// StubWriter lays down syscall-dispatch byte sequences at a module's
// reserved flat address, advancing its own write cursor as it goes.
type StubWriter struct {
	flatAddress     uint32
	lastWriteOffset uint32
}

// NewStubWriter reserves stub space starting at flatAddress.
func NewStubWriter(flatAddress uint32) *StubWriter {
	return &StubWriter{flatAddress: flatAddress}
}

func (s *StubWriter) writeByte(mem *Memory, data byte) error {
	index := s.flatAddress + s.lastWriteOffset
	s.lastWriteOffset++
	return mem.Write8(index, data)
}

// WriteSyscallDispatch emits "MOV AX, ax / INT vector / RETF
// argumentBytes" at the current cursor and returns its flat address.
func (s *StubWriter) WriteSyscallDispatch(mem *Memory, vector byte, ax uint16, argumentBytes uint16) (uint32, error) {
	offset := s.flatAddress + s.lastWriteOffset

	if err := s.writeByte(mem, 0xB8); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, byte(ax)); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, byte(ax>>8)); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, 0xCD); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, vector); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, 0xCA); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, byte(argumentBytes)); err != nil {
		return 0, err
	}
	if err := s.writeByte(mem, byte(argumentBytes>>8)); err != nil {
		return 0, err
	}

	return offset, nil
}

// Procedure writes a dispatch stub for one ordinal and returns its
// address as a segment:offset pair the loader can write into a
// relocation site.
func (s *StubWriter) Procedure(mem *Memory, vector byte, procedure uint16, argumentBytes uint16) (SegmentAndOffset, error) {
	flat, err := s.WriteSyscallDispatch(mem, vector, procedure, argumentBytes)
	if err != nil {
		return SegmentAndOffset{}, err
	}
	return mem.SegmentAndOffset(flat), nil
}

// ModuleBinding ties an imported module name to the INT vector its
// stubs dispatch through, the stub writer reserving its address
// space, and the bank that actually services the call.
type ModuleBinding struct {
	name   string
	vector byte
	stubs  *StubWriter
	bank   Bank
}

// NewModuleBinding builds a binding for a recognized module name.
func NewModuleBinding(name string, vector byte, flatAddress uint32, bank Bank) *ModuleBinding {
	return &ModuleBinding{name: name, vector: vector, stubs: NewStubWriter(flatAddress), bank: bank}
}

func (m *ModuleBinding) Name() string { return m.name }

// Procedure resolves the stub address for an imported ordinal,
// failing if the bound bank has no known argument-byte count for it
// (the "unknown ordinal" load-time failure §4.5 requires).
func (m *ModuleBinding) Procedure(mem *Memory, ordinal uint16) (SegmentAndOffset, error) {
	argBytes, ok := m.bank.ArgumentBytes(ordinal)
	if !ok {
		return SegmentAndOffset{}, &FormatError{
			Operation: "module_procedure",
			Details:   fmt.Sprintf("unknown ordinal %d in module %s", ordinal, m.name),
		}
	}
	return m.stubs.Procedure(mem, m.vector, ordinal, argBytes)
}

// unknownBank stands in for an imported module name this emulator
// does not recognize: it validates the module-reference table's shape
// (every slot gets a binding, preserving index alignment with
// ImportOrdinal relocations) without servicing any ordinal, rather
// than silently omitting the slot the way the reference does when a
// module name doesn't match KERNEL/USER.
type unknownBank struct {
	name string
}

func (b *unknownBank) Name() string { return b.name }

func (b *unknownBank) Call(ordinal uint16, acc *Accessor) error {
	return &UnimplementedSyscallError{Bank: b.name, Ordinal: ordinal}
}

func (b *unknownBank) ArgumentBytes(ordinal uint16) (uint16, bool) {
	return 0, false
}
