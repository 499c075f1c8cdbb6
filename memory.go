// memory.go - Flat real-mode memory for the NE interpreter

/*
memory.go implements the single contiguous memory space the 8086
interpreter, the NE loader, and the syscall accessors all read and
write through. Real-mode segmented addressing tops out at
0xFFFF0 + 0xFFFF, so one megabyte is enough to back every flat address
a guest program can form; unlike a memory-mapped-I/O bus this space
has no region table, because nothing in this emulator needs to
intercept a memory access, only translate segment:offset pairs into it.

A sync.RWMutex guards the backing slice the same way SystemBus guards
its own, so a Memory is safe to share between goroutines. (The
compositor goroutine paints host-side Bitmaps and does not read guest
memory.)
*/

package main

import (
	"encoding/binary"
	"sync"
)

const MemorySize = 1 * 1024 * 1024

// Memory is the flat byte store backing the whole real-mode address
// space: code, data, the stack, the heap, and every syscall stub this
// emulator writes into a module's reserved segment.
type Memory struct {
	bytes []byte
	mutex sync.RWMutex
}

// NewMemory allocates a fresh, zeroed one-megabyte address space.
func NewMemory() *Memory {
	return &Memory{bytes: make([]byte, MemorySize)}
}

// SegmentAndOffset is a real-mode far pointer: the 16-bit segment and
// 16-bit offset a guest register pair would hold.
type SegmentAndOffset struct {
	Segment uint16
	Offset  uint16
}

// Flat computes the linear address a segment:offset pair refers to.
func (p SegmentAndOffset) Flat() uint32 {
	return (uint32(p.Segment) << 4) + uint32(p.Offset)
}

// SegmentAndOffset converts a flat address back into a segment:offset
// pair whose segment is the address's paragraph (divide-by-16) and
// whose offset is the remainder (flat & 0xF), mirroring how the loader
// hands out freshly bump-allocated segments: every caller needs a
// paragraph-aligned segment with a small offset, not a fixed segment
// with a full 16-bit offset, so this intentionally departs from a
// flat & 0xFFFF decomposition.
func (m *Memory) SegmentAndOffset(flat uint32) SegmentAndOffset {
	return SegmentAndOffset{
		Segment: uint16(flat >> 4),
		Offset:  uint16(flat & 0xF),
	}
}

func (m *Memory) checkBounds(op string, addr uint32, size uint32) error {
	if uint64(addr)+uint64(size) > uint64(len(m.bytes)) {
		return &OutOfBoundsError{Operation: op, Address: addr, Limit: uint32(len(m.bytes))}
	}
	return nil
}

// Read8 reads a single byte at the given flat address.
func (m *Memory) Read8(addr uint32) (byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if err := m.checkBounds("read8", addr, 1); err != nil {
		return 0, err
	}
	return m.bytes[addr], nil
}

// Write8 writes a single byte at the given flat address.
func (m *Memory) Write8(addr uint32, value byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.checkBounds("write8", addr, 1); err != nil {
		return err
	}
	m.bytes[addr] = value
	return nil
}

// Read16 reads a little-endian word at the given flat address.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if err := m.checkBounds("read16", addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.bytes[addr : addr+2]), nil
}

// Write16 writes a little-endian word at the given flat address.
func (m *Memory) Write16(addr uint32, value uint16) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.checkBounds("write16", addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.bytes[addr:addr+2], value)
	return nil
}

// Read32 reads a little-endian doubleword at the given flat address.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if err := m.checkBounds("read32", addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.bytes[addr : addr+4]), nil
}

// Write32 writes a little-endian doubleword at the given flat address.
func (m *Memory) Write32(addr uint32, value uint32) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.checkBounds("write32", addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.bytes[addr:addr+4], value)
	return nil
}

// CopyFrom copies src into memory starting at the given flat address,
// used by the loader to lay down segment image data.
func (m *Memory) CopyFrom(addr uint32, src []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.checkBounds("copy_from", addr, uint32(len(src))); err != nil {
		return err
	}
	copy(m.bytes[addr:addr+uint32(len(src))], src)
	return nil
}

// ReadString reads a NUL-terminated byte string starting at addr,
// stopping at the first zero byte. If no zero byte occurs before the
// end of memory it returns an OutOfBoundsError.
func (m *Memory) ReadString(addr uint32) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	end := addr
	for end < uint32(len(m.bytes)) && m.bytes[end] != 0 {
		end++
	}
	if end >= uint32(len(m.bytes)) {
		return "", &OutOfBoundsError{Operation: "read_string", Address: addr, Limit: uint32(len(m.bytes))}
	}
	return string(m.bytes[addr:end]), nil
}

// Reset clears the entire address space to zero.
func (m *Memory) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i := range m.bytes {
		m.bytes[i] = 0
	}
}
