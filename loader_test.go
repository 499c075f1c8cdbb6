package main

import (
	"encoding/binary"
	"testing"
)

// buildMinimalNE assembles the smallest MZ+NE image LoadNE accepts: one
// code/data/stack segment, no module imports, no entry table, and no
// relocations. Byte offsets below follow the real NE header layout
// loader.go parses field-by-field.
func buildMinimalNE(t *testing.T) []byte {
	t.Helper()
	const (
		neHeaderOffset  = 0x40
		segmentTableRel = 0x40 // relative to neHeaderOffset
		segmentFileOff  = 512
		segmentBytes    = 4
	)
	data := make([]byte, segmentFileOff+segmentBytes)

	data[0], data[1] = 'M', 'Z'
	binary.LittleEndian.PutUint16(data[0x3C:], neHeaderOffset)

	h := data[neHeaderOffset:]
	h[0], h[1] = 'N', 'E'
	binary.LittleEndian.PutUint16(h[0x04:], 0) // entry table offset (relative to self)
	binary.LittleEndian.PutUint16(h[0x06:], 0) // entry table bytes
	h[0x0D] = 0                                // application flags
	binary.LittleEndian.PutUint16(h[0x0E:], 1) // DS = segment 1
	binary.LittleEndian.PutUint16(h[0x14:], 0) // IP
	binary.LittleEndian.PutUint16(h[0x16:], 1) // CS = segment 1
	binary.LittleEndian.PutUint16(h[0x18:], 0x0100) // SP
	binary.LittleEndian.PutUint16(h[0x1A:], 1)      // SS = segment 1
	binary.LittleEndian.PutUint16(h[0x1C:], 1)      // segment count
	binary.LittleEndian.PutUint16(h[0x1E:], 0)      // module reference count
	binary.LittleEndian.PutUint16(h[0x22:], segmentTableRel)
	binary.LittleEndian.PutUint16(h[0x28:], 0) // module ref table offset (unused, count 0)
	binary.LittleEndian.PutUint16(h[0x2A:], 0) // imported name table offset (unused)
	binary.LittleEndian.PutUint16(h[0x32:], 0) // align shift: 0 means default (512-byte sectors)
	h[0x36] = 0                                // target OS: unknown/any

	seg := h[segmentTableRel:]
	binary.LittleEndian.PutUint16(seg[0:], segmentFileOff/512) // logical sector, in 512-byte units
	binary.LittleEndian.PutUint16(seg[2:], segmentBytes)
	binary.LittleEndian.PutUint16(seg[4:], 0)    // flags: no relocations
	binary.LittleEndian.PutUint16(seg[6:], 4096) // min alloc size

	copy(data[segmentFileOff:], []byte{0x90, 0x90, 0x90, 0xF4})
	return data
}

func TestLoadNE_MinimalImage(t *testing.T) {
	data := buildMinimalNE(t)
	heap := NewHeap(0xFF00, 0x100)
	kernel := NewKernelBank(heap, 0)
	user := NewUserBank(NewObjectEnvironment(NewWindowManager()), NewMessageQueue(), mainProcessID)
	gdi := NewGdiBank(NewObjectEnvironment(NewWindowManager()))
	keyboard := NewKeyboardBank()

	result, err := LoadNE(data, kernel, user, gdi, keyboard)
	if err != nil {
		t.Fatalf("LoadNE: %v", err)
	}
	if result.IP != 0 {
		t.Fatalf("IP = %d, want 0", result.IP)
	}
	if result.SP != 0x0100 {
		t.Fatalf("SP = 0x%04X, want 0x0100", result.SP)
	}
	if result.CS != result.DS || result.DS != result.SS {
		t.Fatalf("CS/DS/SS should all resolve to the same segment base: CS=%d DS=%d SS=%d", result.CS, result.DS, result.SS)
	}

	flat := uint32(result.CS) << 4
	b, err := result.Memory.Read8(flat)
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x90 {
		t.Fatalf("first loaded byte = 0x%02X, want 0x90", b)
	}
}

func TestLoadNE_RejectsBadMagic(t *testing.T) {
	data := buildMinimalNE(t)
	data[0] = 'X'
	heap := NewHeap(0xFF00, 0x100)
	_, err := LoadNE(data, NewKernelBank(heap, 0), NewUserBank(NewObjectEnvironment(NewWindowManager()), NewMessageQueue(), mainProcessID), NewGdiBank(NewObjectEnvironment(NewWindowManager())), NewKeyboardBank())
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("expected *FormatError for bad MZ magic, got %v", err)
	}
}

func TestLoadNE_RejectsOutOfRangeSegment(t *testing.T) {
	data := buildMinimalNE(t)
	binary.LittleEndian.PutUint16(data[0x40+0x16:], 2) // CS points past the only segment
	heap := NewHeap(0xFF00, 0x100)
	_, err := LoadNE(data, NewKernelBank(heap, 0), NewUserBank(NewObjectEnvironment(NewWindowManager()), NewMessageQueue(), mainProcessID), NewGdiBank(NewObjectEnvironment(NewWindowManager())), NewKeyboardBank())
	if _, ok := err.(*FormatError); !ok {
		t.Fatalf("expected *FormatError for out-of-range segment, got %v", err)
	}
}
