// segment_allocator.go - Bump allocator assigning non-overlapping segment bases

/*
segment_allocator.go replaces the reference's hardcoded segment layout
(code fixed at flat 0x4000, data fixed at flat 0x1230*0x10, each
module's stub area fixed at 0x10*0x1000/0x10*0x2000) with a real bump
allocator, grounded on segment_bump_allocator.rs's SegmentBumpAllocator:
every request rounds up to a 16-byte paragraph boundary (the unit a
segment register can address) and returns the paragraph number the
caller should use as that segment's base.

Rounding to 16 bytes rather than tracking a byte-precise flat address
means every allocated base is already paragraph-aligned, so the
allocator can just return pointer>>4 with no remainder to carry.
*/

package main

// SegmentAllocator hands out paragraph-aligned, non-overlapping base
// addresses for NE segments and module stub areas alike.
type SegmentAllocator struct {
	pointer uint32
}

// NewSegmentAllocator starts allocation at flat address 0.
func NewSegmentAllocator() *SegmentAllocator {
	return &SegmentAllocator{}
}

// Allocate reserves size bytes (rounded up to a 16-byte paragraph) and
// returns the paragraph number of its base, or false if the base would
// lie past paragraph 0xFFFF (the one megabyte a uint16 segment value
// can address).
func (a *SegmentAllocator) Allocate(size uint32) (uint16, bool) {
	current := a.pointer
	rounded := (size + 15) &^ 15
	a.pointer += rounded
	paragraph := current >> 4
	if paragraph > 0xFFFF {
		return 0, false
	}
	return uint16(paragraph), true
}
