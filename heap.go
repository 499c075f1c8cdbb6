// heap.go - Per-segment bump allocator backing LocalAlloc/GlobalAlloc

/*
heap.go is a bump allocator scoped to a single segment, matching the
Rust reference's Heap: allocation never reclaims space (deallocation
is a deliberate no-op, same as the reference, pending a real free
list). A fixed allocation returns its address twice, since callers
that pass LMEM_FIXED expect a near pointer (an offset within the
heap's segment) usable directly; a movable
allocation instead registers the pointer behind a handle and returns
an odd-encoded handle (2*handle-1) alongside the address, the
convention LocalLock/GlobalLock use to tell a handle from a pointer by
parity (pointers always land on an even boundary because every
allocation size is rounded up to one).
*/

package main

import "fmt"

// HeapAllocationError reports that a LocalAlloc/GlobalAlloc request
// could not be satisfied.
type HeapAllocationError struct {
	Reason string
}

func (e *HeapAllocationError) Error() string {
	return fmt.Sprintf("heap allocation failed: %s", e.Reason)
}

// Heap is a bump allocator for one segment's local or global heap.
type Heap struct {
	maxSize        uint16
	allocationBase uint16
	nextAllocation uint16
	handles        *HandleTable[uint16]
}

// NewHeap creates a heap of maxSize bytes starting at allocationBase
// within its segment.
func NewHeap(maxSize, allocationBase uint16) *Heap {
	return &Heap{
		maxSize:        maxSize,
		allocationBase: allocationBase,
		nextAllocation: 2, // offset 0 is reserved so a null handle never aliases a real pointer
		handles:        NewHandleTable[uint16](),
	}
}

// Allocate reserves size bytes. When isFixed is true, both returned
// values are the allocation's offset within the heap's segment;
// otherwise the first value
// is an odd-encoded movable handle and the second is its current
// address.
func (h *Heap) Allocate(isFixed bool, size uint16) (uint16, uint16, error) {
	if size == 0xFFFF {
		return 0, 0, &HeapAllocationError{Reason: "allocation too large"}
	}
	size = (size + 1) &^ 1

	allocation := h.nextAllocation + h.allocationBase
	next := h.nextAllocation + size
	if next < h.nextAllocation || next > h.maxSize {
		return 0, 0, &HeapAllocationError{Reason: "out of memory"}
	}
	h.nextAllocation = next

	if isFixed {
		return allocation, allocation, nil
	}

	handle, ok := h.handles.Register(allocation)
	if !ok {
		return 0, 0, &HeapAllocationError{Reason: "handle table exhausted"}
	}
	return uint16(handle)*2 - 1, allocation, nil
}

// Deallocate is a deferred no-op, as in the reference implementation:
// the bump allocator never reclaims space. It always reports success
// (LocalFree/GlobalFree return NULL on success, the handle on failure,
// and this allocator never fails to "free").
func (h *Heap) Deallocate(what uint16) uint16 {
	return 0
}
