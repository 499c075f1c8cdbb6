package main

import "testing"

// newTestAccessor builds an Accessor over a fresh memory/register pair
// with SS:SP parked well clear of segment zero, and writes args upward
// from just above the far return address a RETF stub would leave
// behind, so args[i] is the word WordArgument(i) reads.
func newTestAccessor(args ...uint16) *Accessor {
	mem := NewMemory()
	regs := NewRegisters(0, 0)
	const stackSeg = 0x1000
	const sp = 0x2000
	regs.SetSegment(SegSS, stackSeg)
	regs.SetGPR16(RegSP, sp)
	acc := NewAccessor(mem, regs)
	base := regs.FlatSP() + 4
	for i, v := range args {
		mem.Write16(base+uint32(i)*2, v)
	}
	return acc
}

func TestKernelBank_GetVersion(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	acc := newTestAccessor()
	if err := k.Call(3, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0x0A03 {
		t.Fatalf("GetVersion = 0x%04X, want 0x0A03", got)
	}
}

func TestKernelBank_LocalAllocFixed(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	const lmemFixed = 0x0000
	acc := newTestAccessor(16, lmemFixed)
	if err := k.Call(5, acc); err != nil {
		t.Fatal(err)
	}
	if acc.Regs.GPR16(RegAX) == 0 {
		t.Fatal("expected nonzero fixed allocation handle")
	}
}

func TestKernelBank_LocalAllocMoveable(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	const lmemMoveable = 0x0002
	acc := newTestAccessor(16, lmemMoveable)
	if err := k.Call(5, acc); err != nil {
		t.Fatal(err)
	}
	handle := acc.Regs.GPR16(RegAX)
	if handle&1 == 0 {
		t.Fatalf("expected odd-encoded moveable handle, got 0x%04X", handle)
	}
}

func TestKernelBank_LocalFreeAlwaysSucceeds(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	acc := newTestAccessor(0xBEEF)
	if err := k.Call(7, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0 {
		t.Fatalf("LocalFree = 0x%04X, want 0 (success)", got)
	}
}

func TestKernelBank_GetProfileIntEchoesDefault(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	acc := newTestAccessor(42, 0, 0, 0, 0)
	if err := k.Call(57, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 42 {
		t.Fatalf("GetProfileInt = %d, want 42", got)
	}
}

func TestKernelBank_InitTaskSeedsDataSegment(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	k.SetDataSegment(0x0321)
	acc := newTestAccessor()
	if err := k.Call(91, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 0x0321 {
		t.Fatalf("InitTask AX = 0x%04X, want 0x0321", got)
	}
	if got := acc.Regs.Segment(SegES); got != 0x0321 {
		t.Fatalf("InitTask ES = 0x%04X, want 0x0321", got)
	}
}

func TestKernelBank_UnimplementedOrdinal(t *testing.T) {
	k := NewKernelBank(NewHeap(0xFF00, 0x100), 0)
	acc := newTestAccessor()
	err := k.Call(9999, acc)
	if _, ok := err.(*UnimplementedSyscallError); !ok {
		t.Fatalf("expected *UnimplementedSyscallError, got %v", err)
	}
}
