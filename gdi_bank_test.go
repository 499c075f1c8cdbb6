package main

import "testing"

func TestGdiBank_CreateDCReturnsUnboundHandle(t *testing.T) {
	g := NewGdiBank(NewObjectEnvironment(NewWindowManager()))
	acc := newTestAccessor(make([]uint16, 8)...)
	if err := g.Call(53, acc); err != nil {
		t.Fatal(err)
	}
	if acc.Regs.GPR16(RegAX) == 0 {
		t.Fatal("CreateDC returned a null handle")
	}
}

func TestGdiBank_CreateSolidBrushRoundTrips(t *testing.T) {
	objects := NewObjectEnvironment(NewWindowManager())
	g := NewGdiBank(objects)
	acc := newTestAccessor(0x0034, 0x0012) // color = 0x00120034 low,high word
	if err := g.Call(66, acc); err != nil {
		t.Fatal(err)
	}
	handle := acc.Regs.GPR16(RegAX)
	if handle == 0 {
		t.Fatal("CreateSolidBrush returned a null handle")
	}
	obj, ok := objects.Gdi.Get(Handle(handle))
	if !ok {
		t.Fatal("CreateSolidBrush did not register a GDI object")
	}
	if obj.Kind != GdiObjectSolidBrush {
		t.Fatalf("registered object kind = %v, want GdiObjectSolidBrush", obj.Kind)
	}
}

func TestGdiBank_DeleteObjectReportsPresence(t *testing.T) {
	objects := NewObjectEnvironment(NewWindowManager())
	g := NewGdiBank(objects)
	handle, _ := objects.Gdi.Register(GdiObject{Kind: GdiObjectDC})

	acc := newTestAccessor(uint16(handle))
	if err := g.Call(69, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 1 {
		t.Fatalf("DeleteObject = %d, want 1", got)
	}

	acc2 := newTestAccessor(uint16(handle))
	if err := g.Call(69, acc2); err != nil {
		t.Fatal(err)
	}
	if got := acc2.Regs.GPR16(RegAX); got != 0 {
		t.Fatalf("DeleteObject on an already-deleted handle = %d, want 0", got)
	}
}

func TestGdiBank_GetDeviceCapsIndexFirst(t *testing.T) {
	g := NewGdiBank(NewObjectEnvironment(NewWindowManager()))
	const (
		bitspixel = 12
		hdc       = 0xABCD
	)
	acc := newTestAccessor(bitspixel, hdc)
	if err := g.Call(80, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got != 8 {
		t.Fatalf("GetDeviceCaps(BITSPIXEL) = %d, want 8", got)
	}
}

func TestGdiBank_AddFontResource(t *testing.T) {
	g := NewGdiBank(NewObjectEnvironment(NewWindowManager()))
	acc := newTestAccessor(0, 0)
	if err := g.Call(119, acc); err != nil {
		t.Fatal(err)
	}
	if got := acc.Regs.GPR16(RegAX); got == 0 {
		t.Fatal("AddFontResource reported failure")
	}
}
