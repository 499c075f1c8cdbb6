// gdi_bank.go - GDI host API bank

/*
gdi_bank.go reimplements the GDI ordinals emulated_gdi.rs handles:
device-context creation bound to a window's bitmap, solid-brush
creation, and the object-lifetime/device-capability stubs a WinMain
paint path touches. Device contexts and brushes both live in
ObjectEnvironment.Gdi so USER and GDI share one handle space per guest
task, matching the reference's single ObjectEnvironment.
*/

package main

// GdiBank implements the GDI module's syscalls: device-context and
// brush object lifetime, plus the capability/resource stubs.
type GdiBank struct {
	objects *ObjectEnvironment
}

// NewGdiBank builds a GDI bank sharing objects' handle tables with the
// USER bank.
func NewGdiBank(objects *ObjectEnvironment) *GdiBank {
	return &GdiBank{objects: objects}
}

func (g *GdiBank) Name() string { return "GDI" }

var gdiArgBytes = map[uint16]uint16{
	53:  16, // CreateDC(pDriverInfo, pDeviceName, pOutput, pInitData) - four far pointers
	66:  4,  // CreateSolidBrush(color)
	68:  2,  // DeleteDC(hdc)
	69:  2,  // DeleteObject(hObject)
	80:  4,  // GetDeviceCaps(index, hdc)
	119: 4,  // AddFontResource(filename)
}

func (g *GdiBank) ArgumentBytes(ordinal uint16) (uint16, bool) {
	n, ok := gdiArgBytes[ordinal]
	return n, ok
}

func (g *GdiBank) Call(ordinal uint16, acc *Accessor) error {
	switch ordinal {
	case 53:
		return g.createDC(acc)
	case 66:
		return g.createSolidBrush(acc)
	case 68:
		return g.deleteDC(acc)
	case 69:
		return g.deleteObject(acc)
	case 80:
		return g.getDeviceCaps(acc)
	case 119:
		return g.addFontResource(acc)
	}
	return &UnimplementedSyscallError{Bank: g.Name(), Ordinal: ordinal}
}

// createDC takes CreateDC's four far-pointer arguments (driver info,
// device name, output device, init data) but none of them name a
// window, unlike this emulator's one-DC-per-window painting model; the
// reference hardcodes failure here since it never implements a real
// driver table. This bank instead registers an unbound DC (no window
// attached) so a guest that checks for a nonzero HDC can proceed;
// nothing in this bank binds the DC to a window afterwards.
func (g *GdiBank) createDC(acc *Accessor) error {
	handle, ok := g.objects.Gdi.Register(GdiObject{Kind: GdiObjectDC})
	if !ok {
		acc.ReturnWord(0)
		return nil
	}
	acc.ReturnWord(uint16(handle))
	return nil
}

func (g *GdiBank) createSolidBrush(acc *Accessor) error {
	color, err := acc.DwordArgument(0)
	if err != nil {
		return err
	}
	handle, ok := g.objects.Gdi.Register(GdiObject{Kind: GdiObjectSolidBrush, Brush: ColorFromU32(color)})
	if !ok {
		acc.ReturnWord(0)
		return nil
	}
	acc.ReturnWord(uint16(handle))
	return nil
}

func (g *GdiBank) deleteDC(acc *Accessor) error {
	hdc, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	acc.ReturnWord(boolToU16(g.objects.Gdi.Deregister(Handle(hdc))))
	return nil
}

func (g *GdiBank) deleteObject(acc *Accessor) error {
	hObject, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	acc.ReturnWord(boolToU16(g.objects.Gdi.Deregister(Handle(hObject))))
	return nil
}

// getDeviceCaps reports a fixed 8-bit-per-channel RGB planar display,
// matching the reference's hardcoded BITSPIXEL/PLANES response; every
// other capability index returns zero.
func (g *GdiBank) getDeviceCaps(acc *Accessor) error {
	const (
		bitspixel = 12
		planes    = 14
	)
	index, err := acc.WordArgument(0)
	if err != nil {
		return err
	}
	switch index {
	case bitspixel:
		acc.ReturnWord(8)
	case planes:
		acc.ReturnWord(3)
	default:
		acc.ReturnWord(0)
	}
	return nil
}

// addFontResource always reports success (nonzero), unlike the
// reference, which reports failure: this emulator has no font table, but a guest that aborts
// when its custom font fails to load has nothing else it can do.
func (g *GdiBank) addFontResource(acc *Accessor) error {
	acc.ReturnWord(1)
	return nil
}
