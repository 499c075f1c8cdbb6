// object_environment.go - USER and GDI object tables for one guest task

package main

// UserWindow is the USER-bank object backing a window class procedure
// reference (the window's WNDPROC segment:offset).
type UserWindow struct {
	ProcSegment uint16
	ProcOffset  uint16
}

// GdiObjectKind distinguishes the variants of GdiObject.
type GdiObjectKind int

const (
	GdiObjectDC GdiObjectKind = iota
	GdiObjectSolidBrush
)

// GdiObject is a GDI handle's payload: either a device context bound
// to a window (plus the translation CreateDC-style APIs apply to
// drawing through it) or a solid-color brush.
type GdiObject struct {
	Kind        GdiObjectKind
	DC          WindowIdentifier
	Translation Point
	Brush       Color
}

// ObjectEnvironment holds the USER and GDI handle tables for the
// single guest task this emulator runs, plus a shared reference to
// the window manager both banks need to reach.
type ObjectEnvironment struct {
	User          *HandleTable[UserWindow]
	Gdi           *HandleTable[GdiObject]
	windowManager *WindowManager
}

// NewObjectEnvironment builds empty USER/GDI tables sharing the given
// window manager. WindowManager's own methods are independently
// mutex-guarded, so the interpreter goroutine and the compositor
// goroutine can both call through this shared pointer safely.
func NewObjectEnvironment(wm *WindowManager) *ObjectEnvironment {
	return &ObjectEnvironment{
		User:          NewHandleTable[UserWindow](),
		Gdi:           NewHandleTable[GdiObject](),
		windowManager: wm,
	}
}

// WindowManager returns the shared window manager.
func (e *ObjectEnvironment) WindowManager() *WindowManager {
	return e.windowManager
}
