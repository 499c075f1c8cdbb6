// window_manager.go - Window registry, z-order stack, and compositing

/*
window_manager.go tracks every guest window's geometry and front
buffer, and the order they paint in, mirroring the Rust reference's
WindowManager. A ProcessId/Handle pair (WindowIdentifier) disambiguates
windows across processes, though this emulator only ever runs one
guest task at a time (spec's multitasking is a Non-goal); the pairing
is kept because GDI device contexts and USER window handles both carry
one and dropping it would just mean re-adding it later.
*/

package main

import "sync"

// ProcessId identifies the guest task a window belongs to.
type ProcessId uint16

// NullProcessId is the reserved "no process" identifier.
const NullProcessId ProcessId = 0

// WindowIdentifier names a single window: its owning process and its
// USER handle.
type WindowIdentifier struct {
	ProcessId ProcessId
	Handle    Handle
}

// OtherHandle builds a sibling identifier for a different handle
// owned by the same process, used when a DC needs to reference a
// child window distinct from the one it was created for.
func (w WindowIdentifier) OtherHandle(h Handle) WindowIdentifier {
	return WindowIdentifier{ProcessId: w.ProcessId, Handle: h}
}

type window struct {
	position    Point
	width       int16
	height      int16
	frontBitmap *Bitmap // nil when the window shares its parent's bitmap
}

// WindowManager owns every live window's geometry and paint order.
type WindowManager struct {
	mu          sync.Mutex
	windowStack []WindowIdentifier
	windows     map[WindowIdentifier]*window
}

// NewWindowManager builds an empty window manager.
func NewWindowManager() *WindowManager {
	return &WindowManager{windows: make(map[WindowIdentifier]*window)}
}

// sentinelOrDefault treats the sentinel value -32768 as "caller didn't
// specify a size or position," substituting default, matching
// CreateWindow's documented default-placement behavior for that
// sentinel.
func sentinelOrDefault(value, def int16) int16 {
	if value == -32768 {
		return def
	}
	return value
}

// CreateWindow registers a new window and returns its resolved
// (width, height) after sentinel substitution.
func (wm *WindowManager) CreateWindow(id WindowIdentifier, x, y, width, height int16, useParentBitmap bool) (int16, int16) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	width = sentinelOrDefault(width, 400)
	height = sentinelOrDefault(height, 300)

	w := &window{
		position: Point{X: sentinelOrDefault(x, 0), Y: sentinelOrDefault(y, 0)},
		width:    width,
		height:   height,
	}
	if !useParentBitmap {
		w.frontBitmap = NewBitmap(width, height)
	}
	wm.windows[id] = w
	return width, height
}

// ShowWindow moves a window to the top of the paint order, inserting
// it if it was not already tracked in the stack.
func (wm *WindowManager) ShowWindow(id WindowIdentifier) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for i, existing := range wm.windowStack {
		if existing == id {
			wm.windowStack = append(wm.windowStack[:i], wm.windowStack[i+1:]...)
			break
		}
	}
	wm.windowStack = append(wm.windowStack, id)
}

// Paint blits every window's front buffer onto screen, back to front.
func (wm *WindowManager) Paint(screen Surface) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, id := range wm.windowStack {
		w, ok := wm.windows[id]
		if !ok || w.frontBitmap == nil {
			continue
		}
		screen.BlitBitmap(w.position, w.frontBitmap)
	}
}

// PaintBitmapFor returns the bitmap a window paints into, or nil if it
// shares its parent's bitmap.
func (wm *WindowManager) PaintBitmapFor(id WindowIdentifier) *Bitmap {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	w, ok := wm.windows[id]
	if !ok {
		return nil
	}
	return w.frontBitmap
}

// PositionOf returns a window's current position.
func (wm *WindowManager) PositionOf(id WindowIdentifier) (Point, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	w, ok := wm.windows[id]
	if !ok {
		return Point{}, false
	}
	return w.position, true
}

// ClientRectOf returns a window's client-area rectangle, always
// rooted at the origin.
func (wm *WindowManager) ClientRectOf(id WindowIdentifier) (Rect, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	w, ok := wm.windows[id]
	if !ok {
		return Rect{}, false
	}
	return Rect{Right: w.width, Bottom: w.height}, true
}

// WindowRectOf returns a window's rectangle in screen coordinates.
func (wm *WindowManager) WindowRectOf(id WindowIdentifier) (Rect, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	w, ok := wm.windows[id]
	if !ok {
		return Rect{}, false
	}
	return Rect{Left: w.position.X, Top: w.position.Y, Right: w.position.X + w.width, Bottom: w.position.Y + w.height}, true
}
