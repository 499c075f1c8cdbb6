//go:build !headless

// screen.go - Ebiten-backed host surface for the window compositor

/*
screen.go adapts IntuitionEngine's EbitenOutput (video_backend_ebiten.go)
from a retro video-chip frame sink into the host window this emulator's
compositor paints guest windows onto. It keeps EbitenOutput's shape: an
RGBA frame buffer behind a sync.RWMutex, an ebiten.Game implementation
driving Update/Draw/Layout, and inpututil-based key edge detection —
but drops the video-chip-specific palette/sprite/texture surface and
the clipboard-paste handling that has no analogue in a Windows 3.x
guest, and instead forwards keyboard and mouse events into a
MessageQueue as WindowMessage values the guest's message loop can
retrieve.
*/

package main

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Windows 3.x message identifiers for host input; the full set is much
// larger. Update posts key down/up and left-button down/up messages;
// no mouse-move message is posted.
const (
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmLButtonDn  = 0x0201
	wmLButtonUp  = 0x0202
	wmMouseMove  = 0x0200
)

// Screen is the ebiten-backed Surface: it owns the composited RGBA
// frame buffer the host window displays, and the message queue guest
// window procedures read from.
type Screen struct {
	mu          sync.RWMutex
	running     bool
	frameBuffer []byte
	width       int
	height      int
	messages    *MessageQueue
	focusHWnd   Handle
	readyCh     chan struct{}
	readyOnce   sync.Once
}

// NewScreen builds a Screen of the given pixel dimensions, delivering
// input events onto the given queue.
func NewScreen(width, height int, messages *MessageQueue) *Screen {
	return &Screen{
		width:       width,
		height:      height,
		frameBuffer: make([]byte, width*height*4),
		messages:    messages,
		readyCh:     make(chan struct{}),
	}
}

// SetFocusWindow tells the screen which window handle should receive
// forwarded keyboard/mouse messages.
func (s *Screen) SetFocusWindow(h Handle) {
	s.mu.Lock()
	s.focusHWnd = h
	s.mu.Unlock()
}

func (s *Screen) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	ebiten.SetWindowSize(s.width, s.height)
	ebiten.SetWindowTitle("ne16emu")
	ebiten.SetWindowResizable(false)
	ebiten.SetRunnableOnUnfocused(true)

	go func() {
		if err := ebiten.RunGame(s); err != nil {
			// RunGame returning is the normal shutdown path once the
			// host window closes; nothing further to report.
			_ = err
		}
	}()

	<-s.readyCh
	return nil
}

func (s *Screen) Stop() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Screen) Close() error { return s.Stop() }

func (s *Screen) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// BlitBitmap copies bitmap's pixels into the frame buffer at position,
// clipping to the screen's bounds.
func (s *Screen) BlitBitmap(position Point, bitmap *Bitmap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := int16(0); y < bitmap.Height(); y++ {
		destY := int(position.Y) + int(y)
		if destY < 0 || destY >= s.height {
			continue
		}
		for x := int16(0); x < bitmap.Width(); x++ {
			destX := int(position.X) + int(x)
			if destX < 0 || destX >= s.width {
				continue
			}
			c := bitmap.PixelAt(x, y)
			idx := (destY*s.width + destX) * 4
			s.frameBuffer[idx] = c.R
			s.frameBuffer[idx+1] = c.G
			s.frameBuffer[idx+2] = c.B
			s.frameBuffer[idx+3] = 0xFF
		}
	}
}

// Present is a no-op on the ebiten backend: Draw() reads the frame
// buffer directly on every tick, there is no separate flip step.
func (s *Screen) Present() {}

// Update implements ebiten.Game: it polls keyboard/mouse state and
// forwards edge-triggered events into the message queue.
func (s *Screen) Update() error {
	s.mu.RLock()
	running := s.running
	focus := s.focusHWnd
	s.mu.RUnlock()
	if !running || ebiten.IsWindowBeingClosed() {
		return ebiten.Termination
	}

	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		if vk, ok := ebitenKeyToVirtualKey(key); ok {
			s.messages.Send(WindowMessage{HWnd: focus, Message: wmKeyDown, WParam: vk})
		}
	}
	for _, key := range inpututil.AppendJustReleasedKeys(nil) {
		if vk, ok := ebitenKeyToVirtualKey(key); ok {
			s.messages.Send(WindowMessage{HWnd: focus, Message: wmKeyUp, WParam: vk})
		}
	}

	mx, my := ebiten.CursorPosition()
	pt := Point{X: int16(mx), Y: int16(my)}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		s.messages.Send(WindowMessage{HWnd: focus, Message: wmLButtonDn, Point: pt})
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		s.messages.Send(WindowMessage{HWnd: focus, Message: wmLButtonUp, Point: pt})
	}

	return nil
}

// Draw implements ebiten.Game: it writes the composited frame buffer
// straight to the host window.
func (s *Screen) Draw(screen *ebiten.Image) {
	s.mu.RLock()
	screen.WritePixels(s.frameBuffer)
	s.mu.RUnlock()

	s.readyOnce.Do(func() { close(s.readyCh) })
}

// Layout implements ebiten.Game.
func (s *Screen) Layout(_, _ int) (int, int) {
	return s.width, s.height
}

// ebitenKeyToVirtualKey maps the subset of ebiten keys this emulator
// forwards onto Windows 3.x virtual-key codes.
func ebitenKeyToVirtualKey(key ebiten.Key) (uint16, bool) {
	switch key {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return 0x0D, true
	case ebiten.KeyEscape:
		return 0x1B, true
	case ebiten.KeyBackspace:
		return 0x08, true
	case ebiten.KeyTab:
		return 0x09, true
	case ebiten.KeySpace:
		return 0x20, true
	case ebiten.KeyArrowLeft:
		return 0x25, true
	case ebiten.KeyArrowUp:
		return 0x26, true
	case ebiten.KeyArrowRight:
		return 0x27, true
	case ebiten.KeyArrowDown:
		return 0x28, true
	default:
		if key >= ebiten.KeyA && key <= ebiten.KeyZ {
			return uint16('A' + (key - ebiten.KeyA)), true
		}
		if key >= ebiten.Key0 && key <= ebiten.Key9 {
			return uint16('0' + (key - ebiten.Key0)), true
		}
		return 0, false
	}
}
