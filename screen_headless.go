//go:build headless

// screen_headless.go - No-display Surface for running tests without a window

/*
Mirrors IntuitionEngine's headless video backend (video_backend_headless.go):
a stand-in used when built with -tags headless, for CI environments
with no X11/Wayland display for ebiten to open a window against. It
keeps a frame buffer so BlitBitmap is still exercised by tests, it
just never opens a host window.
*/

package main

// Screen is the headless Surface stand-in.
type Screen struct {
	running     bool
	width       int
	height      int
	frameBuffer []byte
	messages    *MessageQueue
	focusHWnd   Handle
}

// NewScreen builds a headless Screen of the given pixel dimensions.
func NewScreen(width, height int, messages *MessageQueue) *Screen {
	return &Screen{width: width, height: height, frameBuffer: make([]byte, width*height*4), messages: messages}
}

func (s *Screen) SetFocusWindow(h Handle) { s.focusHWnd = h }

func (s *Screen) Start() error { s.running = true; return nil }
func (s *Screen) Stop() error  { s.running = false; return nil }
func (s *Screen) Close() error { return s.Stop() }

func (s *Screen) IsStarted() bool { return s.running }

func (s *Screen) BlitBitmap(position Point, bitmap *Bitmap) {
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

func (s *Screen) Present() {}
