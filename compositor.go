// compositor.go - 60Hz window compositor

/*
compositor.go drives the window manager's paint pass on a fixed
schedule, grounded on IntuitionEngine's VideoCompositor
(video_compositor.go): a sync.Mutex-guarded struct, a done channel for
clean shutdown, and a time.Ticker-driven refreshLoop goroutine.
VideoCompositor composites multiple independent video-chip sources by
z-order layer; this emulator has exactly one source of truth for paint
order — WindowManager's window stack — so composite() is just
WindowManager.Paint followed by Surface.Present.
*/

package main

import (
	"sync"
	"time"
)

const (
	compositorRefreshRate     = 60
	compositorRefreshInterval = time.Second / compositorRefreshRate
)

// Compositor repaints every visible window onto a Surface at a fixed
// refresh rate, on its own goroutine, so the interpreter thread never
// blocks on host display I/O.
type Compositor struct {
	mu      sync.Mutex
	surface Surface
	wm      *WindowManager
	done    chan struct{}
}

// NewCompositor builds a compositor painting wm's windows onto surface.
func NewCompositor(surface Surface, wm *WindowManager) *Compositor {
	return &Compositor{surface: surface, wm: wm, done: make(chan struct{})}
}

// Start begins the refresh loop on its own goroutine.
func (c *Compositor) Start() error {
	if err := c.surface.Start(); err != nil {
		return err
	}
	go c.refreshLoop()
	return nil
}

// Stop halts the refresh loop and closes the surface.
func (c *Compositor) Stop() {
	close(c.done)
	c.surface.Close()
}

func (c *Compositor) refreshLoop() {
	ticker := time.NewTicker(compositorRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.composite()
		}
	}
}

func (c *Compositor) composite() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wm.Paint(c.surface)
	c.surface.Present()
}
