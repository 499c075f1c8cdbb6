// twod.go - Points and rectangles shared by the window manager and GDI bank

package main

// Point is a signed 16-bit screen coordinate pair, matching the
// guest-visible POINT structure Windows 3.x passes across the wire.
type Point struct {
	X, Y int16
}

// Origin is the zero point.
func Origin() Point { return Point{} }

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is a signed 16-bit rectangle, left/top inclusive and
// right/bottom exclusive, matching the guest-visible RECT structure.
type Rect struct {
	Left, Top, Right, Bottom int16
}

func (r Rect) Shrink(amount int16) Rect {
	return Rect{r.Left + amount, r.Top + amount, r.Right - amount, r.Bottom - amount}
}

func (r Rect) Inflate(dx, dy int16) Rect {
	return Rect{r.Left - dx, r.Top - dy, r.Right + dx, r.Bottom + dy}
}

func (r Rect) Offset(dx, dy int16) Rect {
	return Rect{r.Left + dx, r.Top + dy, r.Right + dx, r.Bottom + dy}
}
