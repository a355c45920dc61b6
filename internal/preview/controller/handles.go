package controller

import "plotbot/internal/preview/models"

// Handle is a resize handle on the selection box.
type Handle int

const (
	TopLeft Handle = iota
	Top
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
)

var handleNames = map[Handle]string{
	TopLeft:     "top-left",
	Top:         "top",
	TopRight:    "top-right",
	Right:       "right",
	BottomRight: "bottom-right",
	Bottom:      "bottom",
	BottomLeft:  "bottom-left",
	Left:        "left",
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return "unknown"
}

// ParseHandle looks a handle up by its name.
func ParseHandle(name string) (Handle, bool) {
	for h, n := range handleNames {
		if n == name {
			return h, true
		}
	}
	return 0, false
}

// direction reports which way the handle pushes each edge: -1 for the
// left/top edge, +1 for the right/bottom edge, 0 when the axis is untouched.
func (h Handle) direction() (sx, sy float64) {
	switch h {
	case TopLeft:
		return -1, -1
	case Top:
		return 0, -1
	case TopRight:
		return 1, -1
	case Right:
		return 1, 0
	case BottomRight:
		return 1, 1
	case Bottom:
		return 0, 1
	case BottomLeft:
		return -1, 1
	case Left:
		return -1, 0
	}
	return 0, 0
}

// anchor is the point that stays fixed while h is dragged.
func (h Handle) anchor(b models.Rect) (x, y float64) {
	sx, sy := h.direction()
	x, y = b.X, b.Y
	if sx < 0 {
		x = b.X + b.Width
	}
	if sy < 0 {
		y = b.Y + b.Height
	}
	return x, y
}

// position is where the handle is drawn on the selection box.
func (h Handle) position(b models.Rect) models.Point {
	sx, sy := h.direction()
	return models.Point{
		X: b.X + b.Width*(sx+1)/2,
		Y: b.Y + b.Height*(sy+1)/2,
	}
}

// HandlePosition places a handle on screen.
type HandlePosition struct {
	Handle Handle
	At     models.Point
}

// Handles lists the resize handles of the selected group. There is no rotate
// handle. The result is empty unless an object is selected.
func (c *Controller) Handles() []HandlePosition {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Selected {
		return nil
	}
	b, err := c.surface.Bounds()
	if err != nil {
		return nil
	}
	out := make([]HandlePosition, 0, len(handleNames))
	for h := TopLeft; h <= Left; h++ {
		out = append(out, HandlePosition{Handle: h, At: h.position(b)})
	}
	return out
}
