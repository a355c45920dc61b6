package surface

import (
	"errors"
	"image/color"
	"io"
	"math"
	"sync"

	"plotbot/internal/preview/geometry"
	"plotbot/internal/preview/models"
)

// ============================================================
// Preview Surface
// ============================================================

// ErrNoGroup is returned when the surface has no content loaded.
var ErrNoGroup = errors.New("no object loaded")

// Surface is a preview render target holding at most one manipulable group.
// All coordinates it accepts or returns are preview pixels, except placements
// which are in device units.
type Surface interface {
	// Load replaces the current group with set and fits it to the drawing
	// area. It returns false when set is empty; no group is live then.
	Load(set models.PolylineSet) bool
	Clear()
	HasGroup() bool
	Strokes() int

	Transform() (Transform, error)
	SetTransform(t Transform) error
	Placement() (models.Placement, error)
	SetPlacement(p models.Placement) error

	// Bounds returns the group's bounding box on screen.
	Bounds() (models.Rect, error)
	Size() models.Size
	Render(w io.Writer) error
}

// Options configures a preview surface.
type Options struct {
	Surface       models.Surface
	Magnification float64
	Margin        float64
	StrokeWidth   float64
	StrokeColor   color.RGBA
	Background    color.RGBA
}

// DefaultOptions returns the options used by the editor.
func DefaultOptions() Options {
	return Options{
		Surface:       models.DefaultSurface,
		Magnification: 3,
		Margin:        10,
		StrokeWidth:   1.5,
		StrokeColor:   color.RGBA{0, 0, 0, 255},
		Background:    color.RGBA{0xAE, 0xD3, 0x89, 255},
	}
}

// ============================================================
// Group
// ============================================================

// Transform is the group transform in preview pixels. A local stroke point l
// appears on screen at l*Scale + (X, Y). Local points are device coordinates
// multiplied by the magnification, so (X, Y) is the offset of the polyline
// origin.
type Transform struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	ScaleX float64 `json:"scale_x"`
	ScaleY float64 `json:"scale_y"`
}

// Apply maps a local point to the screen.
func (t Transform) Apply(p models.Point) models.Point {
	return models.Point{X: p.X*t.ScaleX + t.X, Y: p.Y*t.ScaleY + t.Y}
}

// Group is the single unit of selection, drag and scale.
type Group struct {
	Strokes   []models.Polyline
	Local     models.Rect
	Transform Transform
}

// Bounds returns the group's screen bounding box.
func (g *Group) Bounds() models.Rect {
	min := g.Transform.Apply(models.Point{X: g.Local.X, Y: g.Local.Y})
	max := g.Transform.Apply(models.Point{X: g.Local.X + g.Local.Width, Y: g.Local.Y + g.Local.Height})
	return models.Rect{
		X:      math.Min(min.X, max.X),
		Y:      math.Min(min.Y, max.Y),
		Width:  math.Abs(max.X - min.X),
		Height: math.Abs(max.Y - min.Y),
	}
}

// ============================================================
// Base
// ============================================================

// Base keeps the bookkeeping shared by every backend. Backends embed it and
// provide Render; onSwap lets them rebuild native state while the lock is held.
type Base struct {
	mu     sync.RWMutex
	opts   Options
	group  *Group
	onSwap func(g *Group)
}

// NewBase creates the shared surface state. onSwap may be nil.
func NewBase(opts Options, onSwap func(g *Group)) *Base {
	if opts.Magnification <= 0 {
		opts.Magnification = 1
	}
	return &Base{opts: opts, onSwap: onSwap}
}

// Options returns the surface options.
func (b *Base) Options() Options { return b.opts }

// Size returns the preview size in pixels.
func (b *Base) Size() models.Size {
	return models.Size{
		Width:  b.opts.Surface.Width * b.opts.Magnification,
		Height: b.opts.Surface.Height * b.opts.Magnification,
	}
}

// Load builds a new group from set and swaps it in atomically.
func (b *Base) Load(set models.PolylineSet) bool {
	var g *Group
	if !set.Empty() {
		g = b.newGroup(set)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.swap(g)
	return g != nil
}

// Clear removes the current group.
func (b *Base) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.swap(nil)
}

func (b *Base) swap(g *Group) {
	b.group = g
	if b.onSwap != nil {
		b.onSwap(g)
	}
}

// HasGroup reports whether content is loaded.
func (b *Base) HasGroup() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.group != nil
}

// Strokes returns the number of strokes in the live group.
func (b *Base) Strokes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.group == nil {
		return 0
	}
	return len(b.group.Strokes)
}

func (b *Base) Transform() (Transform, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.group == nil {
		return Transform{}, ErrNoGroup
	}
	return b.group.Transform, nil
}

func (b *Base) SetTransform(t Transform) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.group == nil {
		return ErrNoGroup
	}
	b.group.Transform = t
	return nil
}

// Placement reads the live transform in device units.
func (b *Base) Placement() (models.Placement, error) {
	t, err := b.Transform()
	if err != nil {
		return models.Placement{}, err
	}
	return b.ToPlacement(t), nil
}

// SetPlacement applies a device-unit placement to the live group.
func (b *Base) SetPlacement(p models.Placement) error {
	return b.SetTransform(b.FromPlacement(p))
}

func (b *Base) Bounds() (models.Rect, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.group == nil {
		return models.Rect{}, ErrNoGroup
	}
	return b.group.Bounds(), nil
}

// ToPlacement converts a pixel transform to device units. Scales are dimensionless.
func (b *Base) ToPlacement(t Transform) models.Placement {
	m := b.opts.Magnification
	return models.Placement{
		ScaleX:  t.ScaleX,
		ScaleY:  t.ScaleY,
		OffsetX: t.X / m,
		OffsetY: t.Y / m,
	}
}

// FromPlacement is the inverse of ToPlacement.
func (b *Base) FromPlacement(p models.Placement) Transform {
	m := b.opts.Magnification
	return Transform{
		X:      p.OffsetX * m,
		Y:      p.OffsetY * m,
		ScaleX: p.ScaleX,
		ScaleY: p.ScaleY,
	}
}

// View runs fn with a read lock on the live group, which may be nil.
func (b *Base) View(fn func(g *Group)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.group)
}

func (b *Base) newGroup(set models.PolylineSet) *Group {
	m := b.opts.Magnification

	strokes := make([]models.Polyline, 0, len(set))
	for _, line := range set {
		if len(line) == 0 {
			continue
		}
		local := make(models.Polyline, len(line))
		for i, p := range line {
			local[i] = models.Point{X: p.X * m, Y: p.Y * m}
		}
		strokes = append(strokes, local)
	}

	box, _ := geometry.BoundingBox(set)
	local := models.Rect{X: box.X * m, Y: box.Y * m, Width: box.Width * m, Height: box.Height * m}

	return &Group{
		Strokes:   strokes,
		Local:     local,
		Transform: b.FromPlacement(b.initialPlacement(set, box)),
	}
}

// initialPlacement fits set to the drawing area. Content without area (a
// single point or a straight axis-aligned line) keeps its size and is centred.
func (b *Base) initialPlacement(set models.PolylineSet, box models.Rect) models.Placement {
	if p, ok := geometry.Fit(set, b.opts.Surface, b.opts.Margin); ok {
		return p
	}
	dx, dy := geometry.CenterOffset(box, b.opts.Surface.Size())
	return models.Placement{ScaleX: 1, ScaleY: 1, OffsetX: dx, OffsetY: dy}
}
