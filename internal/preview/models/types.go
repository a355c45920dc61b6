package models

// ============================================================
// Geometry primitives
// ============================================================

// Point is a coordinate pair in device units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polyline is an ordered chain of points. Order defines the stroke path.
type Polyline []Point

// PolylineSet is the full decomposition of one image.
type PolylineSet []Polyline

// Empty reports whether the set has no drawable point at all.
func (s PolylineSet) Empty() bool {
	for _, line := range s {
		if len(line) > 0 {
			return false
		}
	}
	return true
}

// Points returns the total number of points in the set.
func (s PolylineSet) Points() int {
	n := 0
	for _, line := range s {
		n += len(line)
	}
	return n
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Size is a width/height pair without position.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ============================================================
// Drawing surface
// ============================================================

// Surface is the fixed physical drawing area of the device.
type Surface Size

// DefaultSurface is the drawing area of the supported plotter.
var DefaultSurface = Surface{Width: 358, Height: 123}

// Size returns the surface as a Size.
func (s Surface) Size() Size { return Size(s) }

// ============================================================
// Placement
// ============================================================

// Placement maps polyline coordinates into device coordinates:
// a point p is drawn at p*Scale + Offset on each axis.
type Placement struct {
	ScaleX  float64 `json:"scale_x"`
	ScaleY  float64 `json:"scale_y"`
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
}

// Identity is the placement that leaves coordinates unchanged.
var Identity = Placement{ScaleX: 1, ScaleY: 1}

// Apply maps p into device coordinates.
func (p Placement) Apply(pt Point) Point {
	return Point{X: pt.X*p.ScaleX + p.OffsetX, Y: pt.Y*p.ScaleY + p.OffsetY}
}

// ApplyRect maps r into device coordinates. Scales are expected to be positive.
func (p Placement) ApplyRect(r Rect) Rect {
	min := p.Apply(Point{X: r.X, Y: r.Y})
	return Rect{X: min.X, Y: min.Y, Width: r.Width * p.ScaleX, Height: r.Height * p.ScaleY}
}

// ============================================================
// Sessions & device configuration
// ============================================================

// PrintMode is passed through to the device service unmodified.
type PrintMode string

// ModeOnce is the only mode the client interprets: it prints immediately.
const ModeOnce PrintMode = "once"

// Session bundles everything that belongs to one loaded file.
type Session struct {
	Token     uint64
	SVG       string
	Polylines PolylineSet
}

// TimeLimits is the optional daily window for scheduled printing, as HH:MM strings.
type TimeLimits struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// DeviceConfig is the configuration reported by the device service.
type DeviceConfig struct {
	Listen          string      `json:"listen"`
	Device          string      `json:"device"`
	SVGDir          string      `json:"svg_dir"`
	IntervalSeconds uint64      `json:"interval_seconds"`
	TimeLimits      *TimeLimits `json:"time_limits,omitempty"`
}
