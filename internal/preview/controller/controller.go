package controller

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"sync"

	"plotbot/internal/preview/models"
	"plotbot/internal/preview/surface"
)

// ============================================================
// Placement Controller
// ============================================================

var (
	ErrNoObject         = errors.New("no object loaded")
	ErrStaleSession     = errors.New("stale session")
	ErrNotSelected      = errors.New("object not selected")
	ErrRotationDisabled = errors.New("rotation is disabled")
)

// minSize is the smallest on-screen extent, in pixels, a resize may produce.
const minSize = 1.0

type State int

const (
	Empty State = iota
	Loaded
	Selected
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// Decomposer turns SVG text into polylines.
type Decomposer interface {
	Decompose(ctx context.Context, svg string) (models.PolylineSet, error)
}

// Submitter sends a placement to the device.
type Submitter interface {
	Submit(ctx context.Context, svg string, p models.Placement, mode models.PrintMode) error
}

// Ticket identifies one load request.
type Ticket struct {
	Token uint64
	SVG   string
}

// Controller drives the editing session on top of a preview surface.
type Controller struct {
	mu         sync.Mutex
	surface    surface.Surface
	decomposer Decomposer
	submitter  Submitter
	notifier   Notifier

	state   State
	session models.Session
	token   uint64
}

func New(s surface.Surface, d Decomposer, sub Submitter, n Notifier) *Controller {
	if n == nil {
		n = LogNotifier{}
	}
	return &Controller{
		surface:    s,
		decomposer: d,
		submitter:  sub,
		notifier:   n,
	}
}

// State returns the current editing state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns the active session. Token is zero before the first load.
func (c *Controller) Session() models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Surface returns the preview surface.
func (c *Controller) Surface() surface.Surface { return c.surface }

func (c *Controller) setState(s State) {
	if c.state != s {
		log.Printf("[PREVIEW] state: %s -> %s", c.state, s)
	}
	c.state = s
}

// ============================================================
// Loading
// ============================================================

// BeginLoad starts a new session for svg. Any load started earlier becomes
// stale: its result will be discarded by CompleteLoad.
func (c *Controller) BeginLoad(svg string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	log.Printf("[PREVIEW] load #%d started (%d bytes)", c.token, len(svg))
	return Ticket{Token: c.token, SVG: svg}
}

// CompleteLoad applies the outcome of a decomposition. Results for anything
// but the latest ticket return ErrStaleSession and change nothing. A failed
// decomposition keeps the previous preview.
func (c *Controller) CompleteLoad(t Ticket, set models.PolylineSet, err error) error {
	level, msg, err := c.applyLoad(t, set, err)
	if msg != "" {
		c.notifier.Notify(level, msg)
	}
	return err
}

// applyLoad updates the session under the lock and returns the notice to show
// once the lock is released.
func (c *Controller) applyLoad(t Ticket, set models.PolylineSet, err error) (Level, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Token != c.token {
		log.Printf("[PREVIEW] discarding stale load #%d (current #%d)", t.Token, c.token)
		return LevelInfo, "", ErrStaleSession
	}

	if err != nil {
		return LevelError, describeError("Could not load preview", err), err
	}

	c.setState(Empty)
	c.session = models.Session{Token: t.Token, SVG: t.SVG, Polylines: set}
	if !c.surface.Load(set) {
		return LevelInfo, msgNothing, nil
	}
	c.setState(Loaded)
	log.Printf("[PREVIEW] load #%d applied: %d polylines", t.Token, len(set))
	return LevelInfo, "", nil
}

// Load decomposes svg and shows the result. Empty input is not an error: there
// is simply nothing to preview and no request is made.
func (c *Controller) Load(ctx context.Context, svg string) error {
	if strings.TrimSpace(svg) == "" {
		return nil
	}
	t := c.BeginLoad(svg)
	set, err := c.decomposer.Decompose(ctx, svg)
	return c.CompleteLoad(t, set, err)
}

// LoadAsync runs Load on a new goroutine. The channel receives the outcome
// once and is then closed.
func (c *Controller) LoadAsync(ctx context.Context, svg string) <-chan error {
	done := make(chan error, 1)
	if strings.TrimSpace(svg) == "" {
		close(done)
		return done
	}

	t := c.BeginLoad(svg)
	go func() {
		defer close(done)
		set, err := c.decomposer.Decompose(ctx, svg)
		done <- c.CompleteLoad(t, set, err)
	}()
	return done
}

// ============================================================
// Pointer interaction
// ============================================================

// PointerDown handles a click at (x, y) in preview pixels: on the group it
// selects, anywhere else it deselects.
func (c *Controller) PointerDown(x, y float64) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Empty {
		return c.state
	}
	bounds, err := c.surface.Bounds()
	if err != nil {
		c.setState(Empty)
		return c.state
	}
	if bounds.Contains(models.Point{X: x, Y: y}) {
		c.setState(Selected)
	} else {
		c.setState(Loaded)
	}
	return c.state
}

// Drag moves the selected group by (dx, dy) pixels.
func (c *Controller) Drag(dx, dy float64) error {
	return c.withSelection(func(t surface.Transform, _ models.Rect) surface.Transform {
		t.X += dx
		t.Y += dy
		return t
	})
}

// Scale resizes the selected group uniformly around its centre.
func (c *Controller) Scale(factor float64) error {
	return c.withSelection(func(t surface.Transform, b models.Rect) surface.Transform {
		f := clampFactor(factor, math.Min(b.Width, b.Height))
		center := b.Center()
		return scaleAbout(t, center.X, center.Y, f, f)
	})
}

// ScaleHandle resizes the selected group by dragging handle h by (dx, dy)
// pixels. The opposite side stays in place. Corner handles keep the aspect
// ratio, edge handles stretch a single axis.
func (c *Controller) ScaleHandle(h Handle, dx, dy float64) error {
	return c.withSelection(func(t surface.Transform, b models.Rect) surface.Transform {
		sx, sy := h.direction()
		anchorX, anchorY := h.anchor(b)

		fx, fy := 1.0, 1.0
		switch {
		case sx != 0 && sy != 0:
			diag := b.Width*b.Width + b.Height*b.Height
			f := 1 + (sx*dx*b.Width+sy*dy*b.Height)/diag
			f = clampFactor(f, math.Min(b.Width, b.Height))
			fx, fy = f, f
		case sx != 0:
			fx = clampFactor((b.Width+sx*dx)/b.Width, b.Width)
		case sy != 0:
			fy = clampFactor((b.Height+sy*dy)/b.Height, b.Height)
		}
		return scaleAbout(t, anchorX, anchorY, fx, fy)
	})
}

// Rotate is not supported: the device draws axis-aligned only.
func (c *Controller) Rotate(float64) error {
	return ErrRotationDisabled
}

// Placement returns the current placement in device units.
func (c *Controller) Placement() (models.Placement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Empty {
		return models.Placement{}, ErrNoObject
	}
	return c.surface.Placement()
}

func (c *Controller) withSelection(fn func(t surface.Transform, b models.Rect) surface.Transform) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Selected {
		return ErrNotSelected
	}
	t, err := c.surface.Transform()
	if err != nil {
		return err
	}
	b, err := c.surface.Bounds()
	if err != nil {
		return err
	}
	return c.surface.SetTransform(fn(t, b))
}

func scaleAbout(t surface.Transform, ax, ay, fx, fy float64) surface.Transform {
	return surface.Transform{
		X:      ax + (t.X-ax)*fx,
		Y:      ay + (t.Y-ay)*fy,
		ScaleX: t.ScaleX * fx,
		ScaleY: t.ScaleY * fy,
	}
}

// clampFactor keeps extent*f at or above minSize. Extents without area are
// left unscaled.
func clampFactor(f, extent float64) float64 {
	if extent <= 0 {
		return 1
	}
	if extent*f < minSize {
		return minSize / extent
	}
	return f
}

// ============================================================
// Submission
// ============================================================

// Submit sends the current placement in the given mode. Without a loaded
// object it only shows a notice and makes no request.
func (c *Controller) Submit(ctx context.Context, mode models.PrintMode) error {
	c.mu.Lock()
	if c.state == Empty || !c.surface.HasGroup() {
		c.mu.Unlock()
		c.notifier.Notify(LevelInfo, msgNoObject)
		return ErrNoObject
	}
	placement, err := c.surface.Placement()
	svg := c.session.SVG
	c.mu.Unlock()
	if err != nil {
		c.notifier.Notify(LevelInfo, msgNoObject)
		return ErrNoObject
	}

	if err := c.submitter.Submit(ctx, svg, placement, mode); err != nil {
		c.notifier.Notify(LevelError, describeError("Could not print", err))
		return err
	}
	c.notifier.Notify(LevelInfo, describeSubmitted(mode))
	return nil
}
