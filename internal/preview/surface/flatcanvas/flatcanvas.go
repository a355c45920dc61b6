// Package flatcanvas is the object-canvas preview backend: strokes are flat
// canvas objects tagged with the id of the group that owns them, and the
// preview is drawn with tdewolff/canvas and written as SVG.
package flatcanvas

import (
	"fmt"
	"io"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/svg"

	"plotbot/internal/preview/models"
	"plotbot/internal/preview/surface"
)

// ============================================================
// Objects
// ============================================================

// Object is one stroke on the canvas.
type Object struct {
	GroupID int
	Points  models.Polyline
}

// Surface draws the preview from a flat object list.
type Surface struct {
	*surface.Base

	objects []Object
	groupID int
}

var _ surface.Surface = (*Surface)(nil)

// New creates an empty flat-canvas surface.
func New(opts surface.Options) *Surface {
	s := &Surface{}
	s.Base = surface.NewBase(opts, s.replace)
	return s
}

// replace removes every object of the previous group and adds the strokes of
// g under a fresh group id. It runs under the surface lock.
func (s *Surface) replace(g *surface.Group) {
	kept := s.objects[:0]
	for _, obj := range s.objects {
		if obj.GroupID != s.groupID {
			kept = append(kept, obj)
		}
	}
	s.objects = kept

	if g == nil {
		return
	}
	s.groupID++
	for _, stroke := range g.Strokes {
		s.objects = append(s.objects, Object{GroupID: s.groupID, Points: stroke})
	}
}

// Objects returns a copy of the canvas objects.
func (s *Surface) Objects() []Object {
	var out []Object
	s.View(func(*surface.Group) {
		out = append(out, s.objects...)
	})
	return out
}

// ============================================================
// Rendering
// ============================================================

// Render writes the preview as SVG.
func (s *Surface) Render(w io.Writer) error {
	c := s.Canvas()
	size := s.Size()

	out := svg.New(w, size.Width, size.Height, nil)
	c.RenderTo(out)
	if err := out.Close(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// Canvas draws the current state onto a new canvas in pixel units.
func (s *Surface) Canvas() *canvas.Canvas {
	opts := s.Options()
	size := s.Size()

	c := canvas.New(size.Width, size.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	ctx.SetFillColor(opts.Background)
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.DrawPath(0, 0, canvas.Rectangle(size.Width, size.Height))

	ctx.SetFillColor(canvas.Transparent)
	ctx.SetStrokeColor(opts.StrokeColor)
	ctx.SetStrokeWidth(opts.StrokeWidth)

	s.View(func(g *surface.Group) {
		if g == nil {
			return
		}
		for _, obj := range s.objects {
			if obj.GroupID != s.groupID || len(obj.Points) == 0 {
				continue
			}
			ctx.DrawPath(0, 0, strokePath(obj.Points, g.Transform))
		}
	})
	return c
}

func strokePath(points models.Polyline, t surface.Transform) *canvas.Path {
	p := &canvas.Path{}
	start := t.Apply(points[0])
	p.MoveTo(start.X, start.Y)
	for _, pt := range points[1:] {
		q := t.Apply(pt)
		p.LineTo(q.X, q.Y)
	}
	return p
}
