// Package scenegraph is the retained-mode preview backend. Content lives in a
// small node tree (stage → layer → group → strokes) that is rebuilt on every
// load and rasterized to PNG with rasterx.
package scenegraph

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"

	"plotbot/internal/preview/models"
	"plotbot/internal/preview/surface"
)

// ============================================================
// Nodes
// ============================================================

type NodeKind int

const (
	KindLayer NodeKind = iota
	KindGroup
	KindStroke
)

// Node is an element of the scene tree. Group nodes read their transform
// from the surface group so drags never touch the tree itself.
type Node struct {
	Kind     NodeKind
	Points   models.Polyline
	Children []*Node

	group *surface.Group
}

func (n *Node) transform() surface.Transform {
	if n.group == nil {
		return surface.Transform{ScaleX: 1, ScaleY: 1}
	}
	return n.group.Transform
}

// Walk visits n and its descendants depth first with the accumulated transform.
func (n *Node) Walk(parent surface.Transform, fn func(n *Node, t surface.Transform)) {
	t := parent
	if n.Kind == KindGroup {
		local := n.transform()
		t = surface.Transform{
			X:      parent.X + local.X*parent.ScaleX,
			Y:      parent.Y + local.Y*parent.ScaleY,
			ScaleX: parent.ScaleX * local.ScaleX,
			ScaleY: parent.ScaleY * local.ScaleY,
		}
	}
	fn(n, t)
	for _, child := range n.Children {
		child.Walk(t, fn)
	}
}

// ============================================================
// Surface
// ============================================================

// Surface renders the preview from a retained node tree.
type Surface struct {
	*surface.Base
	layer *Node
}

var _ surface.Surface = (*Surface)(nil)

// New creates an empty scene-graph surface.
func New(opts surface.Options) *Surface {
	s := &Surface{layer: &Node{Kind: KindLayer}}
	s.Base = surface.NewBase(opts, s.rebuild)
	return s
}

// rebuild destroys the previous group node and attaches the new one. It runs
// under the surface lock.
func (s *Surface) rebuild(g *surface.Group) {
	s.layer.Children = nil
	if g == nil {
		return
	}

	groupNode := &Node{Kind: KindGroup, group: g}
	for _, stroke := range g.Strokes {
		groupNode.Children = append(groupNode.Children, &Node{Kind: KindStroke, Points: stroke})
	}
	s.layer.Children = []*Node{groupNode}
}

// Layer returns the root layer. Callers must not modify it.
func (s *Surface) Layer() *Node { return s.layer }

// Render rasterizes the scene as PNG.
func (s *Surface) Render(w io.Writer) error {
	img := s.Rasterize()
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Rasterize draws the scene into a new image.
func (s *Surface) Rasterize() *image.RGBA {
	opts := s.Options()
	size := s.Size()
	width, height := int(math.Ceil(size.Width)), int(math.Ceil(size.Height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: opts.Background}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	dasher := rasterx.NewDasher(width, height, scanner)
	dasher.SetStroke(fixed.Int26_6(opts.StrokeWidth*64), 0, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.ArcClip, nil, 0)
	dasher.SetColor(color.Color(opts.StrokeColor))

	s.View(func(*surface.Group) {
		s.layer.Walk(surface.Transform{ScaleX: 1, ScaleY: 1}, func(n *Node, t surface.Transform) {
			if n.Kind != KindStroke || len(n.Points) == 0 {
				return
			}
			dasher.Clear()
			start := t.Apply(n.Points[0])
			dasher.Start(rasterx.ToFixedP(start.X, start.Y))
			if len(n.Points) == 1 {
				dasher.Line(rasterx.ToFixedP(start.X, start.Y))
			}
			for _, p := range n.Points[1:] {
				q := t.Apply(p)
				dasher.Line(rasterx.ToFixedP(q.X, q.Y))
			}
			dasher.Stop(false)
			dasher.Draw()
		})
	})

	return img
}
