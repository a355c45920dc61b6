package geometry

import (
	"math"
	"testing"

	"plotbot/internal/preview/models"
)

const eps = 1e-9

func TestBoundingBoxIgnoresOrderAndEmptyLines(t *testing.T) {
	set := models.PolylineSet{
		{{X: 5, Y: -2}, {X: 1, Y: 3}},
		{},
		{{X: -4, Y: 10}},
	}
	box, ok := BoundingBox(set)
	if !ok {
		t.Fatalf("expected bounding box for non-empty set")
	}
	want := models.Rect{X: -4, Y: -2, Width: 9, Height: 12}
	if box != want {
		t.Fatalf("bounding box mismatch: got=%+v want=%+v", box, want)
	}
}

func TestBoundingBoxEmptySet(t *testing.T) {
	if _, ok := BoundingBox(nil); ok {
		t.Fatalf("nil set must not have a bounding box")
	}
	if _, ok := BoundingBox(models.PolylineSet{{}, {}}); ok {
		t.Fatalf("set of empty polylines must not have a bounding box")
	}
}

// TestFitScaleBindingAxis checks that the binding axis reaches target-margin
// exactly while the other axis stays within it.
func TestFitScaleBindingAxis(t *testing.T) {
	target := models.Size{Width: 358, Height: 123}
	margin := 10.0
	contents := []models.Size{
		{Width: 10, Height: 10},
		{Width: 1000, Height: 1},
		{Width: 1, Height: 1000},
		{Width: 358, Height: 123},
		{Width: 0.5, Height: 0.25},
		{Width: 250, Height: 80},
	}
	for _, c := range contents {
		s := FitScale(c, target, margin)
		w, h := c.Width*s, c.Height*s
		if w-(target.Width-margin) > eps || h-(target.Height-margin) > eps {
			t.Fatalf("content %+v overflows: scaled=%gx%g", c, w, h)
		}
		if WidthBinds(c, target) {
			if math.Abs(w-(target.Width-margin)) > eps {
				t.Fatalf("content %+v: width should bind, got %g", c, w)
			}
		} else if math.Abs(h-(target.Height-margin)) > eps {
			t.Fatalf("content %+v: height should bind, got %g", c, h)
		}
	}
}

func TestFitScaleTieGoesToHeight(t *testing.T) {
	target := models.Size{Width: 200, Height: 100}
	content := models.Size{Width: 20, Height: 10}
	if WidthBinds(content, target) {
		t.Fatalf("equal aspect ratios must bind on height")
	}
	if got := FitScale(content, target, 0); math.Abs(got-10) > eps {
		t.Fatalf("scale mismatch: got=%g want=10", got)
	}
}

func TestFitScaleDegenerate(t *testing.T) {
	if got := FitScale(models.Size{Width: 0, Height: 5}, models.Size{Width: 10, Height: 10}, 0); got != 0 {
		t.Fatalf("degenerate content must yield 0, got %g", got)
	}
}

func TestCenterOffset(t *testing.T) {
	dx, dy := CenterOffset(models.Rect{X: 2, Y: 3, Width: 10, Height: 4}, models.Size{Width: 100, Height: 50})
	if math.Abs(dx-43) > eps || math.Abs(dy-20) > eps {
		t.Fatalf("offset mismatch: got=(%g,%g) want=(43,20)", dx, dy)
	}
}

func TestFitCentersContent(t *testing.T) {
	set := models.PolylineSet{{{X: 40, Y: 10}, {X: 140, Y: 60}, {X: 90, Y: 20}}}
	surface := models.DefaultSurface
	p, ok := Fit(set, surface, 10)
	if !ok {
		t.Fatalf("fit failed")
	}
	box, _ := BoundingBox(set)
	placed := p.ApplyRect(box)
	c := placed.Center()
	if math.Abs(c.X-surface.Width/2) > 1e-6 || math.Abs(c.Y-surface.Height/2) > 1e-6 {
		t.Fatalf("content not centred: centre=%+v", c)
	}
	if p.ScaleX != p.ScaleY {
		t.Fatalf("initial fit must be uniform: %+v", p)
	}
}

// TestFitUnitSquareOnDefaultSurface covers the reference scenario: a 10x10
// drawing on the 358x123 surface with a margin of 10 is height-limited.
func TestFitUnitSquareOnDefaultSurface(t *testing.T) {
	set := models.PolylineSet{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}
	p, ok := Fit(set, models.DefaultSurface, 10)
	if !ok {
		t.Fatalf("fit failed")
	}
	want := models.Placement{ScaleX: 11.3, ScaleY: 11.3, OffsetX: 122.5, OffsetY: 5}
	if math.Abs(p.ScaleX-want.ScaleX) > 1e-9 || math.Abs(p.ScaleY-want.ScaleY) > 1e-9 ||
		math.Abs(p.OffsetX-want.OffsetX) > 1e-9 || math.Abs(p.OffsetY-want.OffsetY) > 1e-9 {
		t.Fatalf("placement mismatch: got=%+v want=%+v", p, want)
	}
}

func TestFitRejectsDegenerate(t *testing.T) {
	line := models.PolylineSet{{{X: 0, Y: 5}, {X: 10, Y: 5}}}
	if _, ok := Fit(line, models.DefaultSurface, 10); ok {
		t.Fatalf("zero-height content must not be fitted")
	}
	if _, ok := Fit(nil, models.DefaultSurface, 10); ok {
		t.Fatalf("empty set must not be fitted")
	}
}
