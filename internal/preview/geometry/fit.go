package geometry

import (
	"math"

	"plotbot/internal/preview/models"
)

// ============================================================
// Bounding box
// ============================================================

// BoundingBox returns the tight axis-aligned bounds of all points in set.
// Stroke width plays no role here. ok is false for an empty set.
func BoundingBox(set models.PolylineSet) (box models.Rect, ok bool) {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, line := range set {
		for _, p := range line {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
			ok = true
		}
	}
	if !ok {
		return models.Rect{}, false
	}

	return models.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// Degenerate reports whether r has no area and therefore cannot be fitted.
func Degenerate(r models.Rect) bool {
	return r.Width <= 0 || r.Height <= 0
}

// ============================================================
// Fit
// ============================================================

// FitScale returns the largest uniform scale at which content fits into target
// shrunk by margin. The margin is the total shrink per axis.
//
// Width is the binding axis when content is relatively wider than target
// (content.W/content.H > target.W/target.H); otherwise height binds.
// Degenerate content yields 0.
func FitScale(content, target models.Size, margin float64) float64 {
	if content.Width <= 0 || content.Height <= 0 {
		return 0
	}
	if content.Width/content.Height > target.Width/target.Height {
		return (target.Width - margin) / content.Width
	}
	return (target.Height - margin) / content.Height
}

// WidthBinds reports which axis FitScale will pick for the given sizes.
func WidthBinds(content, target models.Size) bool {
	return content.Width/content.Height > target.Width/target.Height
}

// CenterOffset returns the translation that moves the centre of scaled onto
// the centre of a target region anchored at the origin.
func CenterOffset(scaled models.Rect, target models.Size) (dx, dy float64) {
	c := scaled.Center()
	return target.Width/2 - c.X, target.Height/2 - c.Y
}

// Fit computes the initial placement of set on surface: uniform fit scale on
// the binding axis and the scaled bounding box centred on the surface.
// ok is false when set is empty or has no area.
func Fit(set models.PolylineSet, surface models.Surface, margin float64) (models.Placement, bool) {
	box, ok := BoundingBox(set)
	if !ok || Degenerate(box) {
		return models.Placement{}, false
	}

	scale := FitScale(models.Size{Width: box.Width, Height: box.Height}, surface.Size(), margin)
	scaled := models.Placement{ScaleX: scale, ScaleY: scale}.ApplyRect(box)
	dx, dy := CenterOffset(scaled, surface.Size())

	return models.Placement{
		ScaleX:  scale,
		ScaleY:  scale,
		OffsetX: dx,
		OffsetY: dy,
	}, true
}
