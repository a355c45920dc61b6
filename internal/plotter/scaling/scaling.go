package scaling

import (
	"errors"

	"plotbot/internal/plotter/models"
	"plotbot/internal/preview/geometry"
	preview "plotbot/internal/preview/models"
)

// ============================================================
// Polyline Scaling
// ============================================================

var (
	ErrNoPoints   = errors.New("no points to scale")
	ErrDegenerate = errors.New("drawing has no width or height")
	ErrNoRoom     = errors.New("target bounds are empty")
)

// ScalePolylines maps every point p to p*scale+offset, per axis, in place.
func ScalePolylines(lines []models.Polyline, offset, scale models.Point) {
	for _, line := range lines {
		for i, p := range line {
			line[i] = models.Point{
				X: p.X*scale.X + offset.X,
				Y: p.Y*scale.Y + offset.Y,
			}
		}
	}
}

// FitPolylines scales lines uniformly, in place, to the largest size that
// fits inside bounds and centres them there.
func FitPolylines(lines []models.Polyline, bounds models.Bounds) error {
	if bounds.Width() <= 0 || bounds.Height() <= 0 {
		return ErrNoRoom
	}
	set := preview.PolylineSet(lines)
	box, ok := geometry.BoundingBox(set)
	if !ok {
		return ErrNoPoints
	}
	if geometry.Degenerate(box) {
		return ErrDegenerate
	}

	target := preview.Size{Width: bounds.Width(), Height: bounds.Height()}
	scale := geometry.FitScale(preview.Size{Width: box.Width, Height: box.Height}, target, 0)
	scaled := preview.Placement{ScaleX: scale, ScaleY: scale}.ApplyRect(box)
	dx, dy := geometry.CenterOffset(scaled, target)

	ScalePolylines(lines,
		models.Point{X: dx + bounds.MinX, Y: dy + bounds.MinY},
		models.Point{X: scale, Y: scale},
	)
	return nil
}
