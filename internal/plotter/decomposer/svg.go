// Package decomposer turns SVG documents into polylines the plotter can draw.
// Curves and arcs are flattened with a fixed tolerance; fills, strokes and
// text are ignored.
package decomposer

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tdewolff/canvas"
	"golang.org/x/net/html/charset"

	"plotbot/internal/plotter/models"
)

// Tolerance is the maximum deviation, in user units, between a curve and its
// flattened polyline.
const Tolerance = 0.15

var (
	ErrEmpty = errors.New("empty document")
	ErrNoSVG = errors.New("document has no <svg> root element")
)

// skipped elements never contribute geometry, nor does anything inside them.
var skipped = map[string]bool{
	"defs":     true,
	"clipPath": true,
	"mask":     true,
	"marker":   true,
	"pattern":  true,
	"symbol":   true,
	"metadata": true,
	"title":    true,
	"desc":     true,
	"style":    true,
	"text":     true,
}

// ============================================================
// Parser
// ============================================================

// Parse decomposes an SVG document held in a string.
func Parse(svg string, tolerance float64) ([]models.Polyline, error) {
	if strings.TrimSpace(svg) == "" {
		return nil, ErrEmpty
	}
	return ParseReader(strings.NewReader(svg), tolerance)
}

// ParseReader decomposes an SVG document. Every shape element becomes one
// polyline per subpath, in document order, with all ancestor transforms
// applied.
func ParseReader(r io.Reader, tolerance float64) ([]models.Polyline, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	var (
		polylines []models.Polyline
		stack     = []canvas.Matrix{canvas.Identity}
		skipDepth int
		sawRoot   bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !sawRoot {
				if t.Name.Local != "svg" {
					return nil, ErrNoSVG
				}
				sawRoot = true
			}
			if skipDepth > 0 || skipped[t.Name.Local] || hidden(t) {
				skipDepth++
				continue
			}

			local, err := ParseTransform(attr(t, "transform"))
			if err != nil {
				return nil, err
			}
			m := stack[len(stack)-1].Mul(local)
			stack = append(stack, m)

			path, err := shapePath(t)
			if err != nil {
				return nil, fmt.Errorf("<%s>: %w", t.Name.Local, err)
			}
			if path != nil {
				polylines = append(polylines, flatten(path.Transform(m), tolerance)...)
			}

		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !sawRoot {
		return nil, ErrNoSVG
	}
	return polylines, nil
}

// flatten splits p into subpaths and returns each one as a polyline.
// Subpaths that do not reach a second point are dropped.
func flatten(p *canvas.Path, tolerance float64) []models.Polyline {
	var out []models.Polyline
	for _, sub := range p.Flatten(tolerance).Split() {
		coords := sub.Coords()
		if len(coords) < 2 {
			continue
		}
		line := make(models.Polyline, 0, len(coords))
		for _, c := range coords {
			line = append(line, models.Point{X: c.X, Y: c.Y})
		}
		out = append(out, line)
	}
	return out
}

// ============================================================
// Shapes
// ============================================================

// shapePath builds the outline of a basic shape. Non-shape elements return nil.
func shapePath(el xml.StartElement) (*canvas.Path, error) {
	switch el.Name.Local {
	case "path":
		d := strings.TrimSpace(attr(el, "d"))
		if d == "" {
			return nil, nil
		}
		p, err := canvas.ParseSVGPath(d)
		if err != nil {
			return nil, fmt.Errorf("parse d: %w", err)
		}
		return p, nil

	case "rect":
		x, y := length(el, "x"), length(el, "y")
		w, h := length(el, "width"), length(el, "height")
		if w <= 0 || h <= 0 {
			return nil, nil
		}
		rx, ry := length(el, "rx"), length(el, "ry")
		if rx <= 0 {
			rx = ry
		}
		if rx > 0 {
			return canvas.RoundedRectangle(w, h, min(rx, w/2, h/2)).Translate(x, y), nil
		}
		return canvas.Rectangle(w, h).Translate(x, y), nil

	case "circle":
		r := length(el, "r")
		if r <= 0 {
			return nil, nil
		}
		return canvas.Circle(r).Translate(length(el, "cx"), length(el, "cy")), nil

	case "ellipse":
		rx, ry := length(el, "rx"), length(el, "ry")
		if rx <= 0 || ry <= 0 {
			return nil, nil
		}
		return canvas.Ellipse(rx, ry).Translate(length(el, "cx"), length(el, "cy")), nil

	case "line":
		p := &canvas.Path{}
		p.MoveTo(length(el, "x1"), length(el, "y1"))
		p.LineTo(length(el, "x2"), length(el, "y2"))
		return p, nil

	case "polyline", "polygon":
		coords, err := parsePoints(attr(el, "points"))
		if err != nil {
			return nil, err
		}
		if len(coords) < 4 {
			return nil, nil
		}
		p := &canvas.Path{}
		p.MoveTo(coords[0], coords[1])
		for i := 2; i+1 < len(coords); i += 2 {
			p.LineTo(coords[i], coords[i+1])
		}
		if el.Name.Local == "polygon" {
			p.Close()
		}
		return p, nil
	}
	return nil, nil
}

// ============================================================
// Attributes
// ============================================================

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func hidden(el xml.StartElement) bool {
	if attr(el, "display") == "none" {
		return true
	}
	style := strings.ReplaceAll(attr(el, "style"), " ", "")
	return strings.Contains(style, "display:none")
}

// length reads a numeric attribute, ignoring absolute unit suffixes.
// Missing or unparsable values read as zero.
func length(el xml.StartElement, name string) float64 {
	v := strings.TrimSpace(attr(el, name))
	v = strings.TrimRight(v, "abcdefghijklmnopqrstuvwxyz%")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func parsePoints(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	coords := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point coordinate %q", f)
		}
		coords = append(coords, v)
	}
	return coords, nil
}
