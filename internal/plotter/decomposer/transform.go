package decomposer

import (
	"fmt"
	"math"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/tdewolff/canvas"
)

// ============================================================
// Transform Attribute Grammar
// ============================================================

var (
	transformLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
		{Name: "Ident", Pattern: `[A-Za-z]+`},
		{Name: "Punct", Pattern: `[(),]`},
	})

	transformParser = participle.MustBuild[TransformList](
		participle.Lexer(transformLexer),
		participle.Elide("Whitespace"),
	)
)

// TransformList is the parsed value of a transform attribute.
type TransformList struct {
	Ops []*TransformOp `parser:"( @@ ','? )*"`
}

// TransformOp is one function of the list, e.g. rotate(45 10 10).
type TransformOp struct {
	Name string    `parser:"@Ident '('"`
	Args []float64 `parser:"( @Number ( ','? @Number )* )? ')'"`
}

// ParseTransform parses an SVG transform attribute into an affine matrix.
// An empty attribute yields the identity.
func ParseTransform(attr string) (canvas.Matrix, error) {
	if strings.TrimSpace(attr) == "" {
		return canvas.Identity, nil
	}
	list, err := transformParser.ParseString("", attr)
	if err != nil {
		return canvas.Identity, fmt.Errorf("parse transform %q: %w", attr, err)
	}

	m := canvas.Identity
	for _, op := range list.Ops {
		opMatrix, err := op.Matrix()
		if err != nil {
			return canvas.Identity, err
		}
		m = m.Mul(opMatrix)
	}
	return m, nil
}

// Matrix converts a single transform function.
func (op *TransformOp) Matrix() (canvas.Matrix, error) {
	a := op.Args
	switch op.Name {
	case "matrix":
		if len(a) != 6 {
			return canvas.Identity, op.arity("6")
		}
		return canvas.Matrix{{a[0], a[2], a[4]}, {a[1], a[3], a[5]}}, nil

	case "translate":
		switch len(a) {
		case 1:
			return affine(1, 0, 0, 1, a[0], 0), nil
		case 2:
			return affine(1, 0, 0, 1, a[0], a[1]), nil
		}
		return canvas.Identity, op.arity("1 or 2")

	case "scale":
		switch len(a) {
		case 1:
			return affine(a[0], 0, 0, a[0], 0, 0), nil
		case 2:
			return affine(a[0], 0, 0, a[1], 0, 0), nil
		}
		return canvas.Identity, op.arity("1 or 2")

	case "rotate":
		if len(a) != 1 && len(a) != 3 {
			return canvas.Identity, op.arity("1 or 3")
		}
		sin, cos := math.Sincos(a[0] * math.Pi / 180)
		r := affine(cos, sin, -sin, cos, 0, 0)
		if len(a) == 3 {
			cx, cy := a[1], a[2]
			r = affine(1, 0, 0, 1, cx, cy).Mul(r).Mul(affine(1, 0, 0, 1, -cx, -cy))
		}
		return r, nil

	case "skewX":
		if len(a) != 1 {
			return canvas.Identity, op.arity("1")
		}
		return affine(1, 0, math.Tan(a[0]*math.Pi/180), 1, 0, 0), nil

	case "skewY":
		if len(a) != 1 {
			return canvas.Identity, op.arity("1")
		}
		return affine(1, math.Tan(a[0]*math.Pi/180), 0, 1, 0, 0), nil
	}
	return canvas.Identity, fmt.Errorf("unknown transform function %q", op.Name)
}

func (op *TransformOp) arity(want string) error {
	return fmt.Errorf("%s takes %s arguments, got %d", op.Name, want, len(op.Args))
}

// affine builds a matrix from the six SVG matrix() coefficients.
func affine(a, b, c, d, e, f float64) canvas.Matrix {
	return canvas.Matrix{{a, c, e}, {b, d, f}}
}
