package render

import (
	"fmt"
	"math"
	"strings"
)

// Shape is the primitive drawn for each dark module.
type Shape string

const (
	Square  Shape = "square"
	Rounded Shape = "rounded"
	Circle  Shape = "circle"
	Gapped  Shape = "gapped"
)

// Shapes lists every supported shape in a stable order.
var Shapes = []Shape{Square, Rounded, Circle, Gapped}

// ParseShape accepts a shape name case-insensitively. An empty name selects
// Square.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Square, nil
	}
	shape := Shape(name)
	if !shape.Valid() {
		return "", fmt.Errorf("unknown shape %q", name)
	}
	return shape, nil
}

func (s Shape) Valid() bool {
	switch s {
	case Square, Rounded, Circle, Gapped:
		return true
	default:
		return false
	}
}

// mask returns box*box coverage flags for one module, row-major. A pixel is
// covered when its center lies inside the shape.
func (s Shape) mask(box int, geometry Geometry) []bool {
	edge := float64(box)
	out := make([]bool, box*box)
	for py := 0; py < box; py++ {
		for px := 0; px < box; px++ {
			out[py*box+px] = s.covers(float64(px)+0.5, float64(py)+0.5, edge, geometry)
		}
	}
	return out
}

func (s Shape) covers(x, y, edge float64, geometry Geometry) bool {
	switch s {
	case Circle:
		half := edge / 2
		dx, dy := x-half, y-half
		return dx*dx+dy*dy <= half*half
	case Gapped:
		inset := edge * (1 - geometry.GapRatio) / 2
		return x >= inset && x <= edge-inset && y >= inset && y <= edge-inset
	case Rounded:
		r := geometry.RoundedRadius * edge
		if r <= 0 {
			return true
		}
		dx := math.Max(math.Max(r-x, x-(edge-r)), 0)
		dy := math.Max(math.Max(r-y, y-(edge-r)), 0)
		return dx*dx+dy*dy <= r*r
	default:
		return true
	}
}
