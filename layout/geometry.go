package layout

import "math"

// Rect is an axis-aligned box: X0 ≤ X1, Y0 ≤ Y1.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (r Rect) W() float64 { return r.X1 - r.X0 }
func (r Rect) H() float64 { return r.Y1 - r.Y0 }

// Translate moves the box by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X0: r.X0 + dx, Y0: r.Y0 + dy, X1: r.X1 + dx, Y1: r.Y1 + dy}
}

// Union returns the smallest box containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// RotateRect returns the bounding box of r rotated counter-clockwise by deg
// degrees about the origin.
func RotateRect(r Rect, deg float64) Rect {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	corners := [4]Point{{r.X0, r.Y0}, {r.X1, r.Y0}, {r.X1, r.Y1}, {r.X0, r.Y1}}

	out := Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, c := range corners {
		x := c.X*cos - c.Y*sin
		y := c.X*sin + c.Y*cos
		out.X0 = math.Min(out.X0, x)
		out.Y0 = math.Min(out.Y0, y)
		out.X1 = math.Max(out.X1, x)
		out.Y1 = math.Max(out.Y1, y)
	}
	return out
}
