package geometry

import "math"

// Quad is a quadrilateral with corners ordered top-left, top-right,
// bottom-right, bottom-left.
type Quad [4]PointInt

// TopLeft returns the top-left corner.
func (q Quad) TopLeft() PointInt { return q[0] }

// TopRight returns the top-right corner.
func (q Quad) TopRight() PointInt { return q[1] }

// BottomRight returns the bottom-right corner.
func (q Quad) BottomRight() PointInt { return q[2] }

// BottomLeft returns the bottom-left corner.
func (q Quad) BottomLeft() PointInt { return q[3] }

// OrderQuad orders four arbitrary corner points. The top-left corner has the
// smallest x+y and the bottom-right the largest; the top-right has the
// smallest y-x and the bottom-left the largest.
func OrderQuad(pts [4]PointInt) Quad {
	tl, br, tr, bl := pts[0], pts[0], pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.Y-p.X < tr.Y-tr.X {
			tr = p
		}
		if p.Y-p.X > bl.Y-bl.X {
			bl = p
		}
	}
	return Quad{tl, tr, br, bl}
}

// RectifiedSize returns the output size for straightening the quad: the width
// is the longer of the top and bottom edges and the height the longer of the
// left and right edges. Edge lengths are truncated before comparison.
func (q Quad) RectifiedSize() (width, height int) {
	top := int(q.TopLeft().ToFloat().Distance(q.TopRight().ToFloat()))
	bottom := int(q.BottomLeft().ToFloat().Distance(q.BottomRight().ToFloat()))
	left := int(q.TopLeft().ToFloat().Distance(q.BottomLeft().ToFloat()))
	right := int(q.TopRight().ToFloat().Distance(q.BottomRight().ToFloat()))
	return max(top, bottom), max(left, right)
}

// Area returns the polygon area using the shoelace formula.
func (q Quad) Area() float64 {
	var sum float64
	for i := range q {
		j := (i + 1) % len(q)
		sum += float64(q[i].X*q[j].Y - q[j].X*q[i].Y)
	}
	return math.Abs(sum) / 2
}
