package grid

import (
	"image"

	"pattern-reader/internal/fiducial"
	"pattern-reader/pkg/geometry"
)

// Solve derives the lattice origin and cell size from the markers.
//
// With all four markers the lattice spans the gap between them and the cell
// size is the mean of that span's width and height divided by Size. With
// only the top-left marker (plus any others) the cell size is a fixed
// multiple of that marker's size and the origin sits just past its
// bottom-right corner.
func Solve(set fiducial.Set, p Params) (Geometry, error) {
	tl, ok := set.Get(fiducial.TopLeft)
	if !ok {
		return Geometry{}, ErrNoAnchor
	}

	if set.Complete() {
		tr, _ := set.Get(fiducial.TopRight)
		bl, _ := set.Get(fiducial.BottomLeft)
		br, _ := set.Get(fiducial.BottomRight)

		left := max(tl.Right(), bl.Right())
		right := min(tr.X, br.X)
		top := max(tl.Bottom(), tr.Bottom())
		bottom := min(bl.Y, br.Y)

		return Geometry{
			OriginX:  left,
			OriginY:  top,
			CellSize: ((right - left) + (bottom - top)) / (2 * Size),
		}, nil
	}

	fs := (tl.Width + tl.Height) / 2
	offset := int(float64(fs) * p.OriginOffset)
	return Geometry{
		OriginX:  tl.Right() + offset,
		OriginY:  tl.Bottom() + offset,
		CellSize: int(float64(fs) * p.FiducialToCell),
	}, nil
}

// Cell returns the unclipped box of the cell at row, col.
func (g Geometry) Cell(row, col int) geometry.BoundingBox {
	return geometry.NewBoundingBox(g.OriginX+col*g.CellSize, g.OriginY+row*g.CellSize, g.CellSize, g.CellSize)
}

// Bounds returns the rectangle covered by the whole lattice.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(g.OriginX, g.OriginY, g.OriginX+Size*g.CellSize, g.OriginY+Size*g.CellSize)
}
