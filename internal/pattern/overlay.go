package pattern

import (
	"image"

	"pattern-reader/internal/diag"
	"pattern-reader/internal/fiducial"
	"pattern-reader/internal/grid"

	"gocv.io/x/gocv"
)

// drawFiducials outlines each marker and labels it with its corner name.
func drawFiducials(img *gocv.Mat, set fiducial.Set) {
	for _, c := range fiducial.Corners {
		b, ok := set.Get(c)
		if !ok {
			continue
		}
		gocv.Rectangle(img, b.Rectangle(), diag.Red, 2)
		gocv.PutText(img, c.String(), image.Pt(b.X, max(b.Y-10, 12)), gocv.FontHersheySimplex, 0.8, diag.Red, 2)
	}
}

// drawCells outlines every cell, green when filled and gray when empty.
func drawCells(img *gocv.Mat, geo grid.Geometry, g grid.BoolGrid) {
	for r := 0; r < grid.Size; r++ {
		for c := 0; c < grid.Size; c++ {
			color := diag.Gray
			if g[r][c] {
				color = diag.Green
			}
			gocv.Rectangle(img, geo.Cell(r, c).Rectangle(), color, 2)
		}
	}
}

// annotate returns a copy of src with markers and, when geo is non-nil,
// the classified lattice drawn on it. The caller owns the returned Mat.
func annotate(src gocv.Mat, set fiducial.Set, geo *grid.Geometry, g grid.BoolGrid) gocv.Mat {
	out := gocv.NewMat()
	if src.Channels() == 1 {
		gocv.CvtColor(src, &out, gocv.ColorGrayToBGR)
	} else {
		src.CopyTo(&out)
	}
	drawFiducials(&out, set)
	if geo != nil {
		drawCells(&out, *geo, g)
	}
	return out
}
