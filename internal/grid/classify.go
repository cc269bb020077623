package grid

import (
	"sort"

	"gocv.io/x/gocv"
)

// Score measures each cell of the mask as the fraction of nonzero pixels
// inside the cell clipped to the raster. Cells entirely outside the raster
// score 0.
func Score(mask gocv.Mat, g Geometry) ScoreGrid {
	var s ScoreGrid
	w, h := mask.Cols(), mask.Rows()
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			box := g.Cell(r, c).Clip(w, h)
			if box.Empty() {
				continue
			}
			cell := mask.Region(box.Rectangle())
			s[r][c] = float64(gocv.CountNonZero(cell)) / float64(box.Width*box.Height)
			cell.Close()
		}
	}
	return s
}

// AdaptiveThreshold places the fill threshold at the midpoint of the widest
// gap between consecutive sorted scores, clamped to
// [ThresholdMin, ThresholdMax]. Without any gap DefaultThreshold is used.
func AdaptiveThreshold(s ScoreGrid, p Params) float64 {
	v := s.Values()
	sort.Float64s(v)

	threshold := p.DefaultThreshold
	bestGap := 0.0
	for i := 0; i+1 < len(v); i++ {
		if gap := v[i+1] - v[i]; gap > bestGap {
			bestGap = gap
			threshold = (v[i] + v[i+1]) / 2
		}
	}
	return max(p.ThresholdMin, min(p.ThresholdMax, threshold))
}

// Classify marks cells whose score is strictly above threshold.
func Classify(s ScoreGrid, threshold float64) BoolGrid {
	var g BoolGrid
	for r := range s {
		for c, v := range s[r] {
			g[r][c] = v > threshold
		}
	}
	return g
}
