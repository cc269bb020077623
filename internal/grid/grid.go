// Package grid measures the 7×7 cell lattice from the corner markers and
// classifies each cell as filled or empty.
package grid

import (
	"errors"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Size is the number of cells along each side of the card.
const Size = 7

// ErrNoAnchor is returned when the top-left marker, which anchors the
// lattice, was not found.
var ErrNoAnchor = errors.New("top-left marker not found")

// Geometry places the lattice on the rectified raster.
type Geometry struct {
	OriginX  int `json:"origin_x"`
	OriginY  int `json:"origin_y"`
	CellSize int `json:"cell_size"`
}

// ScoreGrid holds the fraction of foreground pixels per cell.
type ScoreGrid [Size][Size]float64

// Values returns the scores in row-major order.
func (s ScoreGrid) Values() []float64 {
	v := make([]float64, 0, Size*Size)
	for _, row := range s {
		v = append(v, row[:]...)
	}
	return v
}

// Range returns the lowest and highest score.
func (s ScoreGrid) Range() (lo, hi float64) {
	v := s.Values()
	return floats.Min(v), floats.Max(v)
}

// BoolGrid marks filled cells.
type BoolGrid [Size][Size]bool

// Filled returns the number of filled cells.
func (g BoolGrid) Filled() int {
	n := 0
	for _, row := range g {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Rows renders each row as a string of '1' (filled) and '0' (empty).
func (g BoolGrid) Rows() []string {
	rows := make([]string, Size)
	for r, row := range g {
		var sb strings.Builder
		for _, v := range row {
			if v {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		rows[r] = sb.String()
	}
	return rows
}

// String draws the grid with column and row indices.
func (g BoolGrid) String() string {
	var sb strings.Builder
	sb.WriteString("  ")
	for c := 0; c < Size; c++ {
		sb.WriteByte(' ')
		sb.WriteByte(byte('0' + c))
	}
	sb.WriteByte('\n')
	for r, row := range g {
		sb.WriteByte(byte('0' + r))
		sb.WriteByte(' ')
		for _, v := range row {
			sb.WriteByte(' ')
			if v {
				sb.WriteString("█")
			} else {
				sb.WriteString("·")
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
