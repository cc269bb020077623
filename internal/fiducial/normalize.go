package fiducial

import (
	"pattern-reader/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// Normalize squares up every marker box around its own center. Boxes whose
// aspect ratio is below regularAspect keep their own mean side; the others
// are resized to the mean side of the regular boxes, so a single marker
// smeared by stray ink takes the size its peers agree on. When no box is
// regular the least elongated one serves as the reference. Sets with fewer
// than two markers are returned unchanged.
func Normalize(set Set, regularAspect float64) Set {
	if set.Count() < 2 {
		return set
	}

	var sizes []float64
	best, bestAspect := geometry.BoundingBox{}, 0.0
	first := true
	for _, c := range Corners {
		b, ok := set.Get(c)
		if !ok {
			continue
		}
		a := b.AspectRatio()
		if a < regularAspect {
			sizes = append(sizes, b.Size())
		}
		if first || a < bestAspect {
			best, bestAspect, first = b, a, false
		}
	}
	if len(sizes) == 0 {
		sizes = []float64{best.Size()}
	}
	target := int(stat.Mean(sizes, nil))

	var out Set
	for _, c := range Corners {
		b, ok := set.Get(c)
		if !ok {
			continue
		}
		side := (b.Width + b.Height) / 2
		if b.AspectRatio() >= regularAspect {
			side = target
		}
		out.Put(c, geometry.SquareAt(b.Center(), side))
	}
	return out
}
