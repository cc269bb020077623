package fiducial

// Params controls marker search and size reconciliation.
type Params struct {
	// Side of each square corner window as a fraction of the shorter image side.
	MarginFraction float64

	// When a window holds several blobs, the union of this many largest is taken.
	MergeCount int

	// Boxes with aspect ratio strictly below this are considered regular.
	RegularAspect float64
}

// DefaultParams returns the marker parameters used for printed cards.
func DefaultParams() Params {
	return Params{
		MarginFraction: 0.18,
		MergeCount:     3,
		RegularAspect:  1.3,
	}
}

// WithMargin returns a copy of params with a different corner window size.
func (p Params) WithMargin(fraction float64) Params {
	p.MarginFraction = fraction
	return p
}

// Window returns the corner window side for an image of the given size.
func (p Params) Window(width, height int) int {
	return int(float64(min(width, height)) * p.MarginFraction)
}
