package region

// Params controls card-region detection.
type Params struct {
	BlurKernel int

	// Aggressive closing merges the whole printed card into one blob.
	CloseFraction  float64 // Kernel size as a fraction of min(width, height)
	CloseMinKernel int

	MaxCandidates   int     // Largest contours examined per method
	PolyEpsilon     float64 // Polygon approximation tolerance as a fraction of perimeter
	MinAreaFraction float64 // Minimum quad area as a fraction of image area
	MaxAspect       float64 // Maximum bounding-box side ratio

	// Edge fallback
	CannyLow         float32
	CannyHigh        float32
	DilateIterations int
}

// DefaultParams returns the default region detection parameters.
func DefaultParams() Params {
	return Params{
		BlurKernel:       5,
		CloseFraction:    0.03,
		CloseMinKernel:   15,
		MaxCandidates:    10,
		PolyEpsilon:      0.02,
		MinAreaFraction:  0.05,
		MaxAspect:        1.5,
		CannyLow:         50,
		CannyHigh:        150,
		DilateIterations: 2,
	}
}

// WithAcceptance returns a copy of params with custom quad acceptance limits.
func (p Params) WithAcceptance(minAreaFraction, maxAspect float64) Params {
	p.MinAreaFraction = minAreaFraction
	p.MaxAspect = maxAspect
	return p
}
