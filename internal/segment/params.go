package segment

// Params controls binary segmentation.
type Params struct {
	BlurKernel int // Gaussian blur kernel size (odd)

	// Morphological closing is applied only when min(width, height) exceeds
	// CloseMinDimension. Larger photos carry fabric texture that fragments
	// markers; smaller, cleaner images keep their legitimate gaps.
	CloseMinDimension int
	CloseFraction     float64 // Kernel size as a fraction of min(width, height)
	CloseMinKernel    int
}

// DefaultParams returns the default segmentation parameters.
func DefaultParams() Params {
	return Params{
		BlurKernel:        5,
		CloseMinDimension: 800,
		CloseFraction:     0.008,
		CloseMinKernel:    3,
	}
}

// WithClosing returns a copy of params with custom closing settings.
func (p Params) WithClosing(minDimension int, fraction float64) Params {
	p.CloseMinDimension = minDimension
	p.CloseFraction = fraction
	return p
}

// CloseKernel returns the closing kernel size for an image whose smaller
// dimension is minDim, or 0 when closing should be skipped.
func (p Params) CloseKernel(minDim int) int {
	if minDim <= p.CloseMinDimension {
		return 0
	}
	return OddKernel(max(p.CloseMinKernel, int(float64(minDim)*p.CloseFraction)))
}

// OddKernel bumps an even kernel size to the next odd value.
func OddKernel(n int) int {
	if n < 1 {
		return 1
	}
	if n%2 == 0 {
		n++
	}
	return n
}
