package grid

import "fmt"

// Params controls grid geometry and cell classification.
type Params struct {
	// Cell side as a multiple of the top-left marker size (single-anchor layout).
	FiducialToCell float64
	// Gap between the top-left marker and the first cell, as a fraction of marker size.
	OriginOffset float64

	// Clamp for the adaptive fill threshold
	ThresholdMin float64
	ThresholdMax float64
	// Threshold used when scores show no gap at all
	DefaultThreshold float64
}

// DefaultParams returns the geometry and threshold settings for printed cards.
func DefaultParams() Params {
	return Params{
		FiducialToCell:   1.30,
		OriginOffset:     0.10,
		ThresholdMin:     0.10,
		ThresholdMax:     0.50,
		DefaultThreshold: 0.15,
	}
}

// WithThresholdRange returns a copy of params with a different clamp range.
func (p Params) WithThresholdRange(lo, hi float64) Params {
	p.ThresholdMin = lo
	p.ThresholdMax = hi
	return p
}

// Validate checks that the clamp range is ordered and contains the default
// threshold.
func (p Params) Validate() error {
	if p.ThresholdMin > p.ThresholdMax {
		return fmt.Errorf("threshold range [%v, %v] is inverted", p.ThresholdMin, p.ThresholdMax)
	}
	if p.DefaultThreshold < p.ThresholdMin || p.DefaultThreshold > p.ThresholdMax {
		return fmt.Errorf("default threshold %v outside [%v, %v]", p.DefaultThreshold, p.ThresholdMin, p.ThresholdMax)
	}
	return nil
}
