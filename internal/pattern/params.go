package pattern

import (
	"pattern-reader/internal/fiducial"
	"pattern-reader/internal/grid"
	"pattern-reader/internal/region"
	"pattern-reader/internal/segment"
)

// Params groups the settings of every pipeline stage.
type Params struct {
	Segment  segment.Params
	Region   region.Params
	Fiducial fiducial.Params
	Grid     grid.Params

	SkipRegion bool // decode the raster as-is, without locating the card
	DebugImage bool // attach an annotated PNG to the result
}

// DefaultParams returns the settings used for photographed cards.
func DefaultParams() Params {
	return Params{
		Segment:  segment.DefaultParams(),
		Region:   region.DefaultParams(),
		Fiducial: fiducial.DefaultParams(),
		Grid:     grid.DefaultParams(),
	}
}

// WithoutRegion returns a copy of params that skips card localization, for
// inputs that are already tightly cropped.
func (p Params) WithoutRegion() Params {
	p.SkipRegion = true
	return p
}
