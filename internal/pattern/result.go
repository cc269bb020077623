package pattern

import (
	"pattern-reader/internal/fiducial"
	"pattern-reader/internal/grid"
)

// Confidence levels by marker coverage.
const (
	ConfidenceFull    = 1.0 // all four markers
	ConfidencePartial = 0.7 // top-left plus one or two others
	ConfidenceAnchor  = 0.5 // top-left only
	ConfidenceNone    = 0.0 // top-left missing
)

// Result is the outcome of decoding one card.
type Result struct {
	Grid         grid.BoolGrid `json:"grid"`
	Confidence   float64       `json:"confidence"`
	CornersFound int           `json:"corner_markers_found"`
	ID           string        `json:"id"`
	DebugImage   []byte        `json:"debug_image,omitempty"`

	Scores    grid.ScoreGrid `json:"-"`
	Threshold float64        `json:"-"`
	Geometry  *grid.Geometry `json:"-"`
	Fiducials fiducial.Set   `json:"-"`
	Region    string         `json:"-"` // card localization method
	DebugDir  string         `json:"-"` // where stage images were written, if anywhere
}

// Confidence scores a marker set. A set without the top-left marker cannot
// be decoded and scores zero.
func Confidence(set fiducial.Set) float64 {
	if !set.Has(fiducial.TopLeft) {
		return ConfidenceNone
	}
	switch set.Count() {
	case 4:
		return ConfidenceFull
	case 2, 3:
		return ConfidencePartial
	default:
		return ConfidenceAnchor
	}
}
