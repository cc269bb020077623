// Package fiducial finds and reconciles the four printed corner markers
// that anchor a pattern card.
package fiducial

import "pattern-reader/pkg/geometry"

// Corner identifies one of the four marker positions.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Corners lists every corner in locate order.
var Corners = [4]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "TL"
	case TopRight:
		return "TR"
	case BottomLeft:
		return "BL"
	case BottomRight:
		return "BR"
	default:
		return "?"
	}
}

// Set holds the markers that were found. A nil entry means the marker is
// absent.
type Set struct {
	TL *geometry.BoundingBox `json:"tl,omitempty"`
	TR *geometry.BoundingBox `json:"tr,omitempty"`
	BL *geometry.BoundingBox `json:"bl,omitempty"`
	BR *geometry.BoundingBox `json:"br,omitempty"`
}

func (s *Set) slot(c Corner) **geometry.BoundingBox {
	switch c {
	case TopLeft:
		return &s.TL
	case TopRight:
		return &s.TR
	case BottomLeft:
		return &s.BL
	case BottomRight:
		return &s.BR
	}
	return nil
}

// Get returns the box for c and whether it is present.
func (s Set) Get(c Corner) (geometry.BoundingBox, bool) {
	p := s.slot(c)
	if p == nil || *p == nil {
		return geometry.BoundingBox{}, false
	}
	return **p, true
}

// Put stores a copy of box at c.
func (s *Set) Put(c Corner, box geometry.BoundingBox) {
	if p := s.slot(c); p != nil {
		*p = &box
	}
}

// Has reports whether c is present.
func (s Set) Has(c Corner) bool {
	_, ok := s.Get(c)
	return ok
}

// Count returns the number of markers present.
func (s Set) Count() int {
	n := 0
	for _, c := range Corners {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// Complete reports whether all four markers are present.
func (s Set) Complete() bool { return s.Count() == len(Corners) }
