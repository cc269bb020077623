package fiducial

import (
	"image"
	"sort"

	"pattern-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// Windows returns the four square search windows of a width×height raster,
// indexed by Corner.
func Windows(width, height int, p Params) [4]image.Rectangle {
	m := p.Window(width, height)
	var w [4]image.Rectangle
	w[TopLeft] = image.Rect(0, 0, m, m)
	w[TopRight] = image.Rect(width-m, 0, width, m)
	w[BottomLeft] = image.Rect(0, height-m, m, height)
	w[BottomRight] = image.Rect(width-m, height-m, width, height)
	return w
}

// Locate searches each corner window of the binary mask for a marker. The
// box of a window is the bounding box of its largest blob, or of the union
// of the MergeCount largest when a marker was broken into pieces. Windows
// without foreground are left absent.
func Locate(mask gocv.Mat, p Params) Set {
	var set Set
	if mask.Empty() {
		return set
	}
	windows := Windows(mask.Cols(), mask.Rows(), p)
	for _, c := range Corners {
		r := windows[c]
		if r.Empty() {
			continue
		}
		if box, ok := locateIn(mask, r, p.MergeCount); ok {
			set.Put(c, box)
		}
	}
	return set
}

func locateIn(mask gocv.Mat, r image.Rectangle, mergeCount int) (geometry.BoundingBox, bool) {
	roi := mask.Region(r)
	window := roi.Clone()
	roi.Close()
	defer window.Close()

	contours := gocv.FindContours(window, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return geometry.BoundingBox{}, false
	}

	type blob struct {
		area float64
		rect image.Rectangle
	}
	blobs := make([]blob, contours.Size())
	for i := range blobs {
		c := contours.At(i)
		blobs[i] = blob{area: gocv.ContourArea(c), rect: gocv.BoundingRect(c)}
	}
	sort.SliceStable(blobs, func(i, j int) bool { return blobs[i].area > blobs[j].area })

	n := 1
	if len(blobs) > 1 {
		n = min(max(mergeCount, 1), len(blobs))
	}
	union := blobs[0].rect
	for _, b := range blobs[1:n] {
		union = union.Union(b.rect)
	}
	return geometry.FromRectangle(union).Offset(r.Min.X, r.Min.Y), true
}
