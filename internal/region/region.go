// Package region finds the pattern card inside a larger photo and
// perspective-rectifies it.
package region

import (
	"fmt"
	"image"
	"sort"

	"pattern-reader/internal/diag"
	"pattern-reader/internal/segment"
	"pattern-reader/pkg/geometry"

	"gocv.io/x/gocv"
)

// Detection methods reported in Result.
const (
	MethodThreshold = "threshold"
	MethodEdges     = "edges"
	MethodNone      = "none"
)

// Result describes the located card region.
type Result struct {
	Found  bool
	Quad   geometry.Quad // Ordered TL, TR, BR, BL; zero when not found
	Method string
	Width  int // Rectified size; the input size when not found
	Height int
}

// Locator detects the card quadrilateral.
type Locator struct {
	params Params
	sink   diag.Sink
}

// New creates a Locator. A nil sink discards diagnostic images.
func New(params Params, sink diag.Sink) *Locator {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Locator{params: params, sink: sink}
}

// Locate searches for a roughly square quadrilateral covering a meaningful
// part of the image: first on a closed inverted-Otsu mask, then on dilated
// Canny edges.
func (l *Locator) Locate(img gocv.Mat) (Result, error) {
	gray, err := segment.Grayscale(img)
	if err != nil {
		return Result{}, fmt.Errorf("failed to convert to grayscale: %w", err)
	}
	defer gray.Close()

	h, w := gray.Rows(), gray.Cols()
	minArea := float64(h*w) * l.params.MinAreaFraction

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := segment.OddKernel(l.params.BlurKernel)
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	// Method 1: inverted threshold, closed into a single card blob
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(blurred, &binary, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)

	ck := segment.OddKernel(max(l.params.CloseMinKernel, int(float64(min(h, w))*l.params.CloseFraction)))
	closeKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: ck, Y: ck})
	defer closeKernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, closeKernel)
	l.sink.Save("0a_binary_closed", binary)

	if q, ok := l.findQuad(binary, minArea); ok {
		return l.result(q, MethodThreshold), nil
	}

	// Method 2: edge detection fallback
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, l.params.CannyLow, l.params.CannyHigh)

	dilateKernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: 3, Y: 3})
	defer dilateKernel.Close()
	for i := 0; i < l.params.DilateIterations; i++ {
		gocv.Dilate(edges, &edges, dilateKernel)
	}
	l.sink.Save("0a_edges", edges)

	if q, ok := l.findQuad(edges, minArea); ok {
		return l.result(q, MethodEdges), nil
	}

	return Result{Method: MethodNone, Width: w, Height: h}, nil
}

// Crop locates the card and returns the rectified raster. When no card is
// found the returned Mat is an unmodified copy of img. The caller owns the
// returned Mat.
func (l *Locator) Crop(img gocv.Mat) (gocv.Mat, Result, error) {
	res, err := l.Locate(img)
	if err != nil {
		return gocv.NewMat(), Result{}, err
	}
	if !res.Found {
		return img.Clone(), res, nil
	}

	if l.sink.Enabled() {
		overlay := img.Clone()
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{quadPoints(res.Quad)})
		gocv.DrawContours(&overlay, pts, -1, diag.Green, 3)
		l.sink.Save("0b_pattern_region", overlay)
		pts.Close()
		overlay.Close()
	}

	warped, err := Warp(img, res.Quad)
	if err != nil {
		return gocv.NewMat(), Result{}, err
	}
	l.sink.Save("0c_cropped", warped)
	return warped, res, nil
}

func (l *Locator) result(q geometry.Quad, method string) Result {
	w, h := q.RectifiedSize()
	return Result{Found: true, Quad: q, Method: method, Width: w, Height: h}
}

type candidate struct {
	index int
	area  float64
}

// findQuad returns the first of the largest contours whose polygon
// approximation is an acceptable quadrilateral.
func (l *Locator) findQuad(mask gocv.Mat, minArea float64) (geometry.Quad, bool) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	cands := make([]candidate, contours.Size())
	for i := range cands {
		cands[i] = candidate{index: i, area: gocv.ContourArea(contours.At(i))}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].area > cands[j].area })
	if len(cands) > l.params.MaxCandidates {
		cands = cands[:l.params.MaxCandidates]
	}

	for _, c := range cands {
		contour := contours.At(c.index)
		epsilon := l.params.PolyEpsilon * gocv.ArcLength(contour, true)
		approx := gocv.ApproxPolyDP(contour, epsilon, true)
		if approx.Size() != 4 {
			approx.Close()
			continue
		}

		area := gocv.ContourArea(approx)
		box := geometry.FromRectangle(gocv.BoundingRect(approx))
		pts := approx.ToPoints()
		approx.Close()

		if area < minArea {
			continue
		}
		if box.AspectRatio() > l.params.MaxAspect {
			continue
		}

		var corners [4]geometry.PointInt
		for i, p := range pts {
			corners[i] = geometry.PointInt{X: p.X, Y: p.Y}
		}
		return geometry.OrderQuad(corners), true
	}
	return geometry.Quad{}, false
}

// Warp maps the quadrilateral onto an axis-aligned rectangle sized by its
// longer opposing edges. The caller owns the returned Mat.
func Warp(img gocv.Mat, q geometry.Quad) (gocv.Mat, error) {
	w, h := q.RectifiedSize()
	if w <= 1 || h <= 1 {
		return gocv.NewMat(), fmt.Errorf("degenerate quadrilateral: %dx%d", w, h)
	}

	src := gocv.NewPointVectorFromPoints(quadPoints(q))
	defer src.Close()
	dst := gocv.NewPointVectorFromPoints([]image.Point{
		{X: 0, Y: 0},
		{X: w - 1, Y: 0},
		{X: w - 1, Y: h - 1},
		{X: 0, Y: h - 1},
	})
	defer dst.Close()

	m := gocv.GetPerspectiveTransform(src, dst)
	defer m.Close()

	warped := gocv.NewMat()
	gocv.WarpPerspective(img, &warped, m, image.Point{X: w, Y: h})
	return warped, nil
}

func quadPoints(q geometry.Quad) []image.Point {
	pts := make([]image.Point, len(q))
	for i, p := range q {
		pts[i] = p.ToImage()
	}
	return pts
}
