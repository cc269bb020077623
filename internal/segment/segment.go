// Package segment turns grayscale rasters into foreground/background masks.
package segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Segmenter produces inverted binary masks using Otsu thresholding.
// Foreground (255) marks pixels darker than the computed threshold.
type Segmenter struct {
	params Params
}

// New creates a Segmenter.
func New(params Params) *Segmenter {
	return &Segmenter{params: params}
}

// Grayscale converts a BGR, BGRA or single-channel Mat to grayscale.
// The caller owns the returned Mat.
func Grayscale(src gocv.Mat) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}
	gray := gocv.NewMat()
	switch src.Channels() {
	case 1:
		src.CopyTo(&gray)
	case 3:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("unsupported channel count: %d", src.Channels())
	}
	return gray, nil
}

// Threshold blurs the grayscale image and applies an inverted Otsu threshold.
// It returns the mask and the threshold value Otsu selected.
func (s *Segmenter) Threshold(gray gocv.Mat) (gocv.Mat, float32) {
	blurred := gocv.NewMat()
	defer blurred.Close()
	k := OddKernel(s.params.BlurKernel)
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	mask := gocv.NewMat()
	otsu := gocv.Threshold(blurred, &mask, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)
	return mask, otsu
}

// Segment thresholds the image and, for large images, closes small gaps
// with an elliptical kernel.
func (s *Segmenter) Segment(gray gocv.Mat) gocv.Mat {
	mask, _ := s.Threshold(gray)

	k := s.params.CloseKernel(min(gray.Rows(), gray.Cols()))
	if k == 0 {
		return mask
	}

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: k, Y: k})
	defer kernel.Close()
	gocv.MorphologyEx(mask, &mask, gocv.MorphClose, kernel)
	return mask
}
