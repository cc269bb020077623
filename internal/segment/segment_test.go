package segment

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// grayCard returns a white single-channel image with a black square.
func grayCard(size int, square image.Rectangle) gocv.Mat {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), size, size, gocv.MatTypeCV8U)
	gocv.Rectangle(&m, square, black, -1)
	return m
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 5, p.BlurKernel)
	assert.Equal(t, 800, p.CloseMinDimension)
	assert.InDelta(t, 0.008, p.CloseFraction, 1e-12)
	assert.Equal(t, 3, p.CloseMinKernel)
}

func TestCloseKernel(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		minDim int
		want   int
	}{
		{400, 0},
		{800, 0},   // not strictly larger
		{801, 7},   // int(6.408)=6 -> 7
		{1000, 9},  // int(8)=8 -> 9
		{1250, 11}, // int(10)=10 -> 11
		{1500, 13}, // int(12)=12 -> 13
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.CloseKernel(tt.minDim), "minDim=%d", tt.minDim)
	}
}

func TestCloseKernelRespectsMinimum(t *testing.T) {
	p := DefaultParams().WithClosing(100, 0.001)
	assert.Equal(t, 3, p.CloseKernel(200))
}

func TestOddKernel(t *testing.T) {
	assert.Equal(t, 1, OddKernel(0))
	assert.Equal(t, 3, OddKernel(3))
	assert.Equal(t, 5, OddKernel(4))
}

func TestThresholdMarksDarkPixelsAsForeground(t *testing.T) {
	img := grayCard(200, image.Rect(50, 50, 150, 150))
	defer img.Close()

	s := New(DefaultParams())
	mask, otsu := s.Threshold(img)
	defer mask.Close()

	assert.Greater(t, otsu, float32(0))
	assert.Less(t, otsu, float32(255))
	assert.Equal(t, uint8(255), mask.GetUCharAt(100, 100), "inside the dark square")
	assert.Equal(t, uint8(0), mask.GetUCharAt(10, 10), "white background")

	// Blur softens the edge by a couple of pixels at most.
	assert.InDelta(t, 100*100, gocv.CountNonZero(mask), 800)
}

func TestSegmentSkipsClosingOnSmallImages(t *testing.T) {
	img := grayCard(300, image.Rect(100, 100, 200, 200))
	defer img.Close()
	// A one-pixel gap that closing would bridge.
	gocv.Line(&img, image.Pt(150, 100), image.Pt(150, 199), white, 1)

	s := New(DefaultParams())
	plain, _ := s.Threshold(img)
	defer plain.Close()
	seg := s.Segment(img)
	defer seg.Close()

	assert.Equal(t, gocv.CountNonZero(plain), gocv.CountNonZero(seg))
}

func TestSegmentClosesGapsOnLargeImages(t *testing.T) {
	img := grayCard(1000, image.Rect(300, 300, 700, 700))
	defer img.Close()
	for x := 320; x < 700; x += 40 {
		gocv.Line(&img, image.Pt(x, 300), image.Pt(x, 699), white, 2)
	}

	s := New(DefaultParams())
	plain, _ := s.Threshold(img)
	defer plain.Close()
	seg := s.Segment(img)
	defer seg.Close()

	assert.Greater(t, gocv.CountNonZero(seg), gocv.CountNonZero(plain))
}

func TestGrayscale(t *testing.T) {
	bgr := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer bgr.Close()

	gray, err := Grayscale(bgr)
	require.NoError(t, err)
	defer gray.Close()
	assert.Equal(t, 1, gray.Channels())

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = Grayscale(empty)
	assert.Error(t, err)
}
