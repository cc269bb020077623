package imageio

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// Format names an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpg"
	WebP Format = "webp"
)

// ParseFormat maps a file extension or format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Encode writes img in the given format. Quality applies to JPEG and lossy
// WebP; zero selects a lossless WebP.
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case PNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case JPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case WebP:
		err = webp.Encode(&buf, img, &webp.Options{Lossless: quality == 0, Quality: float32(quality)})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// EncodeMatPNG encodes a Mat as PNG.
func EncodeMatPNG(mat gocv.Mat) ([]byte, error) {
	nb, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	defer nb.Close()
	return bytes.Clone(nb.GetBytes()), nil
}
