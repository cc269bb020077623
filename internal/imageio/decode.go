// Package imageio moves rasters between encoded bytes, Go images and gocv
// matrices.
package imageio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeOption adjusts how encoded images are decoded.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	autoOrient bool
}

// KeepOrientation ignores EXIF orientation and returns pixels in their
// stored layout.
func KeepOrientation() DecodeOption {
	return func(c *decodeConfig) { c.autoOrient = false }
}

// DecodePayload decodes a base64 image, optionally wrapped as a data URI
// ("data:image/png;base64,..."). Everything up to the first comma is
// treated as the URI header and discarded.
func DecodePayload(payload string, opts ...DecodeOption) (image.Image, error) {
	payload = strings.TrimSpace(payload)
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		var rawErr error
		if data, rawErr = base64.RawStdEncoding.DecodeString(payload); rawErr != nil {
			return nil, fmt.Errorf("%w: failed to decode base64: %w", ErrInvalidPayload, err)
		}
	}
	return DecodeBytes(data, opts...)
}

// DecodeBytes decodes an encoded image and returns it as an opaque NRGBA
// raster. EXIF orientation is applied unless KeepOrientation is given.
func DecodeBytes(data []byte, opts ...DecodeOption) (image.Image, error) {
	cfg := decodeConfig{autoOrient: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no image data", ErrInvalidPayload)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(cfg.autoOrient))
	if err != nil {
		var webpErr error
		if img, webpErr = webp.Decode(bytes.NewReader(data)); webpErr != nil {
			return nil, fmt.Errorf("%w: failed to decode image: %w", ErrInvalidPayload, err)
		}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrInvalidPayload)
	}
	return ToRGB(img), nil
}

// LoadFile reads and decodes an image file.
func LoadFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	img, err := DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return img, nil
}

// ToRGB returns an NRGBA copy of img with the alpha channel discarded, so
// translucent pixels keep their color rather than blending toward black.
func ToRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
