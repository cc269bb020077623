// Package damage proxies fabric damage detection to an external inference
// service.
package damage

import (
	"context"
	"errors"
	"image"
)

// DefaultThreshold is the minimum confidence kept when a request gives none.
const DefaultThreshold = 0.3

// ErrModelUnavailable is returned when the detection model failed to
// initialize at startup.
var ErrModelUnavailable = errors.New("model not loaded")

// BBox is a detection box in pixels, top-left anchored.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection is one detected damage region.
type Detection struct {
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	ClassName  string  `json:"class_name"`
}

// Response is the detection result for one image.
type Response struct {
	Detections  []Detection `json:"detections"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
}

// Model runs detection on a raster.
type Model interface {
	Name() string
	Predict(ctx context.Context, img image.Image, threshold float64) ([]Detection, error)
}

// Loader initializes a Model.
type Loader func(ctx context.Context) (Model, error)
