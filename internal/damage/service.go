package damage

import (
	"context"
	"fmt"
	"image"
	"log/slog"
)

// Service runs damage detection against a model loaded once at startup.
// The model is only read after construction, so a Service is safe for
// concurrent use.
type Service struct {
	model     Model
	modelPath string
	logger    *slog.Logger
}

// NewService calls load once. When loading fails the service still starts
// but Detect reports ErrModelUnavailable.
func NewService(ctx context.Context, modelPath string, load Loader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{modelPath: modelPath, logger: logger}

	logger.Info("loading detection model", "model_path", modelPath)
	m, err := load(ctx)
	if err != nil {
		logger.Error("failed to load detection model; /detect will be unavailable", "model_path", modelPath, "error", err)
		return s
	}
	s.model = m
	logger.Info("detection model loaded", "model", m.Name())
	return s
}

// Loaded reports whether the model is available.
func (s *Service) Loaded() bool { return s.model != nil }

// ModelPath returns the configured model path.
func (s *Service) ModelPath() string { return s.modelPath }

// Detect finds damage in img, keeping detections whose confidence is at
// least threshold.
func (s *Service) Detect(ctx context.Context, img image.Image, threshold float64) (*Response, error) {
	if s.model == nil {
		return nil, ErrModelUnavailable
	}
	b := img.Bounds()
	s.logger.Debug("running detection", "width", b.Dx(), "height", b.Dy(), "threshold", threshold)

	dets, err := s.model.Predict(ctx, img, threshold)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	filtered := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= threshold {
			filtered = append(filtered, d)
		}
	}
	s.logger.Info("detection complete", "detections", len(filtered), "dropped", len(dets)-len(filtered))

	return &Response{
		Detections:  filtered,
		ImageWidth:  b.Dx(),
		ImageHeight: b.Dy(),
	}, nil
}
