package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pattern-reader/internal/pattern"
)

const maxTuningFileSize = 1 << 20

// Tuning overrides pipeline parameters. Omitted fields keep their defaults,
// so partial files are safe.
type Tuning struct {
	SkipRegion *bool `json:"skip_region,omitempty"`

	// Segmentation
	BlurKernel        *int     `json:"blur_kernel,omitempty"`
	CloseMinDimension *int     `json:"close_min_dimension,omitempty"`
	CloseFraction     *float64 `json:"close_fraction,omitempty"`

	// Card region
	RegionMinAreaFraction *float64 `json:"region_min_area_fraction,omitempty"`
	RegionMaxAspect       *float64 `json:"region_max_aspect,omitempty"`
	RegionPolyEpsilon     *float64 `json:"region_poly_epsilon,omitempty"`

	// Markers
	MarginFraction *float64 `json:"margin_fraction,omitempty"`
	MergeCount     *int     `json:"merge_count,omitempty"`
	RegularAspect  *float64 `json:"regular_aspect,omitempty"`

	// Lattice and classification
	FiducialToCell   *float64 `json:"fiducial_to_cell,omitempty"`
	OriginOffset     *float64 `json:"origin_offset,omitempty"`
	ThresholdMin     *float64 `json:"threshold_min,omitempty"`
	ThresholdMax     *float64 `json:"threshold_max,omitempty"`
	DefaultThreshold *float64 `json:"default_threshold,omitempty"`
}

// LoadTuning reads a tuning file. The file must have a .json extension and
// be under 1MB.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	if info.Size() > maxTuningFileSize {
		return nil, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxTuningFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

func checkFraction(name string, v *float64) error {
	if v != nil && (*v <= 0 || *v >= 1) {
		return fmt.Errorf("%s must be in (0, 1), got %v", name, *v)
	}
	return nil
}

func checkPositive(name string, v *float64) error {
	if v != nil && *v <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, *v)
	}
	return nil
}

// Validate checks the values that are set.
func (t *Tuning) Validate() error {
	var errs []error
	if t.BlurKernel != nil && *t.BlurKernel < 1 {
		errs = append(errs, fmt.Errorf("blur_kernel must be at least 1, got %d", *t.BlurKernel))
	}
	if t.CloseMinDimension != nil && *t.CloseMinDimension < 0 {
		errs = append(errs, fmt.Errorf("close_min_dimension must not be negative, got %d", *t.CloseMinDimension))
	}
	if t.MergeCount != nil && *t.MergeCount < 1 {
		errs = append(errs, fmt.Errorf("merge_count must be at least 1, got %d", *t.MergeCount))
	}
	errs = append(errs,
		checkFraction("close_fraction", t.CloseFraction),
		checkFraction("region_min_area_fraction", t.RegionMinAreaFraction),
		checkFraction("region_poly_epsilon", t.RegionPolyEpsilon),
		checkFraction("margin_fraction", t.MarginFraction),
		checkFraction("threshold_min", t.ThresholdMin),
		checkFraction("threshold_max", t.ThresholdMax),
		checkFraction("default_threshold", t.DefaultThreshold),
		checkPositive("region_max_aspect", t.RegionMaxAspect),
		checkPositive("regular_aspect", t.RegularAspect),
		checkPositive("fiducial_to_cell", t.FiducialToCell),
		checkPositive("origin_offset", t.OriginOffset),
	)
	if t.ThresholdMin != nil && t.ThresholdMax != nil && *t.ThresholdMin > *t.ThresholdMax {
		errs = append(errs, fmt.Errorf("threshold_min %v exceeds threshold_max %v", *t.ThresholdMin, *t.ThresholdMax))
	}
	return errors.Join(errs...)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func valueOr[T any](v *T, def T) T {
	if v != nil {
		return *v
	}
	return def
}

// Apply returns p with every set field overridden.
func (t *Tuning) Apply(p pattern.Params) pattern.Params {
	if t == nil {
		return p
	}
	set(&p.SkipRegion, t.SkipRegion)

	set(&p.Segment.BlurKernel, t.BlurKernel)
	set(&p.Region.BlurKernel, t.BlurKernel)
	p.Segment = p.Segment.WithClosing(
		valueOr(t.CloseMinDimension, p.Segment.CloseMinDimension),
		valueOr(t.CloseFraction, p.Segment.CloseFraction))

	p.Region = p.Region.WithAcceptance(
		valueOr(t.RegionMinAreaFraction, p.Region.MinAreaFraction),
		valueOr(t.RegionMaxAspect, p.Region.MaxAspect))
	set(&p.Region.PolyEpsilon, t.RegionPolyEpsilon)

	p.Fiducial = p.Fiducial.WithMargin(valueOr(t.MarginFraction, p.Fiducial.MarginFraction))
	set(&p.Fiducial.MergeCount, t.MergeCount)
	set(&p.Fiducial.RegularAspect, t.RegularAspect)

	set(&p.Grid.FiducialToCell, t.FiducialToCell)
	set(&p.Grid.OriginOffset, t.OriginOffset)
	p.Grid = p.Grid.WithThresholdRange(
		valueOr(t.ThresholdMin, p.Grid.ThresholdMin),
		valueOr(t.ThresholdMax, p.Grid.ThresholdMax))
	set(&p.Grid.DefaultThreshold, t.DefaultThreshold)
	return p
}

// PatternParams loads the tuning file at path, if any, on top of the
// default pipeline parameters.
func PatternParams(path string) (pattern.Params, error) {
	p := pattern.DefaultParams()
	if path == "" {
		return p, nil
	}
	t, err := LoadTuning(path)
	if err != nil {
		return p, err
	}
	// A single override can conflict with a default it leaves in place.
	tuned := t.Apply(p)
	if err := tuned.Grid.Validate(); err != nil {
		return p, fmt.Errorf("invalid tuning: %w", err)
	}
	return tuned, nil
}
