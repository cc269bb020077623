// Package pattern decodes photographed pattern cards into identifiers.
package pattern

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"pattern-reader/internal/codec"
	"pattern-reader/internal/diag"
	"pattern-reader/internal/fiducial"
	"pattern-reader/internal/grid"
	"pattern-reader/internal/imageio"
	"pattern-reader/internal/region"
	"pattern-reader/internal/segment"

	"gocv.io/x/gocv"
)

// Decoder runs the card pipeline. It holds no per-request state and is safe
// for concurrent use.
type Decoder struct {
	params   Params
	logger   *slog.Logger
	sink     diag.Sink
	debugDir string
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithDebugDir writes every decode's stage images into a fresh
// subdirectory of dir.
func WithDebugDir(dir string) Option {
	return func(d *Decoder) { d.debugDir = dir }
}

// WithSink sends stage images to s. It takes precedence over WithDebugDir.
func WithSink(s diag.Sink) Option {
	return func(d *Decoder) { d.sink = s }
}

// NewDecoder creates a Decoder.
func NewDecoder(params Params, opts ...Option) *Decoder {
	d := &Decoder{
		params: params,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Params returns the decoder's settings.
func (d *Decoder) Params() Params { return d.params }

// WithDebugImage returns a decoder that also attaches an annotated PNG to
// each result.
func (d *Decoder) WithDebugImage() *Decoder {
	c := *d
	c.params.DebugImage = true
	return &c
}

// Decode converts img and runs the pipeline on it.
func (d *Decoder) Decode(ctx context.Context, img image.Image) (*Result, error) {
	mat, err := imageio.ToMat(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()
	return d.DecodeMat(ctx, mat)
}

func (d *Decoder) stageSink() (diag.Sink, string) {
	if d.sink != nil {
		return d.sink, ""
	}
	if d.debugDir == "" {
		return diag.Nop{}, ""
	}
	run, err := diag.NewRun(d.debugDir, d.logger)
	if err != nil {
		d.logger.Warn("debug images disabled", "error", err)
		return diag.Nop{}, ""
	}
	d.logger.Debug("saving stage images", "run_id", run.RunID(), "dir", run.Dir())
	return run, run.Dir()
}

// DecodeMat runs the pipeline on a BGR raster. A card whose top-left
// marker cannot be found is not an error: the result carries an empty grid
// and zero confidence.
func (d *Decoder) DecodeMat(ctx context.Context, src gocv.Mat) (*Result, error) {
	if src.Empty() {
		return nil, errors.New("empty image")
	}
	sink, dir := d.stageSink()
	log := d.logger.With("width", src.Cols(), "height", src.Rows())
	if dir != "" {
		log = log.With("debug_dir", dir)
	}
	sink.Save("0_original", src)

	res := &Result{DebugDir: dir, Region: region.MethodNone}

	work := src
	if !d.params.SkipRegion {
		cropped, rr, err := region.New(d.params.Region, sink).Crop(src)
		if err != nil {
			return nil, fmt.Errorf("failed to locate card: %w", err)
		}
		defer cropped.Close()
		work = cropped
		res.Region = rr.Method
		log.Debug("card region", "found", rr.Found, "method", rr.Method, "area", rr.Quad.Area(),
			"rect_width", rr.Width, "rect_height", rr.Height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	gray, err := segment.Grayscale(work)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to grayscale: %w", err)
	}
	defer gray.Close()

	seg := segment.New(d.params.Segment)
	mask := seg.Segment(gray)
	defer mask.Close()
	sink.Save("1_binary", mask)

	found := fiducial.Locate(mask, d.params.Fiducial)
	markers := fiducial.Normalize(found, d.params.Fiducial.RegularAspect)
	res.CornersFound = found.Count()
	res.Fiducials = markers
	res.Confidence = Confidence(markers)
	log.Debug("fiducials", "found", res.CornersFound,
		"tl", markers.Has(fiducial.TopLeft), "tr", markers.Has(fiducial.TopRight),
		"bl", markers.Has(fiducial.BottomLeft), "br", markers.Has(fiducial.BottomRight))

	if sink.Enabled() {
		overlay := annotate(work, markers, nil, res.Grid)
		sink.Save("2_fiducials", overlay)
		overlay.Close()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	geo, err := grid.Solve(markers, d.params.Grid)
	if errors.Is(err, grid.ErrNoAnchor) {
		log.Info("top-left marker missing", "corners_found", res.CornersFound)
		return d.finish(res, work)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to solve grid: %w", err)
	}
	res.Geometry = &geo

	// Cells are scored on the unclosed mask.
	cellMask, otsu := seg.Threshold(gray)
	defer cellMask.Close()
	sink.Save("3_binary_grid", cellMask)

	res.Scores = grid.Score(cellMask, geo)
	res.Threshold = grid.AdaptiveThreshold(res.Scores, d.params.Grid)
	res.Grid = grid.Classify(res.Scores, res.Threshold)
	res.ID = codec.DecodeID(res.Grid)

	lo, hi := res.Scores.Range()
	log.Info("decoded card",
		"cell_size", geo.CellSize, "origin_x", geo.OriginX, "origin_y", geo.OriginY,
		"otsu", otsu, "threshold", res.Threshold, "score_min", lo, "score_max", hi,
		"filled", res.Grid.Filled(), "confidence", res.Confidence, "id", res.ID)

	if sink.Enabled() {
		overlay := annotate(work, markers, &geo, res.Grid)
		sink.Save("4_grid_result", overlay)
		overlay.Close()
	}
	return d.finish(res, work)
}

// finish attaches the debug image when requested.
func (d *Decoder) finish(res *Result, work gocv.Mat) (*Result, error) {
	if !d.params.DebugImage {
		return res, nil
	}
	overlay := annotate(work, res.Fiducials, res.Geometry, res.Grid)
	defer overlay.Close()
	data, err := imageio.EncodeMatPNG(overlay)
	if err != nil {
		return nil, fmt.Errorf("failed to render debug image: %w", err)
	}
	res.DebugImage = data
	return res, nil
}
