// Command decodetest decodes pattern card photos and prints each stage's
// outcome.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"pattern-reader/internal/codec"
	"pattern-reader/internal/config"
	"pattern-reader/internal/fiducial"
	"pattern-reader/internal/imageio"
	"pattern-reader/internal/pattern"
	"pattern-reader/internal/version"
)

var (
	flagDebugDir = flag.String("debug-dir", "", "Write stage images under this directory")
	flagNoRegion = flag.Bool("no-region", false, "Skip card localization (input is already cropped)")
	flagTuning   = flag.String("tuning", "", "Pipeline tuning JSON file")
	flagJSON     = flag.Bool("json", false, "Print results as JSON lines")
	flagDebugImg = flag.Bool("debug-img", false, "Render the annotated image (JSON: base64 field, text: file beside the input)")
	flagOverlay  = flag.String("overlay-format", "png", "Annotated image format for text output: png, jpg or webp")
	flagParallel = flag.Int("j", runtime.NumCPU(), "Number of parallel workers")
	flagVerbose  = flag.Bool("v", false, "Verbose output")
	flagVersion  = flag.Bool("version", false, "Print version and exit")
)

type outcome struct {
	path string
	res  *pattern.Result
	err  error
}

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Println("decodetest", version.String())
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <image>...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	overlayFormat, err := imageio.ParseFormat(*flagOverlay)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	params, err := config.PatternParams(*flagTuning)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tuning: %v\n", err)
		os.Exit(1)
	}
	if *flagNoRegion {
		params = params.WithoutRegion()
	}
	params.DebugImage = *flagDebugImg

	opts := []pattern.Option{pattern.WithLogger(logger)}
	if *flagDebugDir != "" {
		opts = append(opts, pattern.WithDebugDir(*flagDebugDir))
	}
	dec := pattern.NewDecoder(params, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results := decodeAll(ctx, dec, flag.Args(), max(*flagParallel, 1))

	failed := 0
	enc := json.NewEncoder(os.Stdout)
	for _, o := range results {
		if o.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", o.path, o.err)
			continue
		}
		if *flagJSON {
			if err := enc.Encode(struct {
				File string `json:"file"`
				*pattern.Result
			}{o.path, o.res}); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
			}
			continue
		}
		report(o.path, o.res)
		if len(o.res.DebugImage) > 0 {
			out, err := writeOverlay(o.path, o.res.DebugImage, overlayFormat)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", o.path, err)
				continue
			}
			fmt.Printf("Annotated image: %s\n\n", out)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// decodeAll decodes every path with at most workers decodes in flight and
// returns the outcomes in input order.
func decodeAll(ctx context.Context, dec *pattern.Decoder, paths []string, workers int) []outcome {
	results := make([]outcome, len(paths))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, path := range paths {
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			results[i].path = path
			img, err := imageio.LoadFile(path)
			if err != nil {
				results[i].err = err
				return
			}
			results[i].res, results[i].err = dec.Decode(ctx, img)
		}()
	}
	wg.Wait()
	return results
}

func report(path string, res *pattern.Result) {
	fmt.Printf("%s\n", path)
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Card region: %s\n", res.Region)

	fmt.Printf("Fiducials: %d/4\n", res.CornersFound)
	for _, c := range fiducial.Corners {
		if b, ok := res.Fiducials.Get(c); ok {
			fmt.Printf("  %s: (%d, %d) %dx%d\n", c, b.X, b.Y, b.Width, b.Height)
		} else {
			fmt.Printf("  %s: not found\n", c)
		}
	}
	if res.Geometry == nil {
		fmt.Printf("\nTop-left marker missing; nothing decoded (confidence %.1f)\n\n", res.Confidence)
		return
	}

	g := res.Geometry
	lo, hi := res.Scores.Range()
	fmt.Printf("Cell size: %dpx, origin (%d, %d)\n", g.CellSize, g.OriginX, g.OriginY)
	fmt.Printf("Threshold: %.3f (scores %.3f - %.3f)\n", res.Threshold, lo, hi)
	fmt.Printf("Filled cells: %d/49\n\n", res.Grid.Filled())

	fmt.Print(res.Grid.String())
	fmt.Println()
	fmt.Println("Binary rows:")
	for r, row := range res.Grid.Rows() {
		fmt.Printf("  Row %d: %s\n", r, row)
	}

	bits := codec.Bits(res.Grid)
	fmt.Printf("\nBinary (45 bits, no corners): %s\n", codec.BitString(bits))
	for _, c := range codec.Chunks(bits) {
		fmt.Printf("  %s\n", c)
	}
	fmt.Printf("  bits 43-45: %s (unused)\n", codec.BitString(codec.Spare(bits)))

	fmt.Printf("\nDecoded ID: %q  confidence %.1f\n", res.ID, res.Confidence)
	if res.DebugDir != "" {
		fmt.Printf("Debug images: %s\n", res.DebugDir)
	}
	fmt.Println()
}

// writeOverlay re-encodes the PNG overlay in format f next to the input
// image and returns the written path.
func writeOverlay(input string, overlay []byte, f imageio.Format) (string, error) {
	img, err := imageio.DecodeBytes(overlay)
	if err != nil {
		return "", err
	}
	data, err := imageio.Encode(img, f, 90)
	if err != nil {
		return "", err
	}
	out := strings.TrimSuffix(input, filepath.Ext(input)) + ".overlay." + string(f)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write overlay: %w", err)
	}
	return out, nil
}
