package pattern

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"pattern-reader/internal/diag"
	"pattern-reader/internal/fiducial"
	"pattern-reader/internal/grid"
	"pattern-reader/internal/imageio"
	"pattern-reader/internal/region"
	"pattern-reader/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

const cardSize = 500

var ink = color.RGBA{R: 15, G: 15, B: 15, A: 255}

// Marker positions on a 500px card; each marker is 40px square and sits
// well inside its 90px corner window.
var markerAt = map[fiducial.Corner]image.Point{
	fiducial.TopLeft:     {20, 20},
	fiducial.TopRight:    {440, 20},
	fiducial.BottomLeft:  {20, 440},
	fiducial.BottomRight: {440, 440},
}

// Lattices the decoder derives from those markers.
var (
	fourCornerLattice = grid.Geometry{OriginX: 60, OriginY: 60, CellSize: 54}
	anchorLattice     = grid.Geometry{OriginX: 64, OriginY: 64, CellSize: 52}
)

// cardID is "CARD42" laid over the data cells; all corner cells are empty.
var cardID = func() grid.BoolGrid {
	bits := "1000011" + "1000001" + "1010010" + "1000100" + "0110100" + "0110010" + "000"
	var g grid.BoolGrid
	k := 0
	for r := 0; r < grid.Size; r++ {
		for c := 0; c < grid.Size; c++ {
			if (r == 0 || r == grid.Size-1) && (c == 0 || c == grid.Size-1) {
				continue
			}
			g[r][c] = bits[k] == '1'
			k++
		}
	}
	return g
}()

// drawCard renders a white card with the given markers and filled cells.
func drawCard(corners []fiducial.Corner, geo grid.Geometry, g grid.BoolGrid) gocv.Mat {
	return drawCardOn(gocv.NewScalar(250, 250, 250, 0), corners, geo, g)
}

// drawCardOn is drawCard on card stock of the given color.
func drawCardOn(stock gocv.Scalar, corners []fiducial.Corner, geo grid.Geometry, g grid.BoolGrid) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(stock, cardSize, cardSize, gocv.MatTypeCV8UC3)
	for _, c := range corners {
		p := markerAt[c]
		gocv.Rectangle(&img, image.Rect(p.X, p.Y, p.X+40, p.Y+40), ink, -1)
	}
	inset := geo.CellSize / 12
	for r := 0; r < grid.Size; r++ {
		for c := 0; c < grid.Size; c++ {
			if !g[r][c] {
				continue
			}
			cell := geo.Cell(r, c)
			gocv.Rectangle(&img, image.Rect(cell.X+inset, cell.Y+inset, cell.Right()-inset, cell.Bottom()-inset), ink, -1)
		}
	}
	return img
}

// photograph maps card onto the quadrilateral at (TL, TR, BR, BL) inside a
// white frame x frame scene. The card is warped inverted so the uncovered
// scene comes out white rather than black.
func photograph(card gocv.Mat, frame int, at [4]image.Point) gocv.Mat {
	inv := gocv.NewMat()
	defer inv.Close()
	gocv.BitwiseNot(card, &inv)

	w, h := card.Cols()-1, card.Rows()-1
	src := gocv.NewPointVectorFromPoints([]image.Point{{0, 0}, {w, 0}, {w, h}, {0, h}})
	defer src.Close()
	dst := gocv.NewPointVectorFromPoints(at[:])
	defer dst.Close()
	m := gocv.GetPerspectiveTransform(src, dst)
	defer m.Close()

	scene := gocv.NewMat()
	gocv.WarpPerspective(inv, &scene, m, image.Pt(frame, frame))
	gocv.BitwiseNot(scene, &scene)
	return scene
}

// assertLattice allows a pixel of slack for marker edges softened by the blur.
func assertLattice(t *testing.T, want, got grid.Geometry) {
	t.Helper()
	assert.InDelta(t, want.OriginX, got.OriginX, 1)
	assert.InDelta(t, want.OriginY, got.OriginY, 1)
	assert.InDelta(t, want.CellSize, got.CellSize, 1)
}

func decoder(opts ...Option) *Decoder {
	return NewDecoder(DefaultParams().WithoutRegion(), opts...)
}

func TestConfidence(t *testing.T) {
	b := geometry.NewBoundingBox(0, 0, 10, 10)
	set := func(cs ...fiducial.Corner) fiducial.Set {
		var s fiducial.Set
		for _, c := range cs {
			s.Put(c, b)
		}
		return s
	}
	tests := []struct {
		name string
		set  fiducial.Set
		want float64
	}{
		{"all four", set(fiducial.Corners[:]...), 1.0},
		{"three with anchor", set(fiducial.TopLeft, fiducial.TopRight, fiducial.BottomRight), 0.7},
		{"two with anchor", set(fiducial.TopLeft, fiducial.BottomLeft), 0.7},
		{"anchor only", set(fiducial.TopLeft), 0.5},
		{"three without anchor", set(fiducial.TopRight, fiducial.BottomLeft, fiducial.BottomRight), 0.0},
		{"none", set(), 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Confidence(tt.set))
		})
	}
}

func TestDecodeAllFourMarkers(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()

	res, err := decoder().DecodeMat(context.Background(), card)
	require.NoError(t, err)

	assert.Equal(t, 4, res.CornersFound)
	assert.Equal(t, 1.0, res.Confidence)
	require.NotNil(t, res.Geometry)
	assertLattice(t, fourCornerLattice, *res.Geometry)
	if diff := cmp.Diff(cardID, res.Grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "CARD42", res.ID)
	assert.GreaterOrEqual(t, res.Threshold, 0.10)
	assert.LessOrEqual(t, res.Threshold, 0.50)
	assert.Nil(t, res.DebugImage)
}

func TestDecodeAnchorOnly(t *testing.T) {
	card := drawCard([]fiducial.Corner{fiducial.TopLeft}, anchorLattice, cardID)
	defer card.Close()

	res, err := decoder().DecodeMat(context.Background(), card)
	require.NoError(t, err)

	assert.Equal(t, 1, res.CornersFound)
	assert.Equal(t, 0.5, res.Confidence)
	require.NotNil(t, res.Geometry)
	assertLattice(t, anchorLattice, *res.Geometry)
	assert.Equal(t, "CARD42", res.ID)
}

func TestDecodeTwoMarkers(t *testing.T) {
	card := drawCard([]fiducial.Corner{fiducial.TopLeft, fiducial.TopRight}, anchorLattice, cardID)
	defer card.Close()

	res, err := decoder().DecodeMat(context.Background(), card)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CornersFound)
	assert.Equal(t, 0.7, res.Confidence)
	assert.Equal(t, "CARD42", res.ID)
}

func TestDecodeWithoutAnchor(t *testing.T) {
	corners := []fiducial.Corner{fiducial.TopRight, fiducial.BottomLeft, fiducial.BottomRight}
	card := drawCard(corners, fourCornerLattice, cardID)
	defer card.Close()

	res, err := decoder().WithDebugImage().DecodeMat(context.Background(), card)
	require.NoError(t, err)

	assert.Equal(t, 3, res.CornersFound)
	assert.Less(t, res.CornersFound, 4)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, grid.BoolGrid{}, res.Grid)
	assert.Zero(t, res.Grid.Filled())
	assert.Empty(t, res.ID)
	assert.Nil(t, res.Geometry)
	assert.NotEmpty(t, res.DebugImage)
}

func TestDecodeBlankRaster(t *testing.T) {
	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 200, 200, gocv.MatTypeCV8UC3)
	defer blank.Close()

	res, err := decoder().DecodeMat(context.Background(), blank)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, grid.BoolGrid{}, res.Grid)
}

func TestDecodeImage(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()
	img, err := imageio.ToImage(card)
	require.NoError(t, err)

	res, err := decoder().Decode(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "CARD42", res.ID)
}

func TestDecodeSavesStages(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()

	rec := &diag.Recorder{}
	_, err := decoder(WithSink(rec)).DecodeMat(context.Background(), card)
	require.NoError(t, err)
	assert.Equal(t, []string{"0_original", "1_binary", "2_fiducials", "3_binary_grid", "4_grid_result"}, rec.Names())
}

func TestDecodeWritesDebugDir(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()

	root := t.TempDir()
	res, err := decoder(WithDebugDir(root)).DecodeMat(context.Background(), card)
	require.NoError(t, err)
	assert.NotEmpty(t, res.DebugDir)
	assert.FileExists(t, filepath.Join(res.DebugDir, "4_grid_result.png"))
}

func TestDecodeDebugImage(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()

	res, err := decoder().WithDebugImage().DecodeMat(context.Background(), card)
	require.NoError(t, err)
	require.NotEmpty(t, res.DebugImage)

	img, err := imageio.DecodeBytes(res.DebugImage)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, cardSize, cardSize), img.Bounds())
}

func TestDecodeIsConcurrencySafe(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()
	d := decoder()

	ids := make(chan string, 4)
	for i := 0; i < cap(ids); i++ {
		go func() {
			res, err := d.DecodeMat(context.Background(), card)
			if err != nil {
				ids <- err.Error()
				return
			}
			ids <- res.ID
		}()
	}
	for i := 0; i < cap(ids); i++ {
		assert.Equal(t, "CARD42", <-ids)
	}
}

func TestDecodeCancelled(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := decoder().DecodeMat(ctx, card)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeEmpty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := decoder().DecodeMat(context.Background(), empty)
	assert.Error(t, err)
}

func TestDecodeSkewedPhoto(t *testing.T) {
	// Gray stock against a white table, so the whole card is one dark blob.
	card := drawCardOn(gocv.NewScalar(130, 130, 130, 0), fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()
	scene := photograph(card, 800, [4]image.Point{{150, 120}, {640, 160}, {610, 650}, {130, 620}})
	defer scene.Close()

	res, err := NewDecoder(DefaultParams()).DecodeMat(context.Background(), scene)
	require.NoError(t, err)

	assert.Contains(t, []string{region.MethodThreshold, region.MethodEdges}, res.Region)
	assert.Equal(t, 4, res.CornersFound)
	assert.Equal(t, 1.0, res.Confidence)
	require.NotNil(t, res.Geometry)
	if diff := cmp.Diff(cardID, res.Grid); diff != "" {
		t.Errorf("grid mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "CARD42", res.ID)
}

func TestDecodeFullFrameKeepsMarkers(t *testing.T) {
	card := drawCard(fiducial.Corners[:], fourCornerLattice, cardID)
	defer card.Close()

	res, err := NewDecoder(DefaultParams()).DecodeMat(context.Background(), card)
	require.NoError(t, err)

	assert.Equal(t, region.MethodNone, res.Region)
	assert.Equal(t, 4, res.CornersFound)
	require.NotNil(t, res.Geometry)
	assertLattice(t, fourCornerLattice, *res.Geometry)
	assert.Equal(t, "CARD42", res.ID)
}
