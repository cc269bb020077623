package geometry

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestOrderQuad(t *testing.T) {
	tests := []struct {
		name string
		in   [4]PointInt
		want Quad
	}{
		{
			name: "already ordered",
			in:   [4]PointInt{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
			want: Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		},
		{
			name: "reversed",
			in:   [4]PointInt{{0, 10}, {10, 10}, {10, 0}, {0, 0}},
			want: Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		},
		{
			name: "skewed",
			in:   [4]PointInt{{310, 330}, {60, 300}, {80, 60}, {330, 90}},
			want: Quad{{80, 60}, {330, 90}, {310, 330}, {60, 300}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, OrderQuad(tt.in)); diff != "" {
				t.Errorf("OrderQuad mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRectifiedSize(t *testing.T) {
	q := Quad{{0, 0}, {100, 0}, {90, 50}, {0, 40}}
	w, h := q.RectifiedSize()
	assert.Equal(t, 100, w) // top 100 vs bottom 90
	assert.Equal(t, 50, h)  // left 40 vs right int(sqrt(100+2500)) = 50

	square := Quad{{100, 100}, {299, 100}, {299, 299}, {100, 299}}
	w, h = square.RectifiedSize()
	assert.Equal(t, 199, w)
	assert.Equal(t, 199, h)
	assert.InDelta(t, 199.0*199.0, square.Area(), 1e-9)
}

func TestBoundingBoxAspect(t *testing.T) {
	assert.InDelta(t, 1.0, NewBoundingBox(0, 0, 40, 40).AspectRatio(), 1e-12)
	assert.InDelta(t, 3.0, NewBoundingBox(0, 0, 10, 30).AspectRatio(), 1e-12)
	assert.Equal(t, DegenerateAspect, NewBoundingBox(0, 0, 0, 30).AspectRatio())
	assert.InDelta(t, 20.0, NewBoundingBox(0, 0, 10, 30).Size(), 1e-12)
}

func TestBoundingBoxCenterAndSquare(t *testing.T) {
	b := NewBoundingBox(10, 20, 41, 30)
	c := b.Center()
	assert.Equal(t, PointInt{X: 30, Y: 35}, c)

	sq := SquareAt(c, 41)
	assert.Equal(t, NewBoundingBox(10, 15, 41, 41), sq)
	assert.Equal(t, c, sq.Center())
}

func TestBoundingBoxClip(t *testing.T) {
	tests := []struct {
		name string
		in   BoundingBox
		want BoundingBox
	}{
		{"inside", NewBoundingBox(5, 5, 10, 10), NewBoundingBox(5, 5, 10, 10)},
		{"overhang", NewBoundingBox(-5, 90, 20, 20), NewBoundingBox(0, 90, 15, 10)},
		{"outside", NewBoundingBox(120, 120, 10, 10), NewBoundingBox(120, 120, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clip(100, 100)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, NewBoundingBox(120, 120, 10, 10).Clip(100, 100).Empty())
}

func TestRectangleRoundTrip(t *testing.T) {
	r := image.Rect(3, 4, 13, 24)
	b := FromRectangle(r)
	assert.Equal(t, 13, b.Right())
	assert.Equal(t, 24, b.Bottom())
	assert.Equal(t, r, b.Rectangle())
	assert.Equal(t, NewBoundingBox(5, 6, 10, 20), b.Offset(2, 2))
}
