package imageio

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

// stripes runs fn over [0,rows) split into one band per CPU.
func stripes(rows int, fn func(y0, y1 int)) {
	workers := runtime.NumCPU()
	per := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for y0 := 0; y0 < rows; y0 += per {
		y1 := min(y0+per, rows)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(y0, y1)
		}()
	}
	wg.Wait()
}

// ToMat converts img to a BGR Mat. Alpha is ignored. The caller owns the
// returned Mat.
func ToMat(img image.Image) (gocv.Mat, error) {
	src, ok := img.(*image.NRGBA)
	if !ok {
		src = imaging.Clone(img)
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("empty image")
	}

	buf := make([]byte, w*h*3)
	stripes(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			off := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
			in := src.Pix[off : off+w*4]
			out := buf[y*w*3 : (y+1)*w*3]
			for x := 0; x < w; x++ {
				out[x*3+0] = in[x*4+2]
				out[x*3+1] = in[x*4+1]
				out[x*3+2] = in[x*4+0]
			}
		}
	})

	view, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to create mat: %w", err)
	}
	defer view.Close()
	return view.Clone(), nil
}

// ToImage converts a 1-, 3- or 4-channel 8-bit Mat (BGR order) to an
// opaque NRGBA image.
func ToImage(mat gocv.Mat) (*image.NRGBA, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	ch := mat.Channels()
	if ch != 1 && ch != 3 && ch != 4 {
		return nil, fmt.Errorf("unsupported channel count: %d", ch)
	}
	w, h := mat.Cols(), mat.Rows()
	data := mat.ToBytes()
	if len(data) != w*h*ch {
		return nil, fmt.Errorf("unsupported mat type: %v", mat.Type())
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	stripes(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			in := data[y*w*ch : (y+1)*w*ch]
			out := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for x := 0; x < w; x++ {
				p := in[x*ch : x*ch+ch]
				if ch == 1 {
					out[x*4+0], out[x*4+1], out[x*4+2] = p[0], p[0], p[0]
				} else {
					out[x*4+0], out[x*4+1], out[x*4+2] = p[2], p[1], p[0]
				}
				out[x*4+3] = 0xff
			}
		}
	})
	return img, nil
}
