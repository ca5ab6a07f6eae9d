package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/backend/software"
)

// newEngine returns an engine on a single-worker software device with
// float textures.
func newEngine(t *testing.T, opts ...software.Option) *imgproc.Engine {
	t.Helper()
	opts = append([]software.Option{software.WithWorkers(1)}, opts...)
	e, err := imgproc.New(imgproc.WithDevice(software.New(opts...)))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

// load returns an engine with img loaded.
func load(t *testing.T, img image.Image) *imgproc.Engine {
	t.Helper()
	e := newEngine(t)
	require.NoError(t, e.Load(img))
	return e
}

func uniform(w, h int, c color.NRGBA) *imgproc.Raster {
	r := imgproc.NewRaster(w, h)
	r.Clear(c)
	return r
}

func grey(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

// pattern returns an opaque image with varied colors.
func pattern(w, h int) *imgproc.Raster {
	r := imgproc.NewRaster(w, h)
	for y := range h {
		for x := range w {
			r.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x*37 + y*11) % 256),
				G: uint8((x*x + 3*y) * 7 % 256),
				B: uint8((y*y*5 + x) % 256),
				A: 255,
			})
		}
	}
	return r
}

func readFloat(t *testing.T, e *imgproc.Engine) *imgproc.FloatRaster {
	t.Helper()
	f, err := e.ReadFloat(image.Rectangle{})
	require.NoError(t, err)
	return f
}

// requireClose fails unless a and b have equal size and every value
// differs by at most delta.
func requireClose(t *testing.T, want, got *imgproc.FloatRaster, delta float32) {
	t.Helper()
	require.Equal(t, want.Width, got.Width)
	require.Equal(t, want.Height, got.Height)
	for i := range want.Pix {
		d := want.Pix[i] - got.Pix[i]
		if d < -delta || d > delta {
			px := i / 4
			t.Fatalf("pixel (%d,%d) channel %d = %v, want %v", px%want.Width, px/want.Width, i%4, got.Pix[i], want.Pix[i])
		}
	}
}
