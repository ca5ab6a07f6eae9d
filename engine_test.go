package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/imgproc/backend"
	"github.com/gogpu/imgproc/backend/software"
	"github.com/gogpu/imgproc/gpucore"
)

func TestNewFormatSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, gpucore.TextureFormatRGBA32Float, e.Format())

	dev := software.New(software.WithoutFloatTextures())
	e8, err := New(WithDevice(dev))
	require.NoError(t, err)
	defer e8.Close()
	assert.Equal(t, gpucore.TextureFormatRGBA8Unorm, e8.Format())

	_, err = New(WithDevice(dev), WithFormat(gpucore.TextureFormatRGBA32Float))
	require.ErrorIs(t, err, ErrContextUnavailable)
	assert.ErrorIs(t, err, gpucore.ErrUnsupportedFormat)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(WithBackend("does-not-exist"))
	require.ErrorIs(t, err, ErrContextUnavailable)
	assert.ErrorIs(t, err, backend.ErrBackendNotAvailable)
}

func TestNewForeignCache(t *testing.T) {
	other := NewProgramCache(software.New())
	_, err := New(WithDevice(software.New()), WithProgramCache(other))
	assert.ErrorIs(t, err, ErrContextUnavailable)
}

func TestNewSoftwareBackend(t *testing.T) {
	e, err := New(WithBackend(backend.BackendSoftware))
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, backend.BackendSoftware, e.Device().Name())
}

func TestInitialize(t *testing.T) {
	e, dev := newTestEngine(t)

	for _, size := range [][2]int{{0, 4}, {4, 0}, {-1, -1}} {
		err := e.Initialize(size[0], size[1])
		assert.ErrorIs(t, err, ErrInvalidSize, "Initialize(%d, %d)", size[0], size[1])
	}

	require.NoError(t, e.Initialize(8, 6))
	w, h := e.Size()
	assert.Equal(t, [2]int{8, 6}, [2]int{w, h})
	assert.Equal(t, uint64(1), e.Generation())
	assert.Equal(t, 3, dev.newTextures)
	src, pp := e.Textures()
	assert.NotEqual(t, gpucore.TextureID(gpucore.InvalidID), src)
	assert.NotEqual(t, pp[0], pp[1])

	// Same size: nothing is reallocated.
	require.NoError(t, e.Initialize(8, 6))
	assert.Equal(t, uint64(1), e.Generation())
	assert.Equal(t, 3, dev.newTextures)
	src2, pp2 := e.Textures()
	assert.Equal(t, src, src2)
	assert.Equal(t, pp, pp2)

	// New size: reallocated, counter reset, old textures released.
	require.NoError(t, e.Initialize(4, 4))
	assert.Equal(t, uint64(2), e.Generation())
	assert.Equal(t, 6, dev.newTextures)
	assert.Equal(t, 3, dev.LiveTextures())
	assert.False(t, e.Loaded())
}

func TestLoadSameSizeKeepsBuffers(t *testing.T) {
	e, dev := newTestEngine(t)
	require.NoError(t, e.Load(gradientImage(5, 5)))
	require.NoError(t, e.Load(gradientImage(5, 5)))
	assert.Equal(t, uint64(1), e.Generation())
	assert.Equal(t, 3, dev.newTextures)
	assert.True(t, e.Loaded())
}

func TestExecuteBeforeLoad(t *testing.T) {
	e, _ := newTestEngine(t)
	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)

	assert.ErrorIs(t, e.Execute(p), ErrNotLoaded)
	_, err = e.ReadPixels(image.Rectangle{})
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, e.Draw(nil), ErrNotLoaded)

	// Allocated but never loaded.
	require.NoError(t, e.Initialize(4, 4))
	assert.ErrorIs(t, e.Execute(p), ErrNotLoaded)
}

func TestExecuteInvalidProgram(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(gradientImage(4, 4)))
	assert.ErrorIs(t, e.Execute(nil), ErrNilProgram)

	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	e.Cache().Delete(offsetKey)
	assert.ErrorIs(t, e.Execute(p), ErrProgramReleased)
	assert.Equal(t, 0, e.Count())
}

func TestExecutePingPong(t *testing.T) {
	e, dev := newTestEngine(t)
	require.NoError(t, e.Load(gradientImage(4, 3)))
	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)

	src, pp := e.Textures()
	assert.Equal(t, src, e.ActiveTexture())

	for n := 1; n <= 5; n++ {
		require.NoError(t, e.Execute(p))
		assert.Equal(t, n, e.Count())
		assert.Equal(t, n%2, e.ActiveIndex())
		assert.Equal(t, pp[n%2], e.ActiveTexture())
	}

	require.Len(t, dev.passes, 5)
	assert.Equal(t, src, dev.passes[0].in, "first pass reads the source")
	for i, ps := range dev.passes {
		assert.NotEqual(t, ps.in, ps.out, "pass %d reads its own output", i)
		assert.NotEqual(t, src, ps.out, "pass %d writes the source", i)
		if i > 0 {
			assert.Equal(t, dev.passes[i-1].out, ps.in, "pass %d does not read the previous result", i)
		}
	}
}

func TestExecuteAccumulates(t *testing.T) {
	e, _ := newTestEngine(t)
	in := uniformImage(3, 3, color.NRGBA{R: 51, G: 102, B: 0, A: 255})
	require.NoError(t, e.Load(in))

	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	p.SetParam(0, 0.1)
	for range 3 {
		require.NoError(t, e.Execute(p))
	}

	f, err := e.ReadFloat(image.Rectangle{})
	require.NoError(t, err)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			v := f.At(x, y)
			assert.InDelta(t, 0.2+0.3, v[0], 1e-5)
			assert.InDelta(t, 0.4+0.3, v[1], 1e-5)
			assert.InDelta(t, 0.3, v[2], 1e-5)
			assert.InDelta(t, 1, v[3], 1e-5)
		}
	}
}

func TestExecuteQuantizesRGBA8(t *testing.T) {
	e, _ := newTestEngine(t, WithFormat(gpucore.TextureFormatRGBA8Unorm))
	require.NoError(t, e.Load(uniformImage(2, 2, color.NRGBA{A: 255})))

	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	p.SetParam(0, 0.5/255)
	require.NoError(t, e.Execute(p))

	f, err := e.ReadFloat(image.Rectangle{})
	require.NoError(t, err)
	v := f.At(0, 0)[0] * 255
	assert.InDelta(t, float32(int(v+0.5)), v, 1e-4, "RGBA8 target holds a non-quantized value")
}

func TestDrawResetsChain(t *testing.T) {
	e, dev := newTestEngine(t)
	require.NoError(t, e.Load(uniformImage(4, 4, color.NRGBA{R: 10, A: 255})))
	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	p.SetParam(0, 0.2)

	require.NoError(t, e.Execute(p))
	require.NoError(t, e.Execute(p))
	want, err := e.ReadPixels(image.Rectangle{})
	require.NoError(t, err)

	require.NoError(t, e.Draw(nil))
	assert.Equal(t, 0, e.Count())
	assert.Equal(t, dev.DefaultTexture(), e.ActiveTexture())

	got, err := e.ReadPixels(image.Rectangle{})
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data(), "presented pixels differ from the chain result")

	// The next pass starts again from the source.
	src, _ := e.Textures()
	require.NoError(t, e.Execute(p))
	assert.Equal(t, src, dev.passes[len(dev.passes)-1].in)
	f, err := e.ReadFloat(image.Rectangle{})
	require.NoError(t, err)
	assert.InDelta(t, 10.0/255+0.2, f.At(0, 0)[0], 1e-5)
}

func TestDrawOntoImage(t *testing.T) {
	e, _ := newTestEngine(t)
	in := gradientImage(8, 8)
	require.NoError(t, e.Load(in))

	same := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	require.NoError(t, e.Draw(same))
	assert.Equal(t, in.Pix, same.Pix)

	scaled := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, e.Draw(scaled))
	c := scaled.RGBAAt(3, 3)
	assert.Greater(t, c.R, uint8(128))
	assert.Greater(t, c.G, uint8(128))
	assert.Equal(t, uint8(255), c.A)
}

func TestReadPixelsRegion(t *testing.T) {
	e, _ := newTestEngine(t)
	in := gradientImage(6, 4)
	require.NoError(t, e.Load(in))

	r, err := e.ReadPixels(image.Rect(2, 1, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, in.NRGBAAt(2, 1), r.NRGBAAt(0, 0))
	assert.Equal(t, in.NRGBAAt(4, 2), r.NRGBAAt(2, 1))

	// Clipped to the raster.
	r, err = e.ReadPixels(image.Rect(4, 2, 100, 100))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), r.Bounds())

	_, err = e.ReadPixels(image.Rect(10, 10, 20, 20))
	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestLoadResetsCounter(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(gradientImage(4, 4)))
	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	require.NoError(t, e.Execute(p))
	require.NoError(t, e.Load(gradientImage(4, 4)))
	assert.Equal(t, 0, e.Count())
}

func TestEngineBusy(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(gradientImage(2, 2)))
	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)

	e.busy.Store(true)
	assert.ErrorIs(t, e.Execute(p), ErrBusy)
	_, err = e.ReadPixels(image.Rectangle{})
	assert.ErrorIs(t, err, ErrBusy)
	e.busy.Store(false)
	assert.NoError(t, e.Execute(p))
}

func TestEngineClose(t *testing.T) {
	e, err := New(WithBackend(backend.BackendSoftware))
	require.NoError(t, err)
	dev := e.Device().(*software.Device)
	require.NoError(t, e.Load(gradientImage(2, 2)))
	p, err := e.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)

	e.Close()
	e.Close()
	assert.ErrorIs(t, e.Execute(p), ErrClosed)
	assert.ErrorIs(t, e.Load(gradientImage(2, 2)), ErrClosed)
	_, err = e.Program(offsetKey, offsetTemplate)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, dev.LiveTextures())
}

func TestEngineCloseKeepsSharedDevice(t *testing.T) {
	dev := software.New()
	cache := NewProgramCache(dev)
	a, err := New(WithDevice(dev), WithProgramCache(cache))
	require.NoError(t, err)
	b, err := New(WithDevice(dev), WithProgramCache(cache))
	require.NoError(t, err)
	defer b.Close()

	pa, err := a.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	a.Close()

	pb, err := b.Program(offsetKey, offsetTemplate)
	require.NoError(t, err)
	assert.Same(t, pa, pb)
	require.NoError(t, b.Load(gradientImage(2, 2)))
	assert.NoError(t, b.Execute(pb))
}
