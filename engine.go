package imgproc

import (
	"fmt"
	"image"
	"image/draw"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/imgproc/backend"
	"github.com/gogpu/imgproc/gpucore"

	// The software device is always available as a fallback.
	_ "github.com/gogpu/imgproc/backend/software"
)

// CopyTemplate is the pass-through program used by Draw.
var CopyTemplate = &ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    return texel(p);
}`,
	Fragment: func(Specialization) gpucore.FragmentFunc {
		return func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
			return s.Texel(x, y)
		}
	},
}

// Engine runs filter chains over one raster with ping-pong buffering.
//
// The engine owns a source texture holding the loaded raster and two
// ping-pong textures, each wrapped by a framebuffer. Every Execute reads
// the most recent result (the source texture on the first pass) and
// writes the other ping-pong texture, so no pass ever samples its own
// output. After N passes the result lives in ping-pong texture N % 2.
//
// Execute and Draw only issue work to the device. ReadPixels, ReadFloat
// and Draw with a surface are the synchronization points: they block
// until all issued work has completed.
//
// An Engine is used from one goroutine at a time; overlapping calls fail
// with ErrBusy instead of corrupting the ping-pong state.
type Engine struct {
	dev       gpucore.Device
	ownsDev   bool
	cache     *ProgramCache
	ownsCache bool
	format    gpucore.TextureFormat

	width, height int
	source        gpucore.TextureID
	textures      [2]gpucore.TextureID
	framebuffers  [2]gpucore.FramebufferID

	count      int
	generation uint64
	loaded     bool
	presented  bool
	closed     bool

	busy atomic.Bool
}

// New creates an engine on the configured device.
//
// Without WithDevice or WithBackend the best registered backend is
// opened. If no device can be acquired, New fails with an error wrapping
// ErrContextUnavailable.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{dev: o.device}
	if e.dev == nil {
		var err error
		if o.backend != "" {
			e.dev, err = backend.Open(o.backend)
		} else {
			e.dev, err = backend.OpenDefault()
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrContextUnavailable, err)
		}
		e.ownsDev = true
	}
	caps := e.dev.Caps()
	e.format = o.format
	if e.format == 0 {
		e.format = gpucore.TextureFormatRGBA8Unorm
		if caps.FloatTextures {
			e.format = gpucore.TextureFormatRGBA32Float
		}
	}
	if !e.format.Valid() || (e.format == gpucore.TextureFormatRGBA32Float && !caps.FloatTextures) {
		e.closeDevice()
		return nil, fmt.Errorf("%w: %w: %s", ErrContextUnavailable, gpucore.ErrUnsupportedFormat, e.format)
	}

	e.cache = o.cache
	if e.cache == nil {
		e.cache = NewProgramCache(e.dev)
		e.ownsCache = true
	} else if e.cache.Device() != e.dev {
		e.closeDevice()
		return nil, fmt.Errorf("%w: program cache belongs to another device", ErrContextUnavailable)
	}

	trackDevice(e.dev)
	Logger().Info("imgproc: engine created", "device", e.dev.Name(), "format", e.format)
	return e, nil
}

// Device returns the engine's device.
func (e *Engine) Device() gpucore.Device { return e.dev }

// Cache returns the engine's program cache.
func (e *Engine) Cache() *ProgramCache { return e.cache }

// Format returns the texture format of the pipeline buffers.
func (e *Engine) Format() gpucore.TextureFormat { return e.format }

// Size returns the allocated raster size, (0, 0) before the first Initialize.
func (e *Engine) Size() (width, height int) { return e.width, e.height }

// Loaded reports whether a raster has been loaded at the current size.
func (e *Engine) Loaded() bool { return e.loaded }

// Count returns the number of passes executed since the last Load or Draw.
func (e *Engine) Count() int { return e.count }

// ActiveIndex returns the index of the ping-pong texture holding the most
// recent result, Count() % 2. With Count() == 0 the source texture is the
// effective input of the next pass.
func (e *Engine) ActiveIndex() int { return e.count % 2 }

// Generation counts buffer (re)allocations. It changes only when
// Initialize actually reallocates.
func (e *Engine) Generation() uint64 { return e.generation }

// Textures returns the source texture and the two ping-pong textures.
func (e *Engine) Textures() (source gpucore.TextureID, pingpong [2]gpucore.TextureID) {
	return e.source, e.textures
}

// ActiveTexture returns the texture the next pass reads and ReadPixels
// reads back.
func (e *Engine) ActiveTexture() gpucore.TextureID {
	switch {
	case e.presented:
		return e.dev.DefaultTexture()
	case e.count == 0:
		return e.source
	default:
		return e.textures[e.count%2]
	}
}

// inputTexture is the texture a pass samples; the presentation target is
// never an input, a pass after Draw restarts from the source.
func (e *Engine) inputTexture() gpucore.TextureID {
	if e.count == 0 {
		return e.source
	}
	return e.textures[e.count%2]
}

func (e *Engine) enter() error {
	if e.closed {
		return ErrClosed
	}
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (e *Engine) leave() { e.busy.Store(false) }

// Initialize allocates the source texture and the two ping-pong
// texture/framebuffer pairs for a width x height raster and resets the
// pass counter. Calling it again with the current size does nothing.
func (e *Engine) Initialize(width, height int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	return e.initialize(width, height)
}

func (e *Engine) initialize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if width == e.width && height == e.height && e.source != gpucore.InvalidID {
		return nil
	}
	if limit := e.dev.Caps().MaxTextureSize; limit > 0 && (width > limit || height > limit) {
		return fmt.Errorf("%w: %dx%d exceeds device limit %d", ErrInvalidSize, width, height, limit)
	}

	e.releaseBuffers()

	var err error
	if e.source, err = e.dev.NewTexture(width, height, e.format); err != nil {
		return fmt.Errorf("imgproc: source texture: %w", err)
	}
	for i := range e.textures {
		if e.textures[i], err = e.dev.NewTexture(width, height, e.format); err != nil {
			e.releaseBuffers()
			return fmt.Errorf("imgproc: ping-pong texture %d: %w", i, err)
		}
		if e.framebuffers[i], err = e.dev.NewFramebuffer(e.textures[i]); err != nil {
			e.releaseBuffers()
			return fmt.Errorf("imgproc: framebuffer %d: %w", i, err)
		}
	}

	e.width, e.height = width, height
	e.count = 0
	e.generation++
	Logger().Debug("imgproc: buffers allocated", "width", width, "height", height,
		"format", e.format, "generation", e.generation)
	return nil
}

func (e *Engine) releaseBuffers() {
	for i := range e.textures {
		if e.framebuffers[i] != gpucore.DefaultFramebuffer {
			e.dev.DestroyFramebuffer(e.framebuffers[i])
			e.framebuffers[i] = gpucore.DefaultFramebuffer
		}
		if e.textures[i] != gpucore.InvalidID {
			e.dev.DestroyTexture(e.textures[i])
			e.textures[i] = gpucore.InvalidID
		}
	}
	if e.source != gpucore.InvalidID {
		e.dev.DestroyTexture(e.source)
		e.source = gpucore.InvalidID
	}
	e.width, e.height = 0, 0
	e.count = 0
	e.loaded = false
	e.presented = false
}

// Load uploads img into the source texture, reallocating the buffers if
// its size differs from the current one. Any pending chain is discarded:
// the next pass reads the new source.
func (e *Engine) Load(img image.Image) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidSize)
	}
	r := RasterFromImage(img)
	if err := e.initialize(r.Width(), r.Height()); err != nil {
		return err
	}
	if err := e.dev.Upload(e.source, r.Data()); err != nil {
		return fmt.Errorf("imgproc: upload: %w", err)
	}
	e.count = 0
	e.loaded = true
	e.presented = false
	return nil
}

// Program returns the program for key from the engine's cache, compiling
// tmpl on first use. See ProgramCache.GetOrCompile.
func (e *Engine) Program(key ProgramKey, tmpl *ProgramTemplate) (*Program, error) {
	if e.closed {
		return nil, ErrClosed
	}
	return e.cache.GetOrCompile(key, tmpl)
}

// Execute runs p once over the whole raster: it reads the active texture,
// writes the inactive ping-pong framebuffer and advances the pass counter.
func (e *Engine) Execute(p *Program) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	switch {
	case p == nil:
		return ErrNilProgram
	case p.released:
		return fmt.Errorf("%w: %s", ErrProgramReleased, p.key)
	case !e.loaded:
		return ErrNotLoaded
	}

	in := e.inputTexture()
	out := (e.count + 1) % 2
	p.uniforms.Size = [2]float32{float32(e.width), float32(e.height)}

	e.dev.BindFramebuffer(e.framebuffers[out])
	e.dev.BindTexture(in)
	e.dev.BindProgram(p.id)
	if err := e.dev.DrawFullscreen(&p.uniforms); err != nil {
		return fmt.Errorf("imgproc: execute %s: %w", p.key, err)
	}

	e.count++
	e.presented = false
	return nil
}

// Draw copies the current result to the device's presentation target and
// resets the pass counter, so the next chain starts again from the source.
//
// When dst is non-nil the presented pixels are also read back (a
// synchronization point) and copied onto dst, scaled bilinearly when the
// sizes differ.
func (e *Engine) Draw(dst draw.Image) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if !e.loaded {
		return ErrNotLoaded
	}
	p, err := e.cache.GetOrCompile(ProgramKey{Op: OpCopy}, CopyTemplate)
	if err != nil {
		return fmt.Errorf("imgproc: draw: %w", err)
	}
	p.uniforms.Size = [2]float32{float32(e.width), float32(e.height)}

	e.dev.Viewport(e.width, e.height)
	e.dev.BindFramebuffer(gpucore.DefaultFramebuffer)
	e.dev.BindTexture(e.inputTexture())
	e.dev.BindProgram(p.id)
	if err := e.dev.DrawFullscreen(&p.uniforms); err != nil {
		return fmt.Errorf("imgproc: draw: %w", err)
	}
	e.count = 0
	e.presented = true

	if dst == nil {
		return nil
	}
	f, err := e.read(image.Rectangle{})
	if err != nil {
		return fmt.Errorf("imgproc: draw: %w", err)
	}
	src := f.ToRaster()
	if dst.Bounds().Size() == src.Bounds().Size() {
		xdraw.Draw(dst, dst.Bounds(), src, image.Point{}, xdraw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}
	return nil
}

// ReadPixels reads back region r of the current result as 8-bit RGBA.
// The zero rectangle selects the whole raster; other rectangles are
// clipped to it.
//
// ReadPixels is a synchronization point: it blocks until every pass issued
// so far has completed on the device.
func (e *Engine) ReadPixels(r image.Rectangle) (*Raster, error) {
	f, err := e.ReadFloat(r)
	if err != nil {
		return nil, err
	}
	return f.ToRaster(), nil
}

// ReadFloat is like ReadPixels but returns unclamped float values.
// With an 8-bit pipeline the values are multiples of 1/255.
func (e *Engine) ReadFloat(r image.Rectangle) (*FloatRaster, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	return e.read(r)
}

func (e *Engine) read(r image.Rectangle) (*FloatRaster, error) {
	if !e.loaded {
		return nil, ErrNotLoaded
	}
	full := image.Rect(0, 0, e.width, e.height)
	if r == (image.Rectangle{}) {
		r = full
	}
	r = r.Intersect(full)
	if r.Empty() {
		return nil, ErrInvalidRegion
	}
	f := &FloatRaster{Width: r.Dx(), Height: r.Dy(), Pix: make([]float32, r.Dx()*r.Dy()*4)}
	if err := e.dev.ReadPixels(e.ActiveTexture(), r, f.Pix); err != nil {
		return nil, fmt.Errorf("imgproc: readback: %w", err)
	}
	return f, nil
}

// Close releases the buffers, the programs of an engine-owned cache and an
// engine-owned device.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.releaseBuffers()
	if e.ownsCache {
		e.cache.Purge()
	}
	untrackDevice(e.dev)
	e.closeDevice()
	e.closed = true
}

func (e *Engine) closeDevice() {
	if e.ownsDev {
		e.dev.Close()
	}
}
