// Package software provides the CPU reference device.
//
// Programs run as gpucore.FragmentFunc values, once per output pixel, with
// the same clamp-to-edge nearest sampling the GPU programs use. Large
// targets are split into row bands processed in parallel, the way a GPU
// dispatches workgroups; results do not depend on the band layout because
// every pixel only reads the input texture.
//
// The device registers itself as backend "software" on import.
package software

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"regexp"
	"runtime"

	"github.com/gogpu/imgproc/backend"
	"github.com/gogpu/imgproc/gpucore"
	"github.com/gogpu/imgproc/internal/parallel"
)

// parallelThreshold is the pixel count below which draws run on the
// calling goroutine.
const parallelThreshold = 64 * 64

// placeholderRe matches a specialization placeholder such as %kernelSize%.
// WGSL's modulo operator is always followed by a space or a digit, so it
// never matches.
var placeholderRe = regexp.MustCompile(`%[A-Za-z_][A-Za-z0-9_]*%`)

func init() {
	backend.Register(backend.BackendSoftware, func() (gpucore.Device, error) {
		return New(), nil
	})
}

type texture struct {
	width, height int
	format        gpucore.TextureFormat
	pix           []float32
}

type program struct {
	label string
	frag  gpucore.FragmentFunc
}

// Device is a CPU implementation of gpucore.Device.
type Device struct {
	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID
	programs     map[gpucore.ProgramID]*program
	nextID       uint64

	program     gpucore.ProgramID
	texture     gpucore.TextureID
	framebuffer gpucore.FramebufferID

	viewW, viewH int
	screen       gpucore.TextureID

	floatTextures bool
	workers       int
	pool          *parallel.Pool
	draws         uint64
	closed        bool
	logger        *slog.Logger
}

var _ gpucore.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets the number of goroutines used per draw.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(d *Device) {
		d.workers = n
	}
}

// WithoutFloatTextures makes the device report no float support and reject
// TextureFormatRGBA32Float, emulating 8-bit only platforms.
func WithoutFloatTextures() Option {
	return func(d *Device) {
		d.floatTextures = false
	}
}

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{
		textures:      make(map[gpucore.TextureID]*texture),
		framebuffers:  make(map[gpucore.FramebufferID]gpucore.TextureID),
		programs:      make(map[gpucore.ProgramID]*program),
		floatTextures: true,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = runtime.GOMAXPROCS(0)
	}
	return d
}

// SetLogger sets the logger used for device diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger = l
}

// Name returns "software".
func (d *Device) Name() string { return backend.BackendSoftware }

// Caps reports the device capabilities.
func (d *Device) Caps() gpucore.Caps {
	return gpucore.Caps{FloatTextures: d.floatTextures}
}

// Draws returns the number of completed full-screen draws.
func (d *Device) Draws() uint64 { return d.draws }

// LiveTextures returns the number of allocated textures, including the
// presentation target.
func (d *Device) LiveTextures() int { return len(d.textures) }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// NewTexture allocates a zeroed texture.
func (d *Device) NewTexture(width, height int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if d.closed {
		return gpucore.InvalidID, gpucore.ErrDeviceClosed
	}
	if width <= 0 || height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("software: invalid texture size %dx%d", width, height)
	}
	if !format.Valid() || (format == gpucore.TextureFormatRGBA32Float && !d.floatTextures) {
		return gpucore.InvalidID, fmt.Errorf("%w: %s", gpucore.ErrUnsupportedFormat, format)
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{
		width:  width,
		height: height,
		format: format,
		pix:    make([]float32, width*height*4),
	}
	d.logger.Debug("software: texture allocated", "id", id, "width", width, "height", height, "format", format)
	return id, nil
}

// DestroyTexture releases a texture.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	delete(d.textures, id)
	if d.texture == id {
		d.texture = gpucore.InvalidID
	}
	if d.screen == id {
		d.screen = gpucore.InvalidID
	}
}

// NewFramebuffer creates a render target writing into tex.
func (d *Device) NewFramebuffer(tex gpucore.TextureID) (gpucore.FramebufferID, error) {
	if _, ok := d.textures[tex]; !ok {
		return gpucore.DefaultFramebuffer, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, tex)
	}
	id := gpucore.FramebufferID(d.newID())
	d.framebuffers[id] = tex
	return id, nil
}

// DestroyFramebuffer releases a framebuffer.
func (d *Device) DestroyFramebuffer(id gpucore.FramebufferID) {
	delete(d.framebuffers, id)
	if d.framebuffer == id {
		d.framebuffer = gpucore.DefaultFramebuffer
	}
}

// Upload converts 8-bit RGBA pixels into the texture.
func (d *Device) Upload(tex gpucore.TextureID, pix []uint8) error {
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, tex)
	}
	if len(pix) != len(t.pix) {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrSizeMismatch, len(pix), len(t.pix))
	}
	for i, b := range pix {
		t.pix[i] = float32(b) / 255
	}
	return nil
}

// CompileProgram checks that every placeholder of the source has been
// substituted and that the program has a CPU entry point.
func (d *Device) CompileProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if desc == nil {
		return gpucore.InvalidID, &gpucore.CompileError{Log: "nil program descriptor"}
	}
	if m := placeholderRe.FindString(desc.Source); m != "" {
		return gpucore.InvalidID, &gpucore.CompileError{
			Label: desc.Label,
			Log:   fmt.Sprintf("unresolved placeholder %s", m),
		}
	}
	if desc.Fragment == nil {
		return gpucore.InvalidID, &gpucore.LinkError{
			Label: desc.Label,
			Log:   "no fragment entry point",
		}
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = &program{label: desc.Label, frag: desc.Fragment}
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	delete(d.programs, id)
	if d.program == id {
		d.program = gpucore.InvalidID
	}
}

// BindProgram makes id the current program.
func (d *Device) BindProgram(id gpucore.ProgramID) { d.program = id }

// BindTexture makes id the sampled texture.
func (d *Device) BindTexture(id gpucore.TextureID) { d.texture = id }

// BindFramebuffer makes id the draw target.
func (d *Device) BindFramebuffer(id gpucore.FramebufferID) { d.framebuffer = id }

// Viewport sets the size of the presentation target.
func (d *Device) Viewport(width, height int) {
	d.viewW, d.viewH = width, height
}

// DefaultTexture returns the presentation target texture.
func (d *Device) DefaultTexture() gpucore.TextureID { return d.screen }

// DrawFullscreen runs the bound program over the bound framebuffer.
func (d *Device) DrawFullscreen(u *gpucore.Uniforms) error {
	if d.closed {
		return gpucore.ErrDeviceClosed
	}
	p, ok := d.programs[d.program]
	if !ok {
		return gpucore.ErrNoProgram
	}
	src, ok := d.textures[d.texture]
	if !ok {
		return fmt.Errorf("%w: sampled texture %d", gpucore.ErrUnknownResource, d.texture)
	}
	dstID, err := d.target(src)
	if err != nil {
		return err
	}
	if dstID == d.texture {
		return gpucore.ErrFeedbackLoop
	}
	dst := d.textures[dstID]

	if u == nil {
		u = &gpucore.Uniforms{}
	}
	s := &gpucore.Sampler{Width: src.width, Height: src.height, Pix: src.pix}
	d.run(p.frag, s, dst, u)
	d.draws++
	return nil
}

// target resolves the bound framebuffer to a texture, allocating the
// presentation target on demand.
func (d *Device) target(src *texture) (gpucore.TextureID, error) {
	if d.framebuffer != gpucore.DefaultFramebuffer {
		id, ok := d.framebuffers[d.framebuffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: framebuffer %d", gpucore.ErrUnknownResource, d.framebuffer)
		}
		if _, ok := d.textures[id]; !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: framebuffer %d texture %d", gpucore.ErrUnknownResource, d.framebuffer, id)
		}
		return id, nil
	}

	w, h := d.viewW, d.viewH
	if w <= 0 || h <= 0 {
		w, h = src.width, src.height
	}
	if t, ok := d.textures[d.screen]; ok && t.width == w && t.height == h {
		return d.screen, nil
	}
	d.DestroyTexture(d.screen)
	format := gpucore.TextureFormatRGBA8Unorm
	id, err := d.NewTexture(w, h, format)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.screen = id
	return id, nil
}

func (d *Device) run(frag gpucore.FragmentFunc, s *gpucore.Sampler, dst *texture, u *gpucore.Uniforms) {
	quantize := dst.format == gpucore.TextureFormatRGBA8Unorm
	rows := func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := y * dst.width * 4
			for x := 0; x < dst.width; x++ {
				v := frag(s, x, y, u)
				if quantize {
					v = quantize8(v)
				}
				copy(dst.pix[i:i+4], v[:])
				i += 4
			}
		}
	}

	if d.workers < 2 || dst.width*dst.height < parallelThreshold {
		rows(0, dst.height)
		return
	}

	if d.pool == nil {
		d.pool = parallel.NewPool(d.workers)
	}
	band := (dst.height + d.workers - 1) / d.workers
	tasks := make([]func(), 0, d.workers)
	for y0 := 0; y0 < dst.height; y0 += band {
		y1 := min(y0+band, dst.height)
		tasks = append(tasks, func() { rows(y0, y1) })
	}
	d.pool.Run(tasks)
}

func quantize8(v gpucore.Vec4) gpucore.Vec4 {
	for i, c := range v {
		c = min(max(c, 0), 1)
		v[i] = float32(math.Round(float64(c)*255)) / 255
	}
	return v
}

// ReadPixels copies a region of tex into dst. Draws complete before
// DrawFullscreen returns, so there is never pending work to wait for.
func (d *Device) ReadPixels(tex gpucore.TextureID, r image.Rectangle, dst []float32) error {
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, tex)
	}
	if r.Empty() || !r.In(image.Rect(0, 0, t.width, t.height)) {
		return fmt.Errorf("%w: region %v outside %dx%d", gpucore.ErrSizeMismatch, r, t.width, t.height)
	}
	n := r.Dx() * 4
	if len(dst) < n*r.Dy() {
		return fmt.Errorf("%w: destination holds %d values, need %d", gpucore.ErrSizeMismatch, len(dst), n*r.Dy())
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := (y*t.width + r.Min.X) * 4
		copy(dst[(y-r.Min.Y)*n:], t.pix[off:off+n])
	}
	return nil
}

// Close releases every resource. The device cannot be used afterwards.
func (d *Device) Close() {
	clear(d.textures)
	clear(d.framebuffers)
	clear(d.programs)
	d.program, d.texture, d.framebuffer, d.screen = gpucore.InvalidID, gpucore.InvalidID, gpucore.DefaultFramebuffer, gpucore.InvalidID
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	d.closed = true
}
