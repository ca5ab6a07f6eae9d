//go:build !nogpu

package native

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // Vulkan HAL backend registration

	"github.com/gogpu/imgproc/backend"
	"github.com/gogpu/imgproc/gpucore"
)

// defaultTimeout bounds every fence wait.
const defaultTimeout = 5 * time.Second

// maxPending is the number of recorded draws after which the encoder is
// submitted even without a readback, to bound per-draw allocations.
const maxPending = 256

// ErrNoAdapter is returned when the HAL backend exposes no adapter.
var ErrNoAdapter = errors.New("native: no GPU adapter found")

func init() {
	backend.Register(backend.BackendNative, func() (gpucore.Device, error) {
		d, err := New()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}

type texture struct {
	width, height int
	format        gpucore.TextureFormat
	buf           hal.Buffer
	size          uint64
}

type program struct {
	label    string
	module   hal.ShaderModule
	pipeline hal.ComputePipeline
}

// drawResources are the per-draw objects kept alive until the encoder
// they were recorded into has executed.
type drawResources struct {
	params, target hal.Buffer
	group          hal.BindGroup
}

// Device implements gpucore.Device on the wgpu HAL. Each draw is a compute
// dispatch recorded into an open command encoder; the encoder is submitted
// and awaited by ReadPixels, Upload and Close.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool
	adapter  string

	layout         hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout

	textures     map[gpucore.TextureID]*texture
	framebuffers map[gpucore.FramebufferID]gpucore.TextureID
	programs     map[gpucore.ProgramID]*program
	nextID       uint64

	program     gpucore.ProgramID
	texture     gpucore.TextureID
	framebuffer gpucore.FramebufferID

	viewW, viewH int
	screen       gpucore.TextureID

	encoder hal.CommandEncoder
	pending []drawResources
	draws   uint64

	halBackend gputypes.Backend
	provider   gpucontext.DeviceProvider
	timeout    time.Duration
	maxSize    int
	closed     bool
	logger     *slog.Logger
}

var _ gpucore.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithDeviceProvider makes the device share the HAL device and queue of an
// existing GPU context instead of opening its own. The provider must expose
// HalDevice() and HalQueue(). A shared device is not destroyed by Close.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(d *Device) {
		d.provider = p
	}
}

// WithHALBackend selects the HAL backend used to open a device.
// The default is Vulkan.
func WithHALBackend(b gputypes.Backend) Option {
	return func(d *Device) {
		d.halBackend = b
	}
}

// WithTimeout bounds how long ReadPixels waits for the GPU.
func WithTimeout(t time.Duration) Option {
	return func(d *Device) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithLogger sets the logger used for device diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) {
		d.SetLogger(l)
	}
}

// New opens a GPU device. It fails with ErrNoAdapter or a HAL error when no
// usable GPU is present; callers normally fall back to the software device.
func New(opts ...Option) (*Device, error) {
	d := &Device{
		textures:     make(map[gpucore.TextureID]*texture),
		framebuffers: make(map[gpucore.FramebufferID]gpucore.TextureID),
		programs:     make(map[gpucore.ProgramID]*program),
		halBackend:   gputypes.BackendVulkan,
		timeout:      defaultTimeout,
		maxSize:      int(gputypes.DefaultLimits().MaxTextureDimension2D),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.provider != nil {
		err = d.share(d.provider)
	} else {
		err = d.open()
	}
	if err != nil {
		d.release()
		return nil, err
	}
	if err := d.createLayouts(); err != nil {
		d.release()
		return nil, err
	}
	d.logger.Info("native: device ready", "adapter", d.adapter, "shared", d.external)
	return d, nil
}

// open creates an instance and opens the first discrete or integrated
// adapter, falling back to whatever adapter comes first.
func (d *Device) open() error {
	hb, ok := hal.GetBackend(d.halBackend)
	if !ok {
		return fmt.Errorf("native: HAL backend %v not available", d.halBackend)
	}
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("native: create instance: %w", err)
	}
	d.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	opened, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("native: open device: %w", err)
	}
	d.device = opened.Device
	d.queue = opened.Queue
	d.adapter = selected.Info.Name
	return nil
}

// share adopts the HAL device and queue of a provider.
func (d *Device) share(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("native: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("native: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("native: provider HalQueue is not hal.Queue")
	}
	d.device = device
	d.queue = queue
	d.external = true
	d.adapter = "shared"
	return nil
}

// createLayouts builds the bind group and pipeline layouts shared by all
// programs: Params, Target, source texels, destination texels.
func (d *Device) createLayouts() error {
	layout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "imgproc_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout: %w", err)
	}
	d.layout = layout

	pl, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "imgproc_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout: %w", err)
	}
	d.pipelineLayout = pl
	return nil
}

// SetLogger sets the logger used for device diagnostics.
func (d *Device) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	d.logger = l
}

// Name returns "native".
func (d *Device) Name() string { return backend.BackendNative }

// Adapter returns the name of the GPU adapter in use.
func (d *Device) Adapter() string { return d.adapter }

// Caps reports the device capabilities. Texels are always stored as
// 32-bit floats.
func (d *Device) Caps() gpucore.Caps {
	return gpucore.Caps{FloatTextures: true, MaxTextureSize: d.maxSize}
}

// Draws returns the number of recorded full-screen draws.
func (d *Device) Draws() uint64 { return d.draws }

func (d *Device) newID() uint64 {
	d.nextID++
	return d.nextID
}

// NewTexture allocates a zeroed texel buffer.
func (d *Device) NewTexture(width, height int, format gpucore.TextureFormat) (gpucore.TextureID, error) {
	if d.closed {
		return gpucore.InvalidID, gpucore.ErrDeviceClosed
	}
	if width <= 0 || height <= 0 || width > d.maxSize || height > d.maxSize {
		return gpucore.InvalidID, fmt.Errorf("native: invalid texture size %dx%d", width, height)
	}
	if !format.Valid() {
		return gpucore.InvalidID, fmt.Errorf("%w: %s", gpucore.ErrUnsupportedFormat, format)
	}
	size := uint64(width) * uint64(height) * 16 //nolint:gosec // bounded by maxSize
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imgproc_texture",
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture buffer: %w", err)
	}
	d.queue.WriteBuffer(buf, 0, make([]byte, size))

	id := gpucore.TextureID(d.newID())
	d.textures[id] = &texture{width: width, height: height, format: format, buf: buf, size: size}
	d.logger.Debug("native: texture allocated", "id", id, "width", width, "height", height, "format", format)
	return id, nil
}

// DestroyTexture releases a texture once queued work no longer uses it.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	if err := d.flush(); err != nil {
		d.logger.Warn("native: flush before destroy failed", "texture", id, "err", err)
	}
	d.device.DestroyBuffer(t.buf)
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

// Upload writes 8-bit RGBA pixels into the texture as floats. Recorded
// draws are executed first so they observe the previous contents.
func (d *Device) Upload(tex gpucore.TextureID, pix []uint8) error {
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, tex)
	}
	if len(pix) != t.width*t.height*4 {
		return fmt.Errorf("%w: got %d bytes, want %d", gpucore.ErrSizeMismatch, len(pix), t.width*t.height*4)
	}
	if err := d.flush(); err != nil {
		return err
	}
	data := make([]byte, 0, t.size)
	for _, v := range pix {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(float32(v)/255))
	}
	d.queue.WriteBuffer(t.buf, 0, data)
	return nil
}

// CompileProgram validates the program with naga and builds its compute
// pipeline.
func (d *Device) CompileProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if desc == nil {
		return gpucore.InvalidID, &gpucore.CompileError{Log: "nil program descriptor"}
	}
	if d.closed {
		return gpucore.InvalidID, gpucore.ErrDeviceClosed
	}
	spirv, err := compileSPIRV(desc.Label, desc.Source)
	if err != nil {
		return gpucore.InvalidID, err
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, &gpucore.CompileError{Label: desc.Label, Log: err.Error(), Err: err}
	}
	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  d.pipelineLayout,
		Compute: hal.ComputeState{Module: module, EntryPoint: entryPoint},
	})
	if err != nil {
		d.device.DestroyShaderModule(module)
		return gpucore.InvalidID, &gpucore.LinkError{Label: desc.Label, Log: err.Error(), Err: err}
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = &program{label: desc.Label, module: module, pipeline: pipeline}
	d.logger.Debug("native: program compiled", "id", id, "label", desc.Label, "spirv_words", len(spirv))
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	if err := d.flush(); err != nil {
		d.logger.Warn("native: flush before destroy failed", "program", id, "err", err)
	}
	d.device.DestroyComputePipeline(p.pipeline)
	d.device.DestroyShaderModule(p.module)
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

// DrawFullscreen records one compute dispatch of the bound program. It
// does not wait for the GPU.
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

	res, err := d.bind(u, src, dst)
	if err != nil {
		return err
	}
	if err := d.begin(); err != nil {
		d.releaseDraw(res)
		return err
	}
	d.pending = append(d.pending, res)

	pass := d.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.label})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, res.group, nil)
	pass.Dispatch(groups(dst.width), groups(dst.height), 1)
	pass.End()
	d.draws++

	if len(d.pending) >= maxPending {
		return d.flush()
	}
	return nil
}

// bind uploads the uniforms of one draw and creates its bind group.
func (d *Device) bind(u *gpucore.Uniforms, src, dst *texture) (drawResources, error) {
	var res drawResources
	params, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imgproc_params",
		Size:  gpucore.UniformsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return res, fmt.Errorf("native: create params buffer: %w", err)
	}
	res.params = params
	d.queue.WriteBuffer(params, 0, u.AppendBytes(make([]byte, 0, gpucore.UniformsSize)))

	target, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imgproc_target",
		Size:  targetSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		d.releaseDraw(res)
		return drawResources{}, fmt.Errorf("native: create target buffer: %w", err)
	}
	res.target = target
	quantize := dst.format == gpucore.TextureFormatRGBA8Unorm
	d.queue.WriteBuffer(target, 0, targetBytes(src.width, src.height, dst.width, dst.height, quantize))

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "imgproc_bind_group",
		Layout: d.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: params.NativeHandle(), Offset: 0, Size: gpucore.UniformsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: target.NativeHandle(), Offset: 0, Size: targetSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: src.buf.NativeHandle(), Offset: 0, Size: src.size}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: dst.buf.NativeHandle(), Offset: 0, Size: dst.size}},
		},
	})
	if err != nil {
		d.releaseDraw(res)
		return drawResources{}, fmt.Errorf("native: create bind group: %w", err)
	}
	res.group = group
	return res, nil
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
	id, err := d.NewTexture(w, h, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		return gpucore.InvalidID, err
	}
	d.screen = id
	return id, nil
}

// begin opens the command encoder if no recording is in progress.
func (d *Device) begin() error {
	if d.encoder != nil {
		return nil
	}
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "imgproc_encoder"})
	if err != nil {
		return fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("imgproc_passes"); err != nil {
		return fmt.Errorf("native: begin encoding: %w", err)
	}
	d.encoder = enc
	return nil
}

// flush submits the recorded passes and waits for them.
func (d *Device) flush() error {
	if d.encoder == nil {
		return nil
	}
	enc := d.encoder
	d.encoder = nil
	defer d.releasePending()
	return d.submit(enc)
}

// submit ends enc, submits it and waits on a fence.
func (d *Device) submit(enc hal.CommandEncoder) error {
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	began := time.Now()
	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, d.timeout)
	if err != nil || !ok {
		return fmt.Errorf("native: wait for GPU: ok=%v err=%w", ok, err)
	}
	d.logger.Debug("native: submitted", "passes", len(d.pending), "elapsed", time.Since(began))
	return nil
}

func (d *Device) releasePending() {
	for _, res := range d.pending {
		d.releaseDraw(res)
	}
	d.pending = d.pending[:0]
}

func (d *Device) releaseDraw(res drawResources) {
	if res.group != nil {
		d.device.DestroyBindGroup(res.group)
	}
	if res.target != nil {
		d.device.DestroyBuffer(res.target)
	}
	if res.params != nil {
		d.device.DestroyBuffer(res.params)
	}
}

// ReadPixels waits for every recorded draw, then copies a region of tex
// into dst.
func (d *Device) ReadPixels(tex gpucore.TextureID, r image.Rectangle, dst []float32) error {
	if d.closed {
		return gpucore.ErrDeviceClosed
	}
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

	rowBytes := uint64(n) * 4 //nolint:gosec // bounded by texture size
	size := rowBytes * uint64(r.Dy()) //nolint:gosec // bounded by texture size
	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "imgproc_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	if err := d.begin(); err != nil {
		return err
	}
	copies := make([]hal.BufferCopy, 0, r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copies = append(copies, hal.BufferCopy{
			SrcOffset: uint64((y*t.width + r.Min.X) * 16), //nolint:gosec // in range
			DstOffset: uint64(y-r.Min.Y) * rowBytes,       //nolint:gosec // in range
			Size:      rowBytes,
		})
	}
	d.encoder.CopyBufferToBuffer(t.buf, staging, copies)
	if err := d.flush(); err != nil {
		return err
	}

	data := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, data); err != nil {
		return fmt.Errorf("native: readback: %w", err)
	}
	for i := range n * r.Dy() {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return nil
}

// Close waits for queued work and releases every resource. A shared HAL
// device stays open.
func (d *Device) Close() {
	if d.closed {
		return
	}
	if err := d.flush(); err != nil {
		d.logger.Warn("native: flush on close failed", "err", err)
	}
	for _, p := range d.programs {
		d.device.DestroyComputePipeline(p.pipeline)
		d.device.DestroyShaderModule(p.module)
	}
	for _, t := range d.textures {
		d.device.DestroyBuffer(t.buf)
	}
	clear(d.programs)
	clear(d.textures)
	clear(d.framebuffers)
	d.program, d.texture, d.framebuffer, d.screen = gpucore.InvalidID, gpucore.InvalidID, gpucore.DefaultFramebuffer, gpucore.InvalidID
	d.release()
	d.closed = true
}

// release destroys the layouts and, unless shared, the HAL device and
// instance.
func (d *Device) release() {
	if d.device != nil {
		if d.pipelineLayout != nil {
			d.device.DestroyPipelineLayout(d.pipelineLayout)
			d.pipelineLayout = nil
		}
		if d.layout != nil {
			d.device.DestroyBindGroupLayout(d.layout)
			d.layout = nil
		}
		if !d.external {
			d.device.Destroy()
		}
		d.device = nil
		d.queue = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
