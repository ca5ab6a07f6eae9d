package imgproc

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/imgproc/backend/software"
	"github.com/gogpu/imgproc/gpucore"
)

// offsetTemplate adds params.x to the color channels.
var offsetTemplate = &ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    return vec4<f32>(c.rgb + u.params.x, c.a);
}`,
	Fragment: func(Specialization) gpucore.FragmentFunc {
		return func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
			c := s.Texel(x, y)
			return gpucore.Vec4{c[0] + u.Params[0], c[1] + u.Params[0], c[2] + u.Params[0], c[3]}
		}
	},
}

// sizedTemplate requires a kernel size specialization.
var sizedTemplate = &ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let k = %kernelSize%;
    return texel(p);
}`,
	Fragment: func(Specialization) gpucore.FragmentFunc {
		return func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
			return s.Texel(x, y)
		}
	},
}

var offsetKey = ProgramKey{Op: OpGrey}

// pass is one recorded draw.
type pass struct {
	in  gpucore.TextureID
	out gpucore.TextureID // InvalidID for the default framebuffer
}

// recordingDevice wraps the software device and records resource
// creation and every draw.
type recordingDevice struct {
	*software.Device

	fbTexture map[gpucore.FramebufferID]gpucore.TextureID
	texture   gpucore.TextureID
	fb        gpucore.FramebufferID
	program   gpucore.ProgramID

	passes      []pass
	newTextures int
	compiles    int
	destroyed   []gpucore.ProgramID
}

func newRecordingDevice(opts ...software.Option) *recordingDevice {
	return &recordingDevice{
		Device:    software.New(opts...),
		fbTexture: make(map[gpucore.FramebufferID]gpucore.TextureID),
	}
}

func (d *recordingDevice) NewTexture(w, h int, f gpucore.TextureFormat) (gpucore.TextureID, error) {
	d.newTextures++
	return d.Device.NewTexture(w, h, f)
}

func (d *recordingDevice) NewFramebuffer(tex gpucore.TextureID) (gpucore.FramebufferID, error) {
	id, err := d.Device.NewFramebuffer(tex)
	if err == nil {
		d.fbTexture[id] = tex
	}
	return id, err
}

func (d *recordingDevice) CompileProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	d.compiles++
	return d.Device.CompileProgram(desc)
}

func (d *recordingDevice) DestroyProgram(id gpucore.ProgramID) {
	d.destroyed = append(d.destroyed, id)
	d.Device.DestroyProgram(id)
}

func (d *recordingDevice) BindProgram(id gpucore.ProgramID) {
	d.program = id
	d.Device.BindProgram(id)
}

func (d *recordingDevice) BindTexture(id gpucore.TextureID) {
	d.texture = id
	d.Device.BindTexture(id)
}

func (d *recordingDevice) BindFramebuffer(id gpucore.FramebufferID) {
	d.fb = id
	d.Device.BindFramebuffer(id)
}

func (d *recordingDevice) DrawFullscreen(u *gpucore.Uniforms) error {
	d.passes = append(d.passes, pass{in: d.texture, out: d.fbTexture[d.fb]})
	return d.Device.DrawFullscreen(u)
}

// newTestEngine creates an engine on a fresh recording software device.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *recordingDevice) {
	t.Helper()
	dev := newRecordingDevice(software.WithWorkers(1))
	e, err := New(append([]Option{WithDevice(dev)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, dev
}

// gradientImage returns a w x h image whose red channel grows with x and
// green channel with y.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 64, A: 255})
		}
	}
	return img
}

func uniformImage(w, h int, c color.NRGBA) *Raster {
	r := NewRaster(w, h)
	r.Clear(c)
	return r
}
