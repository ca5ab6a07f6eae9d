package software

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/imgproc/gpucore"
)

func invert(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
	c := s.Texel(x, y)
	return gpucore.Vec4{1 - c[0], 1 - c[1], 1 - c[2], c[3]}
}

func shiftLeft(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
	return s.Tap(x, y, u.Direction[0], u.Direction[1])
}

func mustTexture(t *testing.T, d *Device, w, h int, f gpucore.TextureFormat) gpucore.TextureID {
	t.Helper()
	id, err := d.NewTexture(w, h, f)
	if err != nil {
		t.Fatalf("NewTexture(%d, %d, %v) error = %v", w, h, f, err)
	}
	return id
}

func mustProgram(t *testing.T, d *Device, f gpucore.FragmentFunc) gpucore.ProgramID {
	t.Helper()
	id, err := d.CompileProgram(&gpucore.ProgramDesc{Label: "test", Source: "fn shade() {}", Fragment: f})
	if err != nil {
		t.Fatalf("CompileProgram() error = %v", err)
	}
	return id
}

func TestDeviceName(t *testing.T) {
	d := New()
	if d.Name() != "software" {
		t.Errorf("Name() = %q, want %q", d.Name(), "software")
	}
	if !d.Caps().FloatTextures {
		t.Error("Caps().FloatTextures = false, want true")
	}
	if New(WithoutFloatTextures()).Caps().FloatTextures {
		t.Error("WithoutFloatTextures: Caps().FloatTextures = true")
	}
}

func TestNewTextureRejects(t *testing.T) {
	d := New(WithoutFloatTextures())
	if _, err := d.NewTexture(0, 4, gpucore.TextureFormatRGBA8Unorm); err == nil {
		t.Error("NewTexture(0, 4) error = nil")
	}
	if _, err := d.NewTexture(4, 4, gpucore.TextureFormatRGBA32Float); !errors.Is(err, gpucore.ErrUnsupportedFormat) {
		t.Errorf("NewTexture(float) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDrawAndReadPixels(t *testing.T) {
	d := New()
	src := mustTexture(t, d, 2, 2, gpucore.TextureFormatRGBA32Float)
	dst := mustTexture(t, d, 2, 2, gpucore.TextureFormatRGBA32Float)
	fb, err := d.NewFramebuffer(dst)
	if err != nil {
		t.Fatalf("NewFramebuffer() error = %v", err)
	}
	pix := []uint8{
		0, 0, 0, 255, 255, 255, 255, 255,
		51, 102, 153, 255, 255, 0, 0, 255,
	}
	if err := d.Upload(src, pix); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	d.BindProgram(mustProgram(t, d, invert))
	d.BindTexture(src)
	d.BindFramebuffer(fb)
	if err := d.DrawFullscreen(&gpucore.Uniforms{}); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}

	out := make([]float32, 4)
	if err := d.ReadPixels(dst, image.Rect(0, 1, 1, 2), out); err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	want := []float32{0.8, 0.6, 0.4, 1}
	for i := range want {
		if diff := out[i] - want[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("pixel (0,1)[%d] = %v, want %v", i, out[i], want[i])
		}
	}
	if d.Draws() != 1 {
		t.Errorf("Draws() = %d, want 1", d.Draws())
	}
}

func TestDrawFeedbackLoop(t *testing.T) {
	d := New()
	tex := mustTexture(t, d, 2, 2, gpucore.TextureFormatRGBA8Unorm)
	fb, _ := d.NewFramebuffer(tex)
	d.BindProgram(mustProgram(t, d, invert))
	d.BindTexture(tex)
	d.BindFramebuffer(fb)
	if err := d.DrawFullscreen(nil); !errors.Is(err, gpucore.ErrFeedbackLoop) {
		t.Errorf("DrawFullscreen() error = %v, want ErrFeedbackLoop", err)
	}
}

func TestDrawWithoutProgram(t *testing.T) {
	d := New()
	tex := mustTexture(t, d, 2, 2, gpucore.TextureFormatRGBA8Unorm)
	d.BindTexture(tex)
	if err := d.DrawFullscreen(nil); !errors.Is(err, gpucore.ErrNoProgram) {
		t.Errorf("DrawFullscreen() error = %v, want ErrNoProgram", err)
	}
}

func TestRGBA8Quantizes(t *testing.T) {
	d := New()
	src := mustTexture(t, d, 1, 1, gpucore.TextureFormatRGBA32Float)
	dst := mustTexture(t, d, 1, 1, gpucore.TextureFormatRGBA8Unorm)
	fb, _ := d.NewFramebuffer(dst)
	half := func(*gpucore.Sampler, int, int, *gpucore.Uniforms) gpucore.Vec4 {
		return gpucore.Vec4{0.5, 1.7, -0.2, 1}
	}
	d.BindProgram(mustProgram(t, d, half))
	d.BindTexture(src)
	d.BindFramebuffer(fb)
	if err := d.DrawFullscreen(nil); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	out := make([]float32, 4)
	if err := d.ReadPixels(dst, image.Rect(0, 0, 1, 1), out); err != nil {
		t.Fatalf("ReadPixels() error = %v", err)
	}
	want := []float32{128.0 / 255, 1, 0, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestDefaultFramebufferFollowsViewport(t *testing.T) {
	d := New()
	src := mustTexture(t, d, 3, 2, gpucore.TextureFormatRGBA32Float)
	d.BindProgram(mustProgram(t, d, invert))
	d.BindTexture(src)
	d.BindFramebuffer(gpucore.DefaultFramebuffer)
	if d.DefaultTexture() != gpucore.InvalidID {
		t.Fatalf("DefaultTexture() before draw = %d, want InvalidID", d.DefaultTexture())
	}
	d.Viewport(3, 2)
	if err := d.DrawFullscreen(nil); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	screen := d.DefaultTexture()
	if screen == gpucore.InvalidID {
		t.Fatal("DefaultTexture() = InvalidID after draw")
	}
	out := make([]float32, 3*2*4)
	if err := d.ReadPixels(screen, image.Rect(0, 0, 3, 2), out); err != nil {
		t.Fatalf("ReadPixels(screen) error = %v", err)
	}
	if out[0] != 1 {
		t.Errorf("screen red = %v, want 1", out[0])
	}

	// Same viewport: the target is reused.
	if err := d.DrawFullscreen(nil); err != nil {
		t.Fatalf("DrawFullscreen() error = %v", err)
	}
	if d.DefaultTexture() != screen {
		t.Errorf("DefaultTexture() changed without a viewport change")
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	const w, h = 97, 83
	pix := make([]uint8, w*h*4)
	for i := range pix {
		pix[i] = uint8(i * 7)
	}
	run := func(workers int) []float32 {
		d := New(WithWorkers(workers))
		src := mustTexture(t, d, w, h, gpucore.TextureFormatRGBA32Float)
		dst := mustTexture(t, d, w, h, gpucore.TextureFormatRGBA32Float)
		fb, _ := d.NewFramebuffer(dst)
		if err := d.Upload(src, pix); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		d.BindProgram(mustProgram(t, d, shiftLeft))
		d.BindTexture(src)
		d.BindFramebuffer(fb)
		u := &gpucore.Uniforms{Direction: [2]float32{1, 0}}
		if err := d.DrawFullscreen(u); err != nil {
			t.Fatalf("DrawFullscreen() error = %v", err)
		}
		out := make([]float32, w*h*4)
		if err := d.ReadPixels(dst, image.Rect(0, 0, w, h), out); err != nil {
			t.Fatalf("ReadPixels() error = %v", err)
		}
		return out
	}
	serial, parallel := run(1), run(8)
	for i := range serial {
		if serial[i] != parallel[i] {
			t.Fatalf("value %d: serial %v != parallel %v", i, serial[i], parallel[i])
		}
	}
}

func TestCompileProgramErrors(t *testing.T) {
	d := New()
	_, err := d.CompileProgram(&gpucore.ProgramDesc{
		Label:    "conv",
		Source:   "const K: i32 = %kernelSize%;",
		Fragment: invert,
	})
	var ce *gpucore.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("CompileProgram(placeholder) error = %v, want *CompileError", err)
	}
	if ce.Label != "conv" {
		t.Errorf("CompileError.Label = %q, want %q", ce.Label, "conv")
	}

	if _, err := d.CompileProgram(&gpucore.ProgramDesc{Label: "mod", Source: "let a = i % 4;", Fragment: invert}); err != nil {
		t.Errorf("CompileProgram(modulo) error = %v", err)
	}

	_, err = d.CompileProgram(&gpucore.ProgramDesc{Label: "nofrag", Source: "fn shade() {}"})
	var le *gpucore.LinkError
	if !errors.As(err, &le) {
		t.Errorf("CompileProgram(no fragment) error = %v, want *LinkError", err)
	}
}

func TestUploadSizeMismatch(t *testing.T) {
	d := New()
	tex := mustTexture(t, d, 2, 2, gpucore.TextureFormatRGBA8Unorm)
	if err := d.Upload(tex, make([]uint8, 3)); !errors.Is(err, gpucore.ErrSizeMismatch) {
		t.Errorf("Upload() error = %v, want ErrSizeMismatch", err)
	}
}

func TestClose(t *testing.T) {
	d := New()
	mustTexture(t, d, 1, 1, gpucore.TextureFormatRGBA8Unorm)
	d.Close()
	if d.LiveTextures() != 0 {
		t.Errorf("LiveTextures() after Close = %d, want 0", d.LiveTextures())
	}
	if _, err := d.NewTexture(1, 1, gpucore.TextureFormatRGBA8Unorm); !errors.Is(err, gpucore.ErrDeviceClosed) {
		t.Errorf("NewTexture after Close error = %v, want ErrDeviceClosed", err)
	}
}
