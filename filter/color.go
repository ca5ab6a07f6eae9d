package filter

import (
	"fmt"
	"math"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/gpucore"
)

// Luma weights (BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Skin tone thresholds in YCbCr space.
const (
	skinMinY  = 80.0 / 255
	skinMinCb = 80.0 / 255
	skinMaxCb = 120.0 / 255
	skinMinCr = 133.0 / 255
	skinMaxCr = 173.0 / 255
)

var greyTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let l = dot(c.rgb, vec3<f32>(0.299, 0.587, 0.114));
    return vec4<f32>(l, l, l, c.a);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		l := lumaR*c[0] + lumaG*c[1] + lumaB*c[2]
		return gpucore.Vec4{l, l, l, c[3]}
	}),
}

var ycbcrTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let y = dot(c.rgb, vec3<f32>(0.257, 0.504, 0.098)) + 0.0625;
    let cb = dot(c.rgb, vec3<f32>(-0.148, -0.291, 0.439)) + 0.5;
    let cr = dot(c.rgb, vec3<f32>(0.439, -0.368, -0.071)) + 0.5;
    return vec4<f32>(y, cb, cr, c.a);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		r, g, b := c[0], c[1], c[2]
		return gpucore.Vec4{
			0.257*r + 0.504*g + 0.098*b + 0.0625,
			-0.148*r - 0.291*g + 0.439*b + 0.5,
			0.439*r - 0.368*g - 0.071*b + 0.5,
			c[3],
		}
	}),
}

var ycbcrToRGBTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let y = 1.164 * (c.r - 0.0625);
    let cb = c.g - 0.5;
    let cr = c.b - 0.5;
    return vec4<f32>(y + 1.596 * cr, y - 0.392 * cb - 0.813 * cr, y + 2.017 * cb, c.a);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		l := 1.164 * (c[0] - 0.0625)
		cb, cr := c[1]-0.5, c[2]-0.5
		return gpucore.Vec4{l + 1.596*cr, l - 0.392*cb - 0.813*cr, l + 2.017*cb, c[3]}
	}),
}

var skinMaskTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let skin = c.r > 80.0 / 255.0 &&
        c.g >= 80.0 / 255.0 && c.g <= 120.0 / 255.0 &&
        c.b >= 133.0 / 255.0 && c.b <= 173.0 / 255.0;
    let v = select(0.0, 1.0, skin);
    return vec4<f32>(v, v, v, c.a);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		var v float32
		if c[0] > skinMinY &&
			c[1] >= skinMinCb && c[1] <= skinMaxCb &&
			c[2] >= skinMinCr && c[2] <= skinMaxCr {
			v = 1
		}
		return gpucore.Vec4{v, v, v, c[3]}
	}),
}

var xyzTemplate = &imgproc.ProgramTemplate{
	Source: `fn linearize(c: f32) -> f32 {
    return select(c / 12.92, pow((c + 0.055) / 1.055, 2.4), c > 0.04045);
}

fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let l = vec3<f32>(linearize(c.r), linearize(c.g), linearize(c.b));
    return vec4<f32>(
        dot(l, vec3<f32>(0.4124, 0.3576, 0.1805)),
        dot(l, vec3<f32>(0.2126, 0.7152, 0.0722)),
        dot(l, vec3<f32>(0.0193, 0.1192, 0.9505)),
        c.a);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		r, g, b := linearize(c[0]), linearize(c[1]), linearize(c[2])
		return gpucore.Vec4{
			0.4124*r + 0.3576*g + 0.1805*b,
			0.2126*r + 0.7152*g + 0.0722*b,
			0.0193*r + 0.1192*g + 0.9505*b,
			c[3],
		}
	}),
}

// linearize undoes the sRGB transfer curve.
func linearize(c float32) float32 {
	if c > 0.04045 {
		return float32(math.Pow((float64(c)+0.055)/1.055, 2.4))
	}
	return c / 12.92
}

var hslTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let lo = min(min(c.r, c.g), c.b);
    let hi = max(max(c.r, c.g), c.b);
    let l = (hi + lo) / 2.0;
    if (lo == hi) {
        return vec4<f32>(0.0, 0.0, l, c.a);
    }
    let d = hi - lo;
    let s = select(d / (hi + lo), d / (2.0 - hi - lo), l > 0.5);
    var h: f32;
    if (c.r == hi) {
        h = (c.g - c.b) / d;
    } else if (c.g == hi) {
        h = 2.0 + (c.b - c.r) / d;
    } else {
        h = 4.0 + (c.r - c.g) / d;
    }
    h = select(h, h + 6.0, h < 0.0) / 6.0;
    return vec4<f32>(h, s, l, c.a);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		h, sat, l := rgbToHSL(c[0], c[1], c[2])
		return gpucore.Vec4{h, sat, l, c[3]}
	}),
}

// rgbToHSL converts a color to hue, saturation and lightness, all in [0,1].
func rgbToHSL(r, g, b float32) (h, s, l float32) {
	lo := min(r, g, b)
	hi := max(r, g, b)
	l = (hi + lo) / 2
	if lo == hi {
		return 0, 0, l
	}
	d := hi - lo
	if l > 0.5 {
		s = d / (2 - hi - lo)
	} else {
		s = d / (hi + lo)
	}
	switch hi {
	case r:
		h = (g - b) / d
	case g:
		h = 2 + (b-r)/d
	default:
		h = 4 + (r-g)/d
	}
	if h < 0 {
		h += 6
	}
	return h / 6, s, l
}

var colorMapTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let n = i32(u.params.x);
    let i = clamp(i32(floor(texel(p).r * f32(n))), 0, n - 1);
    let v = weight(i);
    return vec4<f32>(v, v, v, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
		n := int(u.Params[0])
		i := min(max(int(math.Floor(float64(s.Texel(x, y)[0]*float32(n)))), 0), n-1)
		return gpucore.Grey(u.Weight(i))
	}),
}

// Grey converts to greyscale using BT.601 luma weights. Alpha is kept.
func Grey(e *imgproc.Engine) error {
	return single(e, imgproc.OpGrey)
}

// RGBToYCbCr converts to studio-swing YCbCr, stored in the r, g and b
// channels. Alpha is kept.
func RGBToYCbCr(e *imgproc.Engine) error {
	return single(e, imgproc.OpYCbCr)
}

// YCbCrToRGB converts studio-swing YCbCr back to RGB.
func YCbCrToRGB(e *imgproc.Engine) error {
	return single(e, imgproc.OpYCbCrToRGB)
}

// SkinMask marks skin tones white and everything else black. It runs the
// YCbCr conversion first, so its input must be RGB.
func SkinMask(e *imgproc.Engine) error {
	if err := RGBToYCbCr(e); err != nil {
		return err
	}
	return single(e, imgproc.OpSkinMask)
}

// RGBToXYZ converts sRGB to CIE XYZ (D65, 2° observer).
func RGBToXYZ(e *imgproc.Engine) error {
	return single(e, imgproc.OpXYZ)
}

// RGBToHSL converts to hue, saturation and lightness, stored in the r, g
// and b channels.
func RGBToHSL(e *imgproc.Engine) error {
	return single(e, imgproc.OpHSL)
}

// ColorMap replaces each pixel by the grey level table[floor(r*n)], where
// n = len(table). The table typically comes from Equalize or
// NormalizeHistogram. It must hold 1 to 256 entries.
func ColorMap(e *imgproc.Engine, table []uint8) error {
	if len(table) == 0 || len(table) > gpucore.MaxWeights {
		return fmt.Errorf("%w: color table has %d entries, want 1..%d",
			imgproc.ErrInvalidParameter, len(table), gpucore.MaxWeights)
	}
	p, err := program(e, imgproc.OpColorMap, imgproc.Specialization{})
	if err != nil {
		return err
	}
	w := make([]float32, len(table))
	for i, v := range table {
		w[i] = float32(v) / 255
	}
	p.SetKernel(w)
	p.SetParams(float32(len(table)))
	return e.Execute(p)
}
