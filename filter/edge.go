package filter

import (
	"math"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/gpucore"
	"github.com/gogpu/imgproc/kernel"
)

// Derivative smoothing kernels.
var (
	SobelKernel  = [3]float32{1, 2, 1}
	ScharrKernel = [3]float32{3, 10, 3}
)

// gradientTemplate writes (magnitude, direction, 0, 1). The direction is
// atan2(dy, dx) mapped from [-π, π] to [0, 1].
var gradientTemplate = &imgproc.ProgramTemplate{
	Source: `fn column(p: vec2<i32>, dx: i32) -> vec3<f32> {
    return weight(0) * texel(p + vec2<i32>(dx, -1)).rgb +
        weight(1) * texel(p + vec2<i32>(dx, 0)).rgb +
        weight(2) * texel(p + vec2<i32>(dx, 1)).rgb;
}

fn row(p: vec2<i32>, dy: i32) -> vec3<f32> {
    return weight(0) * texel(p + vec2<i32>(-1, dy)).rgb +
        weight(1) * texel(p + vec2<i32>(0, dy)).rgb +
        weight(2) * texel(p + vec2<i32>(1, dy)).rgb;
}

fn shade(p: vec2<i32>) -> vec4<f32> {
    let gx = length(column(p, -1)) - length(column(p, 1));
    let gy = length(row(p, -1)) - length(row(p, 1));
    let theta = (atan2(gy, gx) + PI) / (2.0 * PI);
    return vec4<f32>(length(vec2<f32>(gx, gy)), theta, 0.0, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
		w := [3]float32{u.Weights[0], u.Weights[1], u.Weights[2]}
		gx := column(s, x-1, y, w).Len3() - column(s, x+1, y, w).Len3()
		gy := row(s, x, y-1, w).Len3() - row(s, x, y+1, w).Len3()
		mag := math.Hypot(float64(gx), float64(gy))
		theta := (math.Atan2(float64(gy), float64(gx)) + math.Pi) / (2 * math.Pi)
		return gpucore.Vec4{float32(mag), float32(theta), 0, 1}
	}),
}

// column returns the weighted sum of the three pixels above, at and
// below (x, y).
func column(s *gpucore.Sampler, x, y int, w [3]float32) gpucore.Vec4 {
	return s.Texel(x, y-1).Scale(w[0]).
		Add(s.Texel(x, y).Scale(w[1])).
		Add(s.Texel(x, y+1).Scale(w[2]))
}

// row returns the weighted sum of the three pixels left of, at and right
// of (x, y).
func row(s *gpucore.Sampler, x, y int, w [3]float32) gpucore.Vec4 {
	return s.Texel(x-1, y).Scale(w[0]).
		Add(s.Texel(x, y).Scale(w[1])).
		Add(s.Texel(x+1, y).Scale(w[2]))
}

// edgeNMSTemplate keeps a gradient magnitude only where it is a local
// maximum along the gradient direction, quantized to 45° sectors.
var edgeNMSTemplate = &imgproc.ProgramTemplate{
	Source: `fn sector(theta: f32) -> vec2<i32> {
    if (theta >= 337.5 || theta < 22.5) { return vec2<i32>(1, 0); }
    if (theta < 67.5) { return vec2<i32>(1, 1); }
    if (theta < 112.5) { return vec2<i32>(0, 1); }
    if (theta < 157.5) { return vec2<i32>(-1, 1); }
    if (theta < 202.5) { return vec2<i32>(-1, 0); }
    if (theta < 247.5) { return vec2<i32>(-1, -1); }
    if (theta < 292.5) { return vec2<i32>(0, -1); }
    return vec2<i32>(1, -1);
}

fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    let d = sector(c.y * 360.0);
    let a = texel(p + d).x;
    let b = texel(p - d).x;
    let v = select(c.x, 0.0, c.x <= a || c.x < b);
    return vec4<f32>(v, v, v, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		dx, dy := sector(c[1] * 360)
		a := s.Texel(x+dx, y+dy)[0]
		b := s.Texel(x-dx, y-dy)[0]
		if c[0] <= a || c[0] < b {
			return gpucore.Vec4{0, 0, 0, 1}
		}
		return gpucore.Grey(c[0])
	}),
}

// sector maps a direction in degrees to the neighbour offset of its 45°
// sector.
func sector(theta float32) (dx, dy int) {
	switch {
	case theta >= 337.5 || theta < 22.5:
		return 1, 0
	case theta < 67.5:
		return 1, 1
	case theta < 112.5:
		return 0, 1
	case theta < 157.5:
		return -1, 1
	case theta < 202.5:
		return -1, 0
	case theta < 247.5:
		return -1, -1
	case theta < 292.5:
		return 0, -1
	default:
		return 1, -1
	}
}

// nmsTemplate suppresses pixels that are not the brightest within
// %kernelSize% taps on either side along u.direction. A suppressed pixel
// is written as the negated maximum so the second pass zeroes it.
var nmsTemplate = &imgproc.ProgramTemplate{
	Source: `const K: i32 = %kernelSize%;

fn shade(p: vec2<i32>) -> vec4<f32> {
    if (any(texel(p).rgb < vec3<f32>(0.0))) {
        return vec4<f32>(0.0, 0.0, 0.0, 1.0);
    }
    var hi = 0.0;
    var at = 0;
    for (var i = -K; i <= K; i++) {
        let v = length(tap(p, f32(i) * u.direction).rgb);
        if (v > hi) {
            hi = v;
            at = i;
        }
    }
    let v = select(hi, -hi, at != 0);
    return vec4<f32>(v, v, v, 1.0);
}`,
	Fragment: func(spec imgproc.Specialization) gpucore.FragmentFunc {
		k := spec.KernelSize
		return func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
			c := s.Texel(x, y)
			if c[0] < 0 || c[1] < 0 || c[2] < 0 {
				return gpucore.Vec4{0, 0, 0, 1}
			}
			dx, dy := u.Direction[0], u.Direction[1]
			var hi float32
			at := 0
			for i := -k; i <= k; i++ {
				if v := s.Tap(x, y, float32(i)*dx, float32(i)*dy).Len3(); v > hi {
					hi, at = v, i
				}
			}
			if at != 0 {
				hi = -hi
			}
			return gpucore.Grey(hi)
		}
	},
}

// harrisTemplate runs in two passes selected by u.params.x: 0 computes
// the structure tensor terms (dx², dy², dx·dy), 1 averages them over 3x3
// and writes the Harris-Noble response det/trace, clamped at 0.
var harrisTemplate = &imgproc.ProgramTemplate{
	Source: `fn column(p: vec2<i32>, dx: i32) -> vec3<f32> {
    return weight(0) * texel(p + vec2<i32>(dx, -1)).rgb +
        weight(1) * texel(p + vec2<i32>(dx, 0)).rgb +
        weight(2) * texel(p + vec2<i32>(dx, 1)).rgb;
}

fn row(p: vec2<i32>, dy: i32) -> vec3<f32> {
    return weight(0) * texel(p + vec2<i32>(-1, dy)).rgb +
        weight(1) * texel(p + vec2<i32>(0, dy)).rgb +
        weight(2) * texel(p + vec2<i32>(1, dy)).rgb;
}

fn shade(p: vec2<i32>) -> vec4<f32> {
    if (u.params.x < 0.5) {
        let dx = length(column(p, -1) - column(p, 1));
        let dy = length(row(p, -1) - row(p, 1));
        return vec4<f32>(dx * dx, dy * dy, dx * dy, 1.0);
    }
    var m = vec4<f32>(0.0);
    for (var j = -1; j <= 1; j++) {
        for (var i = -1; i <= 1; i++) {
            m += texel(p + vec2<i32>(i, j));
        }
    }
    m = m / 9.0;
    let r = (m.x * m.y - m.z * m.z) / (m.x + m.y + 1e-31);
    let v = max(r, 0.0);
    return vec4<f32>(v, v, v, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
		if u.Params[0] < 0.5 {
			w := [3]float32{u.Weights[0], u.Weights[1], u.Weights[2]}
			dx := column(s, x-1, y, w).Sub(column(s, x+1, y, w)).Len3()
			dy := row(s, x, y-1, w).Sub(row(s, x, y+1, w)).Len3()
			return gpucore.Vec4{dx * dx, dy * dy, dx * dy, 1}
		}
		var m gpucore.Vec4
		for _, d := range neighbors3x3 {
			m = m.Add(s.Texel(x+d[0], y+d[1]))
		}
		m = m.Scale(1.0 / 9)
		r := (m[0]*m[1] - m[2]*m[2]) / (m[0] + m[1] + 1e-31)
		return gpucore.Grey(max(r, 0))
	}),
}

// lbpNeighbors lists the local binary pattern neighbours, most
// significant bit first.
var lbpNeighbors = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1},
}

var lbpTemplate = &imgproc.ProgramTemplate{
	Source: `fn bit(c: vec3<f32>, p: vec2<i32>, d: vec2<i32>, w: f32) -> vec3<f32> {
    return select(vec3<f32>(0.0), vec3<f32>(w), c >= texel(p + d).rgb);
}

fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p).rgb;
    let v = bit(c, p, vec2<i32>(-1, -1), 0.5) +
        bit(c, p, vec2<i32>(-1, 0), 0.25) +
        bit(c, p, vec2<i32>(-1, 1), 0.125) +
        bit(c, p, vec2<i32>(0, 1), 0.0625) +
        bit(c, p, vec2<i32>(1, 1), 0.03125) +
        bit(c, p, vec2<i32>(1, 0), 0.015625) +
        bit(c, p, vec2<i32>(1, -1), 0.0078125) +
        bit(c, p, vec2<i32>(0, -1), 0.00390625);
    return vec4<f32>(v, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		c := s.Texel(x, y)
		out := gpucore.Vec4{0, 0, 0, 1}
		w := float32(0.5)
		for _, d := range lbpNeighbors {
			n := s.Texel(x+d[0], y+d[1])
			for ch := range 3 {
				if c[ch] >= n[ch] {
					out[ch] += w
				}
			}
			w /= 2
		}
		return out
	}),
}

// Gradient writes the gradient magnitude and direction of a 3x3
// derivative filter smoothed with k: (magnitude, (atan2(dy,dx)+π)/2π, 0, 1).
func Gradient(e *imgproc.Engine, k [3]float32) error {
	p, err := program(e, imgproc.OpGradient, imgproc.Specialization{})
	if err != nil {
		return err
	}
	p.SetKernel(k[:])
	return e.Execute(p)
}

// EdgeNMS thins the output of Gradient to one pixel wide edges.
func EdgeNMS(e *imgproc.Engine) error {
	return single(e, imgproc.OpEdgeNMS)
}

// Sobel detects edges with the Sobel-Feldman operator followed by
// non-maximum suppression along the gradient direction.
func Sobel(e *imgproc.Engine) error {
	if err := Gradient(e, SobelKernel); err != nil {
		return err
	}
	return EdgeNMS(e)
}

// Scharr is Sobel with the rotationally more symmetric Scharr kernel.
func Scharr(e *imgproc.Engine) error {
	if err := Gradient(e, ScharrKernel); err != nil {
		return err
	}
	return EdgeNMS(e)
}

// NMS keeps only pixels that are the brightest within size taps on each
// side, along rows then columns. A size <= 0 is a no-op.
func NMS(e *imgproc.Engine, size int) error {
	if size <= 0 {
		return nil
	}
	p, err := program(e, imgproc.OpNMS, imgproc.Specialization{KernelSize: kernel.Odd(size)})
	if err != nil {
		return err
	}
	return separable(e, p)
}

// HarrisCorners writes the Harris-Noble corner response as grey levels.
func HarrisCorners(e *imgproc.Engine) error {
	p, err := program(e, imgproc.OpHarris, imgproc.Specialization{})
	if err != nil {
		return err
	}
	p.SetKernel(SobelKernel[:])
	p.SetParams(0)
	if err := e.Execute(p); err != nil {
		return err
	}
	p.SetParams(1)
	return e.Execute(p)
}

// LBP writes the 8-neighbour local binary pattern of each channel, the
// pattern byte scaled to [0, 1).
func LBP(e *imgproc.Engine) error {
	return single(e, imgproc.OpLBP)
}
