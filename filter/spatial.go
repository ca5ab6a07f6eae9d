package filter

import (
	"math"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/gpucore"
	"github.com/gogpu/imgproc/kernel"
)

// symmetricNNTemplate averages, over the upper half of a
// %kernelSize% window, whichever pixel of each symmetric pair is closer
// to the centre, per channel.
var symmetricNNTemplate = &imgproc.ProgramTemplate{
	Source: `const K: i32 = %kernelSize%;
const H: i32 = K / 2;

fn shade(p: vec2<i32>) -> vec4<f32> {
    let c = texel(p);
    var acc = vec4<f32>(0.0);
    for (var y = 0; y <= H; y++) {
        for (var x = -H; x <= H; x++) {
            let v1 = texel(p + vec2<i32>(x, y));
            let v2 = texel(p - vec2<i32>(x, y));
            let near = abs(c.rgb - v1.rgb) < abs(c.rgb - v2.rgb);
            acc += vec4<f32>(select(v2.rgb, v1.rgb, near), c.a);
        }
    }
    return acc / f32(K * (H + 1));
}`,
	Fragment: func(spec imgproc.Specialization) gpucore.FragmentFunc {
		k := spec.KernelSize
		h := k / 2
		scale := 1 / float32(k*(h+1))
		return func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
			c := s.Texel(x, y)
			var acc gpucore.Vec4
			for j := 0; j <= h; j++ {
				for i := -h; i <= h; i++ {
					v1 := s.Texel(x+i, y+j)
					v2 := s.Texel(x-i, y-j)
					for ch := range 3 {
						if abs32(c[ch]-v1[ch]) < abs32(c[ch]-v2[ch]) {
							acc[ch] += v1[ch]
						} else {
							acc[ch] += v2[ch]
						}
					}
					acc[3] += c[3]
				}
			}
			return acc.Scale(scale)
		}
	},
}

// houghCircleTemplate averages 360 samples on a circle of radius
// u.params.x around each pixel.
var houghCircleTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let r = u.params.x;
    var acc = vec3<f32>(0.0);
    for (var i = 1; i <= 360; i++) {
        let phi = f32(i) * PI / 180.0;
        acc += tap(p, r * vec2<f32>(cos(phi), sin(phi))).rgb;
    }
    return vec4<f32>(acc / 360.0, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
		r := float64(u.Params[0])
		var acc gpucore.Vec4
		for i := 1; i <= 360; i++ {
			sin, cos := math.Sincos(float64(i) * math.Pi / 180)
			acc = acc.Add(s.Tap(x, y, float32(r*cos), float32(r*sin)))
		}
		acc = acc.Scale(1.0 / 360)
		acc[3] = 1
		return acc
	}),
}

// logPolarTemplate resamples around the image centre: x maps to a
// logarithmic radius, y to the angle.
var logPolarTemplate = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    let q = (vec2<f32>(p) + vec2<f32>(0.5)) / u.size;
    let radius = (exp(q.x) - 1.0) / 1.718281828459045;
    let angle = PI + 2.0 * PI * q.y;
    let polar = radius * vec2<f32>(cos(angle), sin(angle)) + vec2<f32>(0.5);
    if (all(polar >= vec2<f32>(0.0)) && all(polar <= vec2<f32>(1.0))) {
        return tap_uv(polar);
    }
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
		qx := (float64(x) + 0.5) / float64(u.Size[0])
		qy := (float64(y) + 0.5) / float64(u.Size[1])
		radius := (math.Exp(qx) - 1) / (math.E - 1)
		sin, cos := math.Sincos(math.Pi + 2*math.Pi*qy)
		px, py := radius*cos+0.5, radius*sin+0.5
		if px < 0 || px > 1 || py < 0 || py > 1 {
			return gpucore.Vec4{0, 0, 0, 1}
		}
		return s.TapUV(float32(px), float32(py))
	}),
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// SymmetricNN applies the symmetric nearest neighbour filter count times
// with a size x size window (rounded up to odd). Programs compiled for
// other window sizes are dropped from the cache. A size or count <= 0 is
// a no-op.
func SymmetricNN(e *imgproc.Engine, size, count int) error {
	if size <= 0 || count <= 0 {
		return nil
	}
	size = kernel.Odd(size)
	e.Cache().DeleteFunc(func(k imgproc.ProgramKey) bool {
		return k.Op == imgproc.OpSymmetricNN && k.Spec.KernelSize != size
	})
	p, err := program(e, imgproc.OpSymmetricNN, imgproc.Specialization{KernelSize: size})
	if err != nil {
		return err
	}
	return repeat(e, p, count)
}

// HoughCircle accumulates, for every pixel, the mean of the input on a
// circle of radius r around it. Centres of circles of that radius in an
// edge image come out bright. A radius <= 0 is a no-op.
func HoughCircle(e *imgproc.Engine, r float64) error {
	if r <= 0 {
		return nil
	}
	p, err := program(e, imgproc.OpHoughCircle, imgproc.Specialization{})
	if err != nil {
		return err
	}
	p.SetParams(float32(r))
	return e.Execute(p)
}

// LogPolar transforms the image to log-polar coordinates about its
// centre. Samples falling outside the image are black.
func LogPolar(e *imgproc.Engine) error {
	return single(e, imgproc.OpLogPolar)
}
