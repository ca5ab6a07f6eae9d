package filter

import (
	"fmt"
	"math"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/gpucore"
	"github.com/gogpu/imgproc/kernel"
)

// MaxGaussSize caps the Gaussian kernel length; wider sigmas are
// truncated to this window.
const MaxGaussSize = 15

// ConvType selects the passes of Conv1D.
type ConvType uint8

// Convolution passes.
const (
	ConvRows ConvType = 1 << iota
	ConvCols
	ConvAll = ConvRows | ConvCols
)

// weightedTemplate convolves all four channels with the weight table
// along u.direction. Gauss and Mean use it.
var weightedTemplate = &imgproc.ProgramTemplate{
	Source: `const K: i32 = %kernelSize%;

fn shade(p: vec2<i32>) -> vec4<f32> {
    var acc = vec4<f32>(0.0);
    for (var i = 0; i < K; i++) {
        acc += weight(i) * tap(p, f32(i - K / 2) * u.direction);
    }
    return acc;
}`,
	Fragment: func(spec imgproc.Specialization) gpucore.FragmentFunc {
		return convolve1D(spec.KernelSize, false)
	},
}

// conv1DTemplate is weightedTemplate with an opaque result.
var conv1DTemplate = &imgproc.ProgramTemplate{
	Source: `const K: i32 = %kernelSize%;

fn shade(p: vec2<i32>) -> vec4<f32> {
    var acc = vec3<f32>(0.0);
    for (var i = 0; i < K; i++) {
        acc += weight(i) * tap(p, f32(i - K / 2) * u.direction).rgb;
    }
    return vec4<f32>(acc, 1.0);
}`,
	Fragment: func(spec imgproc.Specialization) gpucore.FragmentFunc {
		return convolve1D(spec.KernelSize, true)
	},
}

func convolve1D(size int, opaque bool) gpucore.FragmentFunc {
	half := size / 2
	return func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
		dx, dy := u.Direction[0], u.Direction[1]
		var acc gpucore.Vec4
		for i := 0; i < size; i++ {
			o := float32(i - half)
			acc = acc.Add(s.Tap(x, y, o*dx, o*dy).Scale(u.Weight(i)))
		}
		if opaque {
			acc[3] = 1
		}
		return acc
	}
}

var conv2DTemplate = &imgproc.ProgramTemplate{
	Source: `const K: i32 = %kernelSize%;

fn shade(p: vec2<i32>) -> vec4<f32> {
    var acc = vec3<f32>(0.0);
    for (var j = 0; j < K; j++) {
        for (var i = 0; i < K; i++) {
            let d = vec2<f32>(f32(i - K / 2), f32(j - K / 2));
            acc += weight(j * K + i) * tap(p, d).rgb;
        }
    }
    return vec4<f32>(acc, 1.0);
}`,
	Fragment: func(spec imgproc.Specialization) gpucore.FragmentFunc {
		size := spec.KernelSize
		half := size / 2
		return func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
			var acc gpucore.Vec4
			for j := 0; j < size; j++ {
				for i := 0; i < size; i++ {
					acc = acc.Add(s.Texel(x+i-half, y+j-half).Scale(u.Weight(j*size + i)))
				}
			}
			acc[3] = 1
			return acc
		}
	},
}

var mean3x3Template = &imgproc.ProgramTemplate{
	Source: `fn shade(p: vec2<i32>) -> vec4<f32> {
    var acc = vec4<f32>(0.0);
    for (var j = -1; j <= 1; j++) {
        for (var i = -1; i <= 1; i++) {
            acc += texel(p + vec2<i32>(i, j));
        }
    }
    return acc / 9.0;
}`,
	Fragment: static(func(s *gpucore.Sampler, x, y int, _ *gpucore.Uniforms) gpucore.Vec4 {
		var acc gpucore.Vec4
		for _, d := range neighbors3x3 {
			acc = acc.Add(s.Texel(x+d[0], y+d[1]))
		}
		return acc.Scale(1.0 / 9)
	}),
}

// Gauss applies a separable Gaussian blur: a row pass, then a column
// pass. The kernel covers three sigmas on each side, capped at
// MaxGaussSize taps. A sigma <= 0 is a no-op.
func Gauss(e *imgproc.Engine, sigma float64) error {
	if sigma <= 0 {
		return nil
	}
	size := min(kernel.GaussianSize(sigma), MaxGaussSize)
	p, err := program(e, imgproc.OpGauss, imgproc.Specialization{KernelSize: size})
	if err != nil {
		return err
	}
	p.SetKernel(kernel.CachedGaussian(sigma, size))
	return separable(e, p)
}

// Conv1D convolves with a one-dimensional kernel along rows, columns or
// both (rows first). The kernel is normalized; an even-length kernel is
// padded with a trailing zero so it has a centre tap. The result is
// opaque. An empty kernel is a no-op.
func Conv1D(e *imgproc.Engine, k []float32, t ConvType) error {
	if len(k) == 0 {
		return nil
	}
	size := kernel.Odd(len(k))
	if size > gpucore.MaxWeights {
		return fmt.Errorf("%w: kernel of %d taps exceeds %d", imgproc.ErrInvalidParameter, len(k), gpucore.MaxWeights)
	}
	if t&ConvAll == 0 {
		return fmt.Errorf("%w: convolution type %d", imgproc.ErrInvalidParameter, t)
	}
	p, err := program(e, imgproc.OpConv1D, imgproc.Specialization{KernelSize: size})
	if err != nil {
		return err
	}
	p.SetKernel(kernel.Normalize(k))
	if t&ConvRows != 0 {
		p.SetDirection(1, 0)
		if err := e.Execute(p); err != nil {
			return err
		}
	}
	if t&ConvCols != 0 {
		p.SetDirection(0, 1)
		if err := e.Execute(p); err != nil {
			return err
		}
	}
	return nil
}

// Conv2D convolves with a square kernel given in row-major order, in a
// single pass. The kernel is normalized and the result is opaque.
// A kernel whose length is not a perfect square fails with
// ErrInvalidParameter. An empty kernel is a no-op.
func Conv2D(e *imgproc.Engine, k []float32) error {
	if len(k) == 0 {
		return nil
	}
	size := int(math.Sqrt(float64(len(k))))
	if size*size != len(k) {
		return fmt.Errorf("%w: kernel of %d weights is not square", imgproc.ErrInvalidParameter, len(k))
	}
	if len(k) > gpucore.MaxWeights {
		return fmt.Errorf("%w: %dx%d kernel exceeds %d weights", imgproc.ErrInvalidParameter, size, size, gpucore.MaxWeights)
	}
	p, err := program(e, imgproc.OpConv2D, imgproc.Specialization{KernelSize: size})
	if err != nil {
		return err
	}
	p.SetKernel(kernel.Normalize(k))
	return e.Execute(p)
}

// Mean applies a separable box filter of the given window, rounded up to
// odd. A size <= 0 is a no-op.
func Mean(e *imgproc.Engine, size int) error {
	if size <= 0 {
		return nil
	}
	size = kernel.Odd(size)
	if size > gpucore.MaxWeights {
		return fmt.Errorf("%w: window %d exceeds %d", imgproc.ErrInvalidParameter, size, gpucore.MaxWeights)
	}
	p, err := program(e, imgproc.OpMean, imgproc.Specialization{KernelSize: size})
	if err != nil {
		return err
	}
	p.SetKernel(kernel.Box(size))
	return separable(e, p)
}

// BlurPasses returns the number of 3x3 mean passes Blur runs for sigma:
// the variance of n passes, 8n/12, approximates sigma², capped at 100.
func BlurPasses(sigma float64) int {
	if sigma <= 0 {
		return 0
	}
	return int(math.Min(12*sigma*sigma/8, 100))
}

// Blur approximates a Gaussian blur by repeating a 3x3 mean filter
// BlurPasses(sigma) times.
func Blur(e *imgproc.Engine, sigma float64) error {
	count := BlurPasses(sigma)
	if count == 0 {
		return nil
	}
	p, err := program(e, imgproc.OpMean3x3, imgproc.Specialization{})
	if err != nil {
		return err
	}
	return repeat(e, p, count)
}
