package filter

import (
	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/gpucore"
	"github.com/gogpu/imgproc/kernel"
)

// DefaultMorphSize is the structuring element used when a registry
// caller passes size 0.
const DefaultMorphSize = 3

// morphTemplate takes the channel-wise extremum over a line of
// %kernelSize% taps along u.direction. %cmpMethod% is min or max.
var morphTemplate = &imgproc.ProgramTemplate{
	Source: `const K: i32 = %kernelSize%;

fn shade(p: vec2<i32>) -> vec4<f32> {
    var acc = texel(p);
    for (var i = -K / 2; i <= K / 2; i++) {
        acc = %cmpMethod%(acc, tap(p, f32(i) * u.direction));
    }
    return vec4<f32>(acc.rgb, 1.0);
}`,
	Fragment: func(spec imgproc.Specialization) gpucore.FragmentFunc {
		half := spec.KernelSize / 2
		pick := gpucore.Vec4.Min
		if spec.Compare == imgproc.CompareMax {
			pick = gpucore.Vec4.Max
		}
		return func(s *gpucore.Sampler, x, y int, u *gpucore.Uniforms) gpucore.Vec4 {
			dx, dy := u.Direction[0], u.Direction[1]
			acc := s.Texel(x, y)
			for i := -half; i <= half; i++ {
				acc = pick(acc, s.Tap(x, y, float32(i)*dx, float32(i)*dy))
			}
			acc[3] = 1
			return acc
		}
	},
}

// Erosion replaces each pixel by the minimum over a size x size square,
// computed as a row pass then a column pass. Even sizes are rounded up.
// A size <= 0 is a no-op.
func Erosion(e *imgproc.Engine, size int) error {
	return morph(e, size, imgproc.CompareMin)
}

// Dilation replaces each pixel by the maximum over a size x size square.
// See Erosion.
func Dilation(e *imgproc.Engine, size int) error {
	return morph(e, size, imgproc.CompareMax)
}

// Opening runs Erosion followed by Dilation.
func Opening(e *imgproc.Engine, size int) error {
	if err := Erosion(e, size); err != nil {
		return err
	}
	return Dilation(e, size)
}

// Closing runs Dilation followed by Erosion.
func Closing(e *imgproc.Engine, size int) error {
	if err := Dilation(e, size); err != nil {
		return err
	}
	return Erosion(e, size)
}

func morph(e *imgproc.Engine, size int, cmp imgproc.CompareMode) error {
	if size <= 0 {
		return nil
	}
	size = kernel.Odd(size)
	p, err := program(e, imgproc.OpMorph, imgproc.Specialization{KernelSize: size, Compare: cmp})
	if err != nil {
		return err
	}
	return separable(e, p)
}
