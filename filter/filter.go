package filter

import (
	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/gpucore"
)

// templates is the static operator table: every Op with its program
// template. Ops sharing a template differ only in key.
var templates = map[imgproc.Op]*imgproc.ProgramTemplate{
	imgproc.OpCopy:        imgproc.CopyTemplate,
	imgproc.OpGrey:        greyTemplate,
	imgproc.OpYCbCr:       ycbcrTemplate,
	imgproc.OpYCbCrToRGB:  ycbcrToRGBTemplate,
	imgproc.OpSkinMask:    skinMaskTemplate,
	imgproc.OpXYZ:         xyzTemplate,
	imgproc.OpHSL:         hslTemplate,
	imgproc.OpColorMap:    colorMapTemplate,
	imgproc.OpGauss:       weightedTemplate,
	imgproc.OpConv1D:      conv1DTemplate,
	imgproc.OpConv2D:      conv2DTemplate,
	imgproc.OpMean:        weightedTemplate,
	imgproc.OpMean3x3:     mean3x3Template,
	imgproc.OpMorph:       morphTemplate,
	imgproc.OpGradient:    gradientTemplate,
	imgproc.OpEdgeNMS:     edgeNMSTemplate,
	imgproc.OpNMS:         nmsTemplate,
	imgproc.OpHarris:      harrisTemplate,
	imgproc.OpLBP:         lbpTemplate,
	imgproc.OpSymmetricNN: symmetricNNTemplate,
	imgproc.OpHoughCircle: houghCircleTemplate,
	imgproc.OpLogPolar:    logPolarTemplate,
}

// Template returns the program template of op, nil for unknown ops.
func Template(op imgproc.Op) *imgproc.ProgramTemplate {
	return templates[op]
}

// program returns the cached program for op specialized with spec.
func program(e *imgproc.Engine, op imgproc.Op, spec imgproc.Specialization) (*imgproc.Program, error) {
	return e.Program(imgproc.ProgramKey{Op: op, Spec: spec}, Template(op))
}

// single runs one pass of an unspecialized program.
func single(e *imgproc.Engine, op imgproc.Op) error {
	p, err := program(e, op, imgproc.Specialization{})
	if err != nil {
		return err
	}
	return e.Execute(p)
}

// repeat runs p count times.
func repeat(e *imgproc.Engine, p *imgproc.Program, count int) error {
	for range count {
		if err := e.Execute(p); err != nil {
			return err
		}
	}
	return nil
}

// separable runs p over rows, then over columns.
func separable(e *imgproc.Engine, p *imgproc.Program) error {
	p.SetDirection(1, 0)
	if err := e.Execute(p); err != nil {
		return err
	}
	p.SetDirection(0, 1)
	return e.Execute(p)
}

// static wraps a fragment that ignores the specialization.
func static(f gpucore.FragmentFunc) func(imgproc.Specialization) gpucore.FragmentFunc {
	return func(imgproc.Specialization) gpucore.FragmentFunc { return f }
}

// neighbors3x3 lists the 3x3 window offsets in row-major order.
var neighbors3x3 = [9][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}
