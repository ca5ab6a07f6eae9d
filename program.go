package imgproc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/imgproc/gpucore"
)

// Op identifies an operator program. The set of operators is static; the
// filter package binds each Op to its ProgramTemplate.
type Op uint16

// Operator programs.
const (
	OpCopy Op = iota + 1
	OpGrey
	OpYCbCr
	OpYCbCrToRGB
	OpSkinMask
	OpXYZ
	OpHSL
	OpColorMap
	OpGauss
	OpConv1D
	OpConv2D
	OpMean
	OpMean3x3
	OpMorph
	OpGradient
	OpEdgeNMS
	OpNMS
	OpHarris
	OpLBP
	OpSymmetricNN
	OpHoughCircle
	OpLogPolar

	opCount
)

var opNames = [opCount]string{
	OpCopy:        "copy",
	OpGrey:        "grey",
	OpYCbCr:       "ycbcr",
	OpYCbCrToRGB:  "ycbcr2rgb",
	OpSkinMask:    "skinmask",
	OpXYZ:         "xyz",
	OpHSL:         "hsl",
	OpColorMap:    "colormap",
	OpGauss:       "gauss",
	OpConv1D:      "conv1d",
	OpConv2D:      "conv2d",
	OpMean:        "mean",
	OpMean3x3:     "mean3x3",
	OpMorph:       "morph",
	OpGradient:    "gradient",
	OpEdgeNMS:     "edgenms",
	OpNMS:         "nms",
	OpHarris:      "harris",
	OpLBP:         "lbp",
	OpSymmetricNN: "symmetricnn",
	OpHoughCircle: "houghcircle",
	OpLogPolar:    "logpolar",
}

// String returns the operator name.
func (o Op) String() string {
	if o > 0 && o < opCount {
		return opNames[o]
	}
	return "op(" + strconv.Itoa(int(o)) + ")"
}

// CompareMode selects the extremum of a morphology program.
type CompareMode uint8

// Comparison modes.
const (
	CompareNone CompareMode = iota
	CompareMin
	CompareMax
)

// String returns the WGSL builtin implementing the comparison.
func (m CompareMode) String() string {
	switch m {
	case CompareMin:
		return "min"
	case CompareMax:
		return "max"
	default:
		return ""
	}
}

// Specialization holds the compile-time constants of a program.
// The zero value means "no specialization".
type Specialization struct {
	KernelSize int
	Compare    CompareMode
}

// Placeholders returns the substitution pairs for template instantiation:
// %kernelSize% and %cmpMethod%. Unset constants are left out, so a template
// that needs them keeps its placeholder and fails to compile.
func (s Specialization) Placeholders() []string {
	var pairs []string
	if s.KernelSize > 0 {
		pairs = append(pairs, "%kernelSize%", strconv.Itoa(s.KernelSize))
	}
	if s.Compare != CompareNone {
		pairs = append(pairs, "%cmpMethod%", s.Compare.String())
	}
	return pairs
}

// ProgramKey is the program cache key. Two keys are equal when they name
// the same operator with the same specialization, regardless of source text.
type ProgramKey struct {
	Op   Op
	Spec Specialization
}

// String returns a label such as "morph[size=5,cmp=min]".
func (k ProgramKey) String() string {
	var b strings.Builder
	b.WriteString(k.Op.String())
	if k.Spec == (Specialization{}) {
		return b.String()
	}
	b.WriteByte('[')
	sep := ""
	if k.Spec.KernelSize > 0 {
		fmt.Fprintf(&b, "size=%d", k.Spec.KernelSize)
		sep = ","
	}
	if k.Spec.Compare != CompareNone {
		fmt.Fprintf(&b, "%scmp=%s", sep, k.Spec.Compare)
	}
	b.WriteByte(']')
	return b.String()
}

// ProgramTemplate is the parameterizable source of one operator.
type ProgramTemplate struct {
	// Source is the WGSL shade function with %name% placeholders.
	Source string

	// Fragment returns the CPU entry point for a specialization.
	Fragment func(Specialization) gpucore.FragmentFunc
}

// Instantiate substitutes the specialization into the template source.
func (t *ProgramTemplate) Instantiate(s Specialization) string {
	pairs := s.Placeholders()
	if len(pairs) == 0 {
		return t.Source
	}
	return strings.NewReplacer(pairs...).Replace(t.Source)
}

// Program is a compiled program together with its uniform state.
// Uniform values persist across cache lookups, like GL program state.
type Program struct {
	key      ProgramKey
	id       gpucore.ProgramID
	uniforms gpucore.Uniforms
	released bool
}

// Key returns the cache key the program was compiled for.
func (p *Program) Key() ProgramKey { return p.key }

// ID returns the device program handle.
func (p *Program) ID() gpucore.ProgramID { return p.id }

// Uniforms returns the program's uniform block for direct modification.
func (p *Program) Uniforms() *gpucore.Uniforms { return &p.uniforms }

// SetKernel uploads weights into the weight table, zeroing the rest.
// Weights beyond gpucore.MaxWeights are dropped.
func (p *Program) SetKernel(k []float32) {
	n := copy(p.uniforms.Weights[:], k)
	clear(p.uniforms.Weights[n:])
}

// SetDirection sets the sampling step of one-dimensional passes.
func (p *Program) SetDirection(dx, dy float32) {
	p.uniforms.Direction = [2]float32{dx, dy}
}

// SetParam sets scalar parameter i (0..3).
func (p *Program) SetParam(i int, v float32) {
	if i >= 0 && i < len(p.uniforms.Params) {
		p.uniforms.Params[i] = v
	}
}

// SetParams sets the leading scalar parameters and zeroes the rest.
func (p *Program) SetParams(vs ...float32) {
	n := copy(p.uniforms.Params[:], vs)
	clear(p.uniforms.Params[n:])
}
