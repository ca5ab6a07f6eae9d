package filter

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/gogpu/imgproc"
)

// ErrUnknownFilter is returned when a registry has no filter of the
// requested name.
var ErrUnknownFilter = errors.New("filter: unknown filter")

// Kind is the type of a filter parameter.
type Kind int

const (
	// Scalar is a float parameter.
	Scalar Kind = iota
	// Int is an integer parameter; values are truncated.
	Int
	// Bool is a flag: any non-zero value is true.
	Bool
	// Array is a list of floats, written space or '|' separated.
	Array
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Array:
		return "array"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Param describes one filter parameter. Scalar and Int values are
// clamped to [Min, Max] when Max > Min.
type Param struct {
	Name    string
	Kind    Kind
	Min     float64
	Max     float64
	Default float64
}

func (p Param) clamp(v float64) float64 {
	if p.Max > p.Min {
		v = min(max(v, p.Min), p.Max)
	}
	if p.Kind == Int {
		v = float64(int(v))
	}
	return v
}

// Values holds parsed parameter values by name. Scalars are stored as
// one-element slices.
type Values map[string][]float64

// Scalar returns the first value of name, 0 if absent.
func (v Values) Scalar(name string) float64 {
	if s := v[name]; len(s) > 0 {
		return s[0]
	}
	return 0
}

// Int returns the value of name truncated to an int.
func (v Values) Int(name string) int { return int(v.Scalar(name)) }

// Bool reports whether the value of name is non-zero.
func (v Values) Bool(name string) bool { return v.Scalar(name) != 0 }

// Array returns the values of name as float32.
func (v Values) Array(name string) []float32 {
	s := v[name]
	out := make([]float32, len(s))
	for i, f := range s {
		out[i] = float32(f)
	}
	return out
}

// Descriptor describes a filter selectable by name.
type Descriptor struct {
	Name    string
	Summary string
	Params  []Param
	Run     func(e *imgproc.Engine, v Values) error
}

// Registry maps filter names to descriptors. Names are matched
// case-insensitively. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]Descriptor
	fold  cases.Caser
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]Descriptor),
		fold:  cases.Fold(),
	}
}

// DefaultRegistry returns a new registry holding every operator of the
// package.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtins {
		if err := r.Register(d); err != nil {
			panic(err) // builtins are unique
		}
	}
	return r
}

func (r *Registry) key(name string) string {
	// Caser is stateful; callers hold mu.
	return r.fold.String(strings.TrimSpace(name))
}

// Register adds d. It fails if d has no name or Run function, or if its
// name is already taken.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" || d.Run == nil {
		return fmt.Errorf("filter: register %q: missing name or run function", d.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(d.Name)
	if old, ok := r.byKey[k]; ok {
		return fmt.Errorf("filter: register %q: name taken by %q", d.Name, old.Name)
	}
	r.byKey[k] = d
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byKey[r.key(name)]
	return d, ok
}

// Names returns the registered filter names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byKey))
	for _, k := range slices.Sorted(maps.Keys(r.byKey)) {
		names = append(names, r.byKey[k].Name)
	}
	return names
}

// Apply runs the filter called name on e. Parameters missing from v take
// their defaults and scalars are clamped.
func (r *Registry) Apply(e *imgproc.Engine, name string, v Values) error {
	d, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return d.Run(e, d.resolve(v))
}

// resolve fills defaults and clamps values.
func (d Descriptor) resolve(v Values) Values {
	out := make(Values, len(d.Params))
	for _, p := range d.Params {
		s, ok := v[p.Name]
		switch {
		case p.Kind == Array:
			out[p.Name] = slices.Clone(s)
		case !ok || len(s) == 0:
			out[p.Name] = []float64{p.Default}
		default:
			out[p.Name] = []float64{p.clamp(s[0])}
		}
	}
	return out
}

// ParseValues parses "k=v,k=v" parameter text for d. A value without a
// key is assigned to the next parameter in order, so "gauss:2" sets the
// first parameter of gauss. Array elements are separated by spaces or
// '|'; booleans accept anything strconv.ParseBool does. Unset parameters
// take their defaults.
func ParseValues(d Descriptor, text string) (Values, error) {
	v := make(Values, len(d.Params))
	next := 0
	for field := range strings.SplitSeq(text, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		name, raw, keyed := strings.Cut(field, "=")
		var p Param
		if keyed {
			i := slices.IndexFunc(d.Params, func(q Param) bool { return strings.EqualFold(q.Name, strings.TrimSpace(name)) })
			if i < 0 {
				return nil, fmt.Errorf("%w: %s has no parameter %q", imgproc.ErrInvalidParameter, d.Name, name)
			}
			p, next = d.Params[i], i+1
		} else {
			if next >= len(d.Params) {
				return nil, fmt.Errorf("%w: %s takes %d parameters", imgproc.ErrInvalidParameter, d.Name, len(d.Params))
			}
			p, raw = d.Params[next], name
			next++
		}
		vals, err := parseParam(p, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", imgproc.ErrInvalidParameter, d.Name, p.Name, err)
		}
		v[p.Name] = vals
	}
	return d.resolve(v), nil
}

func parseParam(p Param, raw string) ([]float64, error) {
	switch p.Kind {
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		if b {
			return []float64{1}, nil
		}
		return []float64{0}, nil
	case Array:
		parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == '|' })
		out := make([]float64, len(parts))
		for i, s := range parts {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, err
		}
		return []float64{f}, nil
	}
}

var (
	sigmaParam = Param{Name: "sigma", Kind: Scalar, Min: 0, Max: 20, Default: 1}
	sizeParam  = Param{Name: "size", Kind: Int, Min: 0, Max: 63, Default: 3}
)

func noParams(f func(*imgproc.Engine) error) func(*imgproc.Engine, Values) error {
	return func(e *imgproc.Engine, _ Values) error { return f(e) }
}

func sized(f func(*imgproc.Engine, int) error) func(*imgproc.Engine, Values) error {
	return func(e *imgproc.Engine, v Values) error { return f(e, v.Int("size")) }
}

// morphSized treats 0 as DefaultMorphSize.
func morphSized(f func(*imgproc.Engine, int) error) func(*imgproc.Engine, Values) error {
	return func(e *imgproc.Engine, v Values) error {
		size := v.Int("size")
		if size == 0 {
			size = DefaultMorphSize
		}
		return f(e, size)
	}
}

func sigma(f func(*imgproc.Engine, float64) error) func(*imgproc.Engine, Values) error {
	return func(e *imgproc.Engine, v Values) error { return f(e, v.Scalar("sigma")) }
}

var builtins = []Descriptor{
	{Name: "grey", Summary: "luma grey conversion", Run: noParams(Grey)},
	{Name: "ycbcr", Summary: "RGB to YCbCr (BT.601)", Run: noParams(RGBToYCbCr)},
	{Name: "ycbcr-rgb", Summary: "YCbCr to RGB (BT.601)", Run: noParams(YCbCrToRGB)},
	{Name: "skin", Summary: "YCbCr skin color mask", Run: noParams(SkinMask)},
	{Name: "xyz", Summary: "sRGB to CIE XYZ", Run: noParams(RGBToXYZ)},
	{Name: "hsl", Summary: "RGB to HSL", Run: noParams(RGBToHSL)},
	{
		Name:    "colormap",
		Summary: "map red levels through a lookup table",
		Params:  []Param{{Name: "table", Kind: Array}},
		Run: func(e *imgproc.Engine, v Values) error {
			src := v["table"]
			table := make([]uint8, len(src))
			for i, f := range src {
				table[i] = uint8(min(max(f, 0), 255))
			}
			return ColorMap(e, table)
		},
	},
	{Name: "gauss", Summary: "separable gaussian blur", Params: []Param{sigmaParam}, Run: sigma(Gauss)},
	{Name: "blur", Summary: "repeated 3x3 mean approximating a gaussian", Params: []Param{sigmaParam}, Run: sigma(Blur)},
	{Name: "mean", Summary: "separable box filter", Params: []Param{sizeParam}, Run: sized(Mean)},
	{
		Name:    "conv1d",
		Summary: "separable convolution with a normalized 1D kernel",
		Params: []Param{
			{Name: "kernel", Kind: Array},
			{Name: "type", Kind: Int, Min: 1, Max: 3, Default: float64(ConvAll)},
		},
		Run: func(e *imgproc.Engine, v Values) error {
			return Conv1D(e, v.Array("kernel"), ConvType(v.Int("type")))
		},
	},
	{
		Name:    "conv2d",
		Summary: "convolution with a normalized square kernel",
		Params:  []Param{{Name: "kernel", Kind: Array}},
		Run: func(e *imgproc.Engine, v Values) error {
			return Conv2D(e, v.Array("kernel"))
		},
	},
	{Name: "erosion", Summary: "morphological erosion", Params: []Param{sizeParam}, Run: morphSized(Erosion)},
	{Name: "dilation", Summary: "morphological dilation", Params: []Param{sizeParam}, Run: morphSized(Dilation)},
	{Name: "opening", Summary: "erosion then dilation", Params: []Param{sizeParam}, Run: morphSized(Opening)},
	{Name: "closing", Summary: "dilation then erosion", Params: []Param{sizeParam}, Run: morphSized(Closing)},
	{Name: "sobel", Summary: "Sobel gradient with edge thinning", Run: noParams(Sobel)},
	{Name: "scharr", Summary: "Scharr gradient with edge thinning", Run: noParams(Scharr)},
	{Name: "nms", Summary: "non-maximum suppression", Params: []Param{sizeParam}, Run: sized(NMS)},
	{Name: "harris", Summary: "Harris-Noble corner response", Run: noParams(HarrisCorners)},
	{Name: "lbp", Summary: "local binary patterns", Run: noParams(LBP)},
	{
		Name:    "snn",
		Summary: "symmetric nearest neighbour smoothing",
		Params: []Param{
			sizeParam,
			{Name: "count", Kind: Int, Min: 0, Max: 50, Default: 1},
		},
		Run: func(e *imgproc.Engine, v Values) error {
			return SymmetricNN(e, v.Int("size"), v.Int("count"))
		},
	},
	{
		Name:    "hough",
		Summary: "circle accumulator for one radius",
		Params:  []Param{{Name: "radius", Kind: Scalar, Min: 0, Max: 512, Default: 10}},
		Run: func(e *imgproc.Engine, v Values) error {
			return HoughCircle(e, v.Scalar("radius"))
		},
	},
	{Name: "logpolar", Summary: "log-polar resampling about the centre", Run: noParams(LogPolar)},
	{Name: "equalize", Summary: "grey histogram equalization", Run: noParams(EqualizeImage)},
}
