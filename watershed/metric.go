package watershed

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Metric measures the color difference between two neighbouring pixels.
// Flooding spreads labels across small differences first.
type Metric interface {
	Distance(a, b color.NRGBA) float64
}

// MetricFunc adapts a function to Metric.
type MetricFunc func(a, b color.NRGBA) float64

// Distance calls f.
func (f MetricFunc) Distance(a, b color.NRGBA) float64 { return f(a, b) }

// RedMean is the "redmean" low-cost approximation of perceived color
// difference, computed on 8-bit channels with integer arithmetic:
//
//	sqrt(((512+r̄)·Δr² >> 8) + 4·Δg² + ((767-r̄)·Δb² >> 8)),  r̄ = (r1+r2) >> 1
var RedMean Metric = MetricFunc(redMean)

func redMean(a, b color.NRGBA) float64 {
	rmean := (int(a.R) + int(b.R)) >> 1
	r := int(a.R) - int(b.R)
	g := int(a.G) - int(b.G)
	bl := int(a.B) - int(b.B)
	return math.Sqrt(float64((((512 + rmean) * r * r) >> 8) + 4*g*g + (((767 - rmean) * bl * bl) >> 8)))
}

// Euclidean is the plain distance between 8-bit RGB triples.
var Euclidean Metric = MetricFunc(func(a, b color.NRGBA) float64 {
	r := float64(a.R) - float64(b.R)
	g := float64(a.G) - float64(b.G)
	bl := float64(a.B) - float64(b.B)
	return math.Sqrt(r*r + g*g + bl*bl)
})

// Lab is the CIE76 distance in L*a*b* space (D65), treating the input
// as sRGB.
var Lab Metric = MetricFunc(func(a, b color.NRGBA) float64 {
	return toColorful(a).DistanceLab(toColorful(b))
})

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
