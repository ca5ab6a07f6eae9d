package gpucore

import "math"

// Vec4 is an RGBA value in shader space.
type Vec4 [4]float32

// Add returns v + o.
func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v[0] + o[0], v[1] + o[1], v[2] + o[2], v[3] + o[3]}
}

// Sub returns v - o.
func (v Vec4) Sub(o Vec4) Vec4 {
	return Vec4{v[0] - o[0], v[1] - o[1], v[2] - o[2], v[3] - o[3]}
}

// Scale returns v * s.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Min returns the component-wise minimum.
func (v Vec4) Min(o Vec4) Vec4 {
	return Vec4{min(v[0], o[0]), min(v[1], o[1]), min(v[2], o[2]), min(v[3], o[3])}
}

// Max returns the component-wise maximum.
func (v Vec4) Max(o Vec4) Vec4 {
	return Vec4{max(v[0], o[0]), max(v[1], o[1]), max(v[2], o[2]), max(v[3], o[3])}
}

// Dot3 returns the dot product of the color channels.
func (v Vec4) Dot3(o Vec4) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Len3 returns the Euclidean length of the color channels.
func (v Vec4) Len3() float32 {
	return float32(math.Sqrt(float64(v.Dot3(v))))
}

// Grey returns an opaque grey value.
func Grey(l float32) Vec4 {
	return Vec4{l, l, l, 1}
}

// Sampler reads an RGBA float texture with clamp-to-edge addressing and
// nearest filtering, the sampling mode every program assumes.
type Sampler struct {
	Width  int
	Height int
	Pix    []float32
}

// Texel returns the texel at (x, y), clamping coordinates to the edge.
func (s *Sampler) Texel(x, y int) Vec4 {
	x = min(max(x, 0), s.Width-1)
	y = min(max(y, 0), s.Height-1)
	i := (y*s.Width + x) * 4
	p := s.Pix[i : i+4 : i+4]
	return Vec4{p[0], p[1], p[2], p[3]}
}

// Tap returns the texel nearest to the point offset by (dx, dy) from the
// centre of pixel (x, y).
func (s *Sampler) Tap(x, y int, dx, dy float32) Vec4 {
	return s.Texel(nearest(float32(x)+dx), nearest(float32(y)+dy))
}

// TapUV returns the texel at normalized coordinates (u, v) in [0,1].
func (s *Sampler) TapUV(u, v float32) Vec4 {
	return s.Texel(floorInt(u*float32(s.Width)), floorInt(v*float32(s.Height)))
}

func nearest(f float32) int {
	return floorInt(f + 0.5)
}

func floorInt(f float32) int {
	return int(math.Floor(float64(f)))
}
