package gpucore

import (
	"encoding/binary"
	"math"
)

// MaxWeights is the capacity of the weight table in Uniforms. It covers a
// 15x15 two-dimensional kernel and a 256-entry lookup table.
const MaxWeights = 256

// UniformsSize is the size in bytes of the packed uniform block, see
// Uniforms.AppendBytes.
const UniformsSize = 8 + 8 + 16 + MaxWeights*4

// Uniforms is the parameter block shared by every program.
//
// The packed GPU layout mirrors the WGSL struct
//
//	struct Params {
//	    size: vec2<f32>,
//	    direction: vec2<f32>,
//	    params: vec4<f32>,
//	    kernel: array<vec4<f32>, 64>,
//	}
type Uniforms struct {
	// Size is the raster size in pixels. The engine sets it before each pass.
	Size [2]float32

	// Direction is the sampling step of one-dimensional passes,
	// (1,0) for rows and (0,1) for columns.
	Direction [2]float32

	// Params holds operator specific scalars (radius, pass selector, ...).
	Params [4]float32

	// Weights holds kernel weights or a lookup table.
	Weights [MaxWeights]float32
}

// Weight returns weight i, or 0 when i is out of range.
func (u *Uniforms) Weight(i int) float32 {
	if i < 0 || i >= MaxWeights {
		return 0
	}
	return u.Weights[i]
}

// AppendBytes appends the little-endian packed form of u to b.
func (u *Uniforms) AppendBytes(b []byte) []byte {
	b = appendFloats(b, u.Size[:])
	b = appendFloats(b, u.Direction[:])
	b = appendFloats(b, u.Params[:])
	return appendFloats(b, u.Weights[:])
}

func appendFloats(b []byte, fs []float32) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	return b
}

// FragmentFunc computes one output pixel at (x, y) from the sampled input.
// It is the software representation of a program.
type FragmentFunc func(s *Sampler, x, y int, u *Uniforms) Vec4

// ProgramDesc describes a program to compile.
type ProgramDesc struct {
	// Label identifies the program in diagnostics and logs.
	Label string

	// Source is the WGSL text defining
	//
	//	fn shade(p: vec2<i32>) -> vec4<f32>
	//
	// with every specialization placeholder already substituted.
	Source string

	// Fragment is the entry point used by CPU devices. A program without a
	// fragment cannot be linked on such devices.
	Fragment FragmentFunc
}
