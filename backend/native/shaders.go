//go:build !nogpu

package native

import (
	"encoding/binary"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/imgproc/gpucore"
)

// entryPoint is the compute entry of every program.
const entryPoint = "main"

// workgroupSize is the edge of the square compute workgroup.
const workgroupSize = 8

// targetSize is the size in bytes of the per-draw Target uniform.
const targetSize = 32

// prelude declares the resources and sampling helpers shared by every
// program. Textures are storage buffers of vec4<f32> texels; sampling
// clamps to the edge and picks the nearest texel.
const prelude = `struct Params {
    size: vec2<f32>,
    direction: vec2<f32>,
    params: vec4<f32>,
    kernel: array<vec4<f32>, 64>,
}

struct Target {
    src: vec2<u32>,
    dst: vec2<u32>,
    flags: vec4<u32>,
}

@group(0) @binding(0) var<uniform> u: Params;
@group(0) @binding(1) var<uniform> t: Target;
@group(0) @binding(2) var<storage, read> src: array<vec4<f32>>;
@group(0) @binding(3) var<storage, read_write> dst: array<vec4<f32>>;

const PI: f32 = 3.14159265358979;

fn texel(q: vec2<i32>) -> vec4<f32> {
    let c = clamp(q, vec2<i32>(0, 0), vec2<i32>(t.src) - vec2<i32>(1, 1));
    return src[u32(c.y) * t.src.x + u32(c.x)];
}

fn tap(p: vec2<i32>, d: vec2<f32>) -> vec4<f32> {
    return texel(vec2<i32>(floor(vec2<f32>(p) + d + vec2<f32>(0.5, 0.5))));
}

fn tap_uv(uv: vec2<f32>) -> vec4<f32> {
    return texel(vec2<i32>(floor(uv * vec2<f32>(t.src))));
}

fn weight(i: i32) -> f32 {
    if (i < 0 || i >= 256) {
        return 0.0;
    }
    return u.kernel[i / 4][i % 4];
}
`

// entry runs shade once per target pixel. flags.x selects 8-bit
// quantization of the written value.
const entry = `
@compute @workgroup_size(8, 8)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    if (id.x >= t.dst.x || id.y >= t.dst.y) {
        return;
    }
    var v = shade(vec2<i32>(id.xy));
    if (t.flags.x != 0u) {
        v = round(clamp(v, vec4<f32>(0.0), vec4<f32>(1.0)) * 255.0) / 255.0;
    }
    dst[id.y * t.dst.x + id.x] = v;
}
`

// composeShader wraps a program's shade function into a complete compute
// module.
func composeShader(source string) string {
	var b strings.Builder
	b.Grow(len(prelude) + len(source) + len(entry) + 1)
	b.WriteString(prelude)
	b.WriteString(source)
	b.WriteByte('\n')
	b.WriteString(entry)
	return b.String()
}

// compileSPIRV validates the composed WGSL with naga and returns the
// SPIR-V words. Diagnostics end up in a *gpucore.CompileError.
func compileSPIRV(label, source string) ([]uint32, error) {
	code, err := naga.Compile(composeShader(source))
	if err != nil {
		return nil, &gpucore.CompileError{Label: label, Log: err.Error(), Err: err}
	}
	if len(code)%4 != 0 {
		return nil, &gpucore.CompileError{Label: label, Log: "truncated SPIR-V output"}
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	return words, nil
}

// targetBytes packs the Target uniform.
func targetBytes(srcW, srcH, dstW, dstH int, quantize bool) []byte {
	var q uint32
	if quantize {
		q = 1
	}
	b := make([]byte, 0, targetSize)
	for _, v := range [8]uint32{uint32(srcW), uint32(srcH), uint32(dstW), uint32(dstH), q, 0, 0, 0} { //nolint:gosec // sizes are bounded by Caps
		b = binary.LittleEndian.AppendUint32(b, v)
	}
	return b
}

// groups returns the workgroup count covering n pixels.
func groups(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize) //nolint:gosec // n is a texture dimension
}
