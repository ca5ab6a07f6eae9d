// Package gpucore defines the backend-neutral device contract used by the
// imgproc pipeline.
//
// A [Device] exposes a small GL-like surface: textures, framebuffers that
// wrap a texture, compiled programs and a full-screen draw that runs the
// bound program once per pixel of the bound framebuffer. The engine in the
// root package drives every filter through this interface, so the same
// filter chain runs unchanged on:
//   - backend/software (CPU reference, per-pixel Go fragment functions)
//   - backend/native (gogpu/wgpu HAL compute pipelines with WGSL programs)
//
// # Architecture
//
//	               +------------------+
//	               |  imgproc.Engine  |
//	               |  (ping-pong, FBO)|
//	               +--------+---------+
//	                        |
//	               +--------v---------+
//	               |  gpucore.Device  |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| software device |          |  native device  |
//	| (FragmentFunc)  |          |  (hal.Device)   |
//	+-----------------+          +-----------------+
//
// # Programs
//
// A [ProgramDesc] carries both representations of one operator: the WGSL
// body of a `shade` function for GPU backends and a [FragmentFunc] for the
// software backend. Both receive the same [Uniforms] block and sample the
// input with clamp-to-edge nearest filtering, see [Sampler].
//
// # Resource IDs
//
// Resources are referred to by opaque IDs. Each device maintains its own
// mapping between IDs and backend objects. The zero ID is never valid,
// except for [DefaultFramebuffer] which names the presentation target.
package gpucore
