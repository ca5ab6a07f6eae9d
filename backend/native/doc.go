// Package native provides a GPU device built on the pure Go wgpu HAL.
//
// Textures live in storage buffers holding one vec4<f32> per texel, so the
// device always supports float intermediates. Every program is compiled as
// a WGSL compute shader: a shared prelude declares the uniforms and the
// texel, tap, tap_uv and weight helpers, the program contributes its
// shade function, and an 8x8 workgroup entry point writes one texel per
// invocation. Shaders are validated and translated to SPIR-V with naga, so
// diagnostics are available before any pipeline is created.
//
// Draws are recorded into a single command encoder and submitted only when
// pixels are read back, uploaded or the device is closed.
//
// Importing the package registers backend "native". Builds with the nogpu
// tag leave the package empty and only the software device is available.
package native
