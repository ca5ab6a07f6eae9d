package gpucore

import "image"

// Device is the pipeline-facing view of a GPU (or an emulation of one).
//
// The model follows a classic GL state machine: a program, an input texture
// and an output framebuffer are bound, then DrawFullscreen runs the program
// once per output pixel. Devices may queue work and execute it later; only
// ReadPixels is required to wait for all previously issued draws to finish.
//
// A Device is owned by one engine and is not safe for concurrent use.
type Device interface {
	// Name returns the backend identifier (e.g. "software", "native").
	Name() string

	// Caps reports the device capabilities.
	Caps() Caps

	// NewTexture allocates a width x height texture.
	NewTexture(width, height int, format TextureFormat) (TextureID, error)

	// DestroyTexture releases a texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// NewFramebuffer creates a render target that writes into tex.
	NewFramebuffer(tex TextureID) (FramebufferID, error)

	// DestroyFramebuffer releases a framebuffer. The wrapped texture is kept.
	DestroyFramebuffer(id FramebufferID)

	// Upload replaces the contents of tex with 8-bit RGBA pixels laid out
	// row by row without padding.
	Upload(tex TextureID, pix []uint8) error

	// CompileProgram builds a program. Failures are reported as
	// *CompileError or *LinkError.
	CompileProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a program. Unknown IDs are ignored.
	DestroyProgram(id ProgramID)

	// BindProgram makes id the current program.
	BindProgram(id ProgramID)

	// BindTexture makes id the texture sampled by the current program.
	BindTexture(id TextureID)

	// BindFramebuffer makes id the output of subsequent draws.
	BindFramebuffer(id FramebufferID)

	// Viewport sets the size of the DefaultFramebuffer target.
	Viewport(width, height int)

	// DrawFullscreen runs the bound program over every pixel of the bound
	// framebuffer. Drawing into a framebuffer whose texture is also bound
	// for sampling fails with ErrFeedbackLoop.
	DrawFullscreen(u *Uniforms) error

	// DefaultTexture returns the texture behind DefaultFramebuffer, or
	// InvalidID if nothing has been drawn into it yet.
	DefaultTexture() TextureID

	// ReadPixels copies the region r of tex into dst as float RGBA values.
	// It blocks until every previously issued draw has completed.
	// len(dst) must be at least r.Dx()*r.Dy()*4.
	ReadPixels(tex TextureID, r image.Rectangle, dst []float32) error

	// Close releases all device resources.
	Close()
}
