package gpucore

// Resource IDs
//
// These opaque IDs represent device resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// TextureID is an opaque handle to a device texture.
type TextureID uint64

// FramebufferID is an opaque handle to a render target wrapping one texture.
type FramebufferID uint64

// ProgramID is an opaque handle to a compiled program.
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// DefaultFramebuffer names the presentation target of a device. Drawing into
// it renders into a device-owned texture sized by the last Viewport call,
// see Device.DefaultTexture.
const DefaultFramebuffer FramebufferID = 0

// TextureFormat specifies the storage format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	// Every pass output is quantized to 1/255 steps.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1

	// TextureFormatRGBA32Float is 32-bit RGBA, floating point. Values are
	// neither clamped nor quantized between passes.
	TextureFormatRGBA32Float
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8Unorm:
		return "rgba8unorm"
	case TextureFormatRGBA32Float:
		return "rgba32float"
	default:
		return "unknown"
	}
}

// BytesPerPixel returns the storage size of one texel.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8Unorm:
		return 4
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Valid reports whether f is a known format.
func (f TextureFormat) Valid() bool {
	return f == TextureFormatRGBA8Unorm || f == TextureFormatRGBA32Float
}

// Caps describes what a device supports.
type Caps struct {
	// FloatTextures reports whether TextureFormatRGBA32Float render targets
	// are available. Engines prefer float targets when they are.
	FloatTextures bool

	// MaxTextureSize is the largest supported width or height, 0 if unbounded.
	MaxTextureSize int
}
