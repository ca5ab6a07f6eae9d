package imgproc

import "github.com/gogpu/imgproc/gpucore"

// Option configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Best available backend, float buffers when supported
//	e, err := imgproc.New()
//
//	// CPU reference device with 8-bit buffers
//	e, err := imgproc.New(imgproc.WithBackend("software"),
//	    imgproc.WithFormat(gpucore.TextureFormatRGBA8Unorm))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	device  gpucore.Device
	backend string
	format  gpucore.TextureFormat
	cache   *ProgramCache
}

// defaultOptions returns the default engine options.
func defaultOptions() options {
	return options{
		device:  nil, // Will be opened from the backend registry if nil
		backend: "",  // Highest priority registered backend
		format:  0,   // Float when the device supports it
	}
}

// WithDevice runs the engine on an existing device. The engine does not
// close a device it did not open.
func WithDevice(d gpucore.Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// WithBackend opens the named registered backend ("software", "native")
// instead of the default one. It is ignored when WithDevice is given.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithFormat selects the texture format of the pipeline buffers.
// RGBA8Unorm quantizes every intermediate result to 8 bits per channel;
// RGBA32Float requires device float texture support.
func WithFormat(f gpucore.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithProgramCache shares a caller-owned program cache between engines on
// the same device. The engine never purges a cache it did not create.
//
// Example:
//
//	dev, _ := backend.Open("software")
//	cache := imgproc.NewProgramCache(dev)
//	a, _ := imgproc.New(imgproc.WithDevice(dev), imgproc.WithProgramCache(cache))
//	b, _ := imgproc.New(imgproc.WithDevice(dev), imgproc.WithProgramCache(cache))
func WithProgramCache(c *ProgramCache) Option {
	return func(o *options) {
		o.cache = c
	}
}
