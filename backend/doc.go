// Package backend provides the registry of pluggable devices.
//
// Devices register a factory from an init() function and are selected at
// runtime. Importing a device package is enough to make it available:
//
//	import _ "github.com/gogpu/imgproc/backend/software"
//	import _ "github.com/gogpu/imgproc/backend/native"
//
// The root imgproc package always imports the software device, so an
// engine can be created on machines without a usable GPU.
//
// # Backend Selection
//
// Use OpenDefault to get the best device that opens successfully, or Open
// to request a specific backend by name:
//
//	// Best available: native GPU first, then the CPU reference device
//	d, err := backend.OpenDefault()
//
//	// Or request a specific backend
//	d, err := backend.Open(backend.BackendSoftware)
//
// # Available Backends
//
//   - software: CPU reference device, always available
//   - native: gogpu/wgpu HAL compute device (requires a Vulkan adapter,
//     excluded with the nogpu build tag)
package backend
