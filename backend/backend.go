package backend

import (
	"errors"

	"github.com/gogpu/imgproc/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU reference device.
	BackendSoftware = "software"
	// BackendNative is the name of the Pure Go GPU device (gogpu/wgpu HAL).
	BackendNative = "native"
)

// Factory opens a new device. Factories must return an error rather than a
// half-initialized device when the backend cannot be acquired (no adapter,
// missing driver).
type Factory func() (gpucore.Device, error)
