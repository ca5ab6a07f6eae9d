package imgproc

import "errors"

// Engine errors. Program build failures are reported as
// *gpucore.CompileError and *gpucore.LinkError.
var (
	// ErrContextUnavailable is returned by New when no device could be
	// acquired. The engine is not created.
	ErrContextUnavailable = errors.New("imgproc: GPU context unavailable")

	// ErrNotLoaded is returned when reading back or executing before any
	// raster has been loaded.
	ErrNotLoaded = errors.New("imgproc: no raster loaded")

	// ErrInvalidSize is returned for non-positive raster dimensions.
	ErrInvalidSize = errors.New("imgproc: invalid raster size")

	// ErrInvalidRegion is returned when a readback region does not
	// intersect the raster.
	ErrInvalidRegion = errors.New("imgproc: readback region outside raster")

	// ErrInvalidParameter is returned for malformed operator input such as
	// a kernel whose length is not a square. Non-positive sizes and sigmas
	// are not errors: the operator is skipped.
	ErrInvalidParameter = errors.New("imgproc: invalid parameter")

	// ErrNilProgram is returned when executing a nil program.
	ErrNilProgram = errors.New("imgproc: nil program")

	// ErrProgramReleased is returned when executing a program that was
	// removed from its cache.
	ErrProgramReleased = errors.New("imgproc: program released")

	// ErrBusy is returned when an engine operation starts while another
	// one is still running on the same engine.
	ErrBusy = errors.New("imgproc: engine busy")

	// ErrClosed is returned when using an engine after Close.
	ErrClosed = errors.New("imgproc: engine closed")
)
