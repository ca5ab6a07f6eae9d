// Package imgproc runs image filter chains on a GPU-style pipeline.
//
// # Overview
//
// An Engine holds one loaded raster and two ping-pong render targets.
// Operators from the filter package run one or more full-screen passes
// over the current result, each pass reading the latest output and
// writing the other target. Programs are compiled once per operator
// specialization and memoized in a ProgramCache.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/imgproc"
//	    "github.com/gogpu/imgproc/filter"
//	)
//
//	e, err := imgproc.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	_ = e.Load(img)
//	_ = filter.Gauss(e, 1.5)
//	_ = filter.Sobel(e)
//	out, err := e.ReadPixels(image.Rectangle{})
//
// # Backends
//
// Devices implement gpucore.Device. The software backend is a CPU
// reference device and is always registered. The native backend runs
// WGSL compute shaders through gogpu/wgpu; importing backend/native
// registers it (unless built with the nogpu tag) and New then prefers it
// when an adapter is present.
//
// # Synchronization
//
// Execute and Draw only issue work. ReadPixels, ReadFloat and Draw with a
// destination image block until every issued pass has completed. An
// Engine is used from one goroutine at a time; LiveLoop re-runs a chain
// on a fixed cadence without overlapping itself.
//
// # Architecture
//
// The module is organized into:
//   - imgproc: Engine, ProgramCache, Raster, LiveLoop
//   - gpucore: device contract, uniforms, sampler, program errors
//   - backend: device registry, software and native devices
//   - kernel: Gaussian and box kernel math
//   - filter: operators, histogram helpers, operator registry
//   - watershed: seeded Meyer flooding segmentation
package imgproc

// Version information
const (
	// Version is the current version of the library
	Version = "0.3.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 3

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = ""
)
