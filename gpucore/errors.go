package gpucore

import (
	"errors"
	"fmt"
)

// Device errors.
var (
	// ErrFeedbackLoop is returned when a draw would sample the texture it writes.
	ErrFeedbackLoop = errors.New("gpucore: framebuffer texture is bound for sampling")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrNoProgram is returned when drawing without a bound program.
	ErrNoProgram = errors.New("gpucore: no program bound")

	// ErrSizeMismatch is returned when pixel data does not match a texture.
	ErrSizeMismatch = errors.New("gpucore: pixel data size mismatch")

	// ErrUnsupportedFormat is returned for texture formats a device cannot store.
	ErrUnsupportedFormat = errors.New("gpucore: unsupported texture format")

	// ErrDeviceClosed is returned when using a device after Close.
	ErrDeviceClosed = errors.New("gpucore: device closed")
)

// CompileError reports a program whose source failed to compile.
// Log holds the backend diagnostic text.
type CompileError struct {
	Label string
	Log   string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("gpucore: compile %s: %s", e.Label, e.Log)
}

func (e *CompileError) Unwrap() error { return e.Err }

// LinkError reports a program that compiled but could not be turned into
// an executable pipeline.
type LinkError struct {
	Label string
	Log   string
	Err   error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("gpucore: link %s: %s", e.Label, e.Log)
}

func (e *LinkError) Unwrap() error { return e.Err }
