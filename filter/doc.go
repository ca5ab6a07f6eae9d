// Package filter provides the image operators that run on an imgproc.Engine.
//
// Every operator is a plain function taking the engine and its parameters.
// It fetches its program from the engine's program cache under a
// structured key, sets the program's uniforms and executes one or more
// passes in a fixed order:
//   - Color conversions: Grey, RGBToYCbCr, YCbCrToRGB, SkinMask, RGBToXYZ,
//     RGBToHSL, ColorMap
//   - Smoothing: Gauss, Conv1D, Conv2D, Mean, Blur, SymmetricNN
//   - Morphology: Erosion, Dilation
//   - Features: Sobel, Scharr, NMS, HarrisCorners, LBP, HoughCircle
//   - Geometry: LogPolar
//
// Separable operators run a row pass followed by a column pass.
// Convolution kernels are normalized before upload. A non-positive size
// or sigma makes an operator a no-op.
//
// Histogram and Watershed read the current result back, which blocks
// until all queued passes have completed.
//
// Operators are also available by name through a Registry, used by the
// command line tool to parse operator chains.
package filter
