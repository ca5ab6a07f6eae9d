// Package kernel builds and normalizes the convolution kernels used by the
// filter operators.
//
// All functions are pure. Kernels are []float32 because they are uploaded
// as-is into a program's weight table.
package kernel

import "math"

// Odd rounds n up to the next odd number. Values below 1 are returned as is.
func Odd(n int) int {
	if n < 1 {
		return n
	}
	return n | 1
}

// GaussianSize returns the kernel length that covers three standard
// deviations on either side: 2 * ceil(3σ) + 1.
//
// For sigma <= 0, returns 1.
func GaussianSize(sigma float64) int {
	if sigma <= 0 {
		return 1
	}
	halfSize := int(math.Ceil(sigma * 3))
	return halfSize*2 + 1
}

// Gaussian generates a normalized 1D Gaussian kernel of the given length.
// Even lengths are rounded up to odd so the kernel has a centre tap.
//
// For sigma <= 0 or size <= 0, returns the identity kernel [1].
func Gaussian(sigma float64, size int) []float32 {
	if sigma <= 0 || size <= 0 {
		return []float32{1}
	}
	size = Odd(size)
	half := size / 2

	kernel := make([]float32, size)
	twoSigmaSq := 2 * sigma * sigma
	for i := range kernel {
		x := float64(i - half)
		kernel[i] = float32(math.Exp(-(x * x) / twoSigmaSq))
	}
	return normalizeInPlace(kernel)
}

// Box generates a normalized box (uniform) kernel. Even sizes are rounded
// up to odd.
//
// For size <= 0, returns the identity kernel [1].
func Box(size int) []float32 {
	if size <= 0 {
		return []float32{1}
	}
	size = Odd(size)
	kernel := make([]float32, size)
	val := float32(1) / float32(size)
	for i := range kernel {
		kernel[i] = val
	}
	return kernel
}

// Normalize returns a copy of k scaled so its weights sum to 1.
// A kernel summing to zero (edge detectors, Laplacians) is returned
// unscaled, the sum being treated as 1.
func Normalize(k []float32) []float32 {
	out := make([]float32, len(k))
	copy(out, k)
	return normalizeInPlace(out)
}

func normalizeInPlace(k []float32) []float32 {
	sum := Sum(k)
	if sum == 0 {
		sum = 1
	}
	inv := 1 / sum
	for i, v := range k {
		k[i] = float32(float64(v) * inv)
	}
	return k
}

// Outer returns the row-major outer product k ⊗ k, the 2D kernel that a
// row pass followed by a column pass with k is equivalent to.
func Outer(k []float32) []float32 {
	n := len(k)
	out := make([]float32, n*n)
	for y, wy := range k {
		for x, wx := range k {
			out[y*n+x] = wy * wx
		}
	}
	return out
}

// Sum returns the sum of the weights.
func Sum(k []float32) float64 {
	var sum float64
	for _, v := range k {
		sum += float64(v)
	}
	return sum
}
