package filter

import (
	"image"

	"github.com/gogpu/imgproc"
)

// Bins is the number of histogram bins per channel.
const Bins = 256

// Histograms holds one histogram per color channel (r, g, b).
type Histograms [3][Bins]uint32

// Histogram counts the current result's r, g and b values in region r
// (the zero rectangle selects the whole raster). Values are binned by
// rounding v*255 and clamped to [0, 255].
//
// Histogram reads back from the device and therefore waits for every
// queued pass to complete.
func Histogram(e *imgproc.Engine, r image.Rectangle) (*Histograms, error) {
	f, err := e.ReadFloat(r)
	if err != nil {
		return nil, err
	}
	h := new(Histograms)
	for i := 0; i < len(f.Pix); i += 4 {
		for ch := range 3 {
			bin := min(max(int(f.Pix[i+ch]*255+0.5), 0), Bins-1)
			h[ch][bin]++
		}
	}
	return h, nil
}

// Total returns the number of samples in channel ch.
func (h *Histograms) Total(ch int) uint64 {
	var n uint64
	for _, c := range h[ch] {
		n += uint64(c)
	}
	return n
}

// Equalize returns the CDF equalization lookup table of a histogram.
// Empty leading bins map to 0 and the first occupied bin to 0; the last
// occupied bin maps to 255. A histogram with a single occupied bin (or
// none) yields an all-zero table.
func Equalize(h [Bins]uint32) [Bins]uint8 {
	var cdf [Bins]uint64
	var sum, lo uint64
	for i, c := range h {
		sum += uint64(c)
		if lo == 0 {
			lo = sum
		}
		cdf[i] = sum
	}

	var lut [Bins]uint8
	if sum == lo {
		return lut
	}
	span := float64(sum - lo)
	for i, c := range cdf {
		if c > 0 {
			lut[i] = uint8(255 * float64(c-lo) / span)
		}
	}
	return lut
}

// NormalizeHistogram scales bin counts linearly so the smallest becomes
// 0 and the largest 255. A flat histogram maps to all zeros.
func NormalizeHistogram(h [Bins]uint32) [Bins]uint8 {
	lo, hi := h[0], h[0]
	for _, c := range h {
		lo = min(lo, c)
		hi = max(hi, c)
	}
	span := float64(hi - lo)
	if span == 0 {
		span = 1
	}
	var out [Bins]uint8
	for i, c := range h {
		out[i] = uint8(255 * float64(c-lo) / span)
	}
	return out
}

// EqualizeImage equalizes the grey levels of the current result: it
// converts to grey, reads the histogram back and maps the grey levels
// through the equalization table.
func EqualizeImage(e *imgproc.Engine) error {
	if err := Grey(e); err != nil {
		return err
	}
	h, err := Histogram(e, image.Rectangle{})
	if err != nil {
		return err
	}
	lut := Equalize(h[0])
	return ColorMap(e, lut[:])
}
