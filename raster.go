package imgproc

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/imgproc/gpucore"
)

// Raster is an 8-bit RGBA pixel buffer with non-premultiplied alpha,
// rows stored top to bottom without padding.
//
// Raster implements draw.Image, so it can be loaded into an Engine and
// used as a Draw surface.
type Raster struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewRaster creates a new raster with the given dimensions.
func NewRaster(width, height int) *Raster {
	width, height = max(width, 0), max(height, 0)
	return &Raster{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// RasterFromPix wraps existing RGBA data. It returns nil when len(pix)
// does not equal width*height*4.
func RasterFromPix(width, height int, pix []uint8) *Raster {
	if width < 0 || height < 0 || len(pix) != width*height*4 {
		return nil
	}
	return &Raster{width: width, height: height, data: pix}
}

// RasterFromImage converts img into a Raster. A *Raster is returned as is;
// *image.NRGBA data is copied row by row; anything else goes through the
// NRGBA color model.
func RasterFromImage(img image.Image) *Raster {
	if r, ok := img.(*Raster); ok {
		return r
	}
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	if src, ok := img.(*image.NRGBA); ok {
		n := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(r.data[y*n:(y+1)*n], src.Pix[off:off+n])
		}
		return r
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			r.SetNRGBA(x, y, c)
		}
	}
	return r
}

// Width returns the width of the raster.
func (r *Raster) Width() int { return r.width }

// Height returns the height of the raster.
func (r *Raster) Height() int { return r.height }

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool { return r == nil || r.width == 0 || r.height == 0 }

// Data returns the raw pixel data (RGBA format).
func (r *Raster) Data() []uint8 { return r.data }

// PixOffset returns the index of the first byte of pixel (x, y).
func (r *Raster) PixOffset(x, y int) int { return (y*r.width + x) * 4 }

// SetNRGBA sets the color of a single pixel. Out of range coordinates are ignored.
func (r *Raster) SetNRGBA(x, y int, c color.NRGBA) {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return
	}
	i := r.PixOffset(x, y)
	r.data[i+0] = c.R
	r.data[i+1] = c.G
	r.data[i+2] = c.B
	r.data[i+3] = c.A
}

// NRGBAAt returns the color of a single pixel, transparent black outside
// the raster.
func (r *Raster) NRGBAAt(x, y int) color.NRGBA {
	if x < 0 || x >= r.width || y < 0 || y >= r.height {
		return color.NRGBA{}
	}
	i := r.PixOffset(x, y)
	return color.NRGBA{R: r.data[i+0], G: r.data[i+1], B: r.data[i+2], A: r.data[i+3]}
}

// Clear fills the entire raster with a color.
func (r *Raster) Clear(c color.NRGBA) {
	for i := 0; i < len(r.data); i += 4 {
		r.data[i+0] = c.R
		r.data[i+1] = c.G
		r.data[i+2] = c.B
		r.data[i+3] = c.A
	}
}

// Fill paints the rectangle rect (clipped to the raster) with c.
func (r *Raster) Fill(rect image.Rectangle, c color.NRGBA) {
	rect = rect.Intersect(r.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r.SetNRGBA(x, y, c)
		}
	}
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	c := NewRaster(r.width, r.height)
	copy(c.data, r.data)
	return c
}

// ToImage converts the raster to an *image.NRGBA sharing no memory.
func (r *Raster) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, r.width, r.height))
	copy(img.Pix, r.data)
	return img
}

// At implements the image.Image interface.
func (r *Raster) At(x, y int) color.Color {
	return r.NRGBAAt(x, y)
}

// Set implements the draw.Image interface.
func (r *Raster) Set(x, y int, c color.Color) {
	r.SetNRGBA(x, y, color.NRGBAModel.Convert(c).(color.NRGBA))
}

// Bounds implements the image.Image interface.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.width, r.height)
}

// ColorModel implements the image.Image interface.
func (r *Raster) ColorModel() color.Model {
	return color.NRGBAModel
}

var _ draw.Image = (*Raster)(nil)

// FloatRaster is a read-back buffer holding unclamped float RGBA values,
// as produced by float pipelines (gradients, Harris response, ...).
type FloatRaster struct {
	Width  int
	Height int
	Pix    []float32
}

// At returns the value at (x, y). Coordinates must be in range.
func (f *FloatRaster) At(x, y int) gpucore.Vec4 {
	i := (y*f.Width + x) * 4
	return gpucore.Vec4{f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3]}
}

// ToRaster clamps to [0,1] and quantizes to 8 bits.
func (f *FloatRaster) ToRaster() *Raster {
	r := NewRaster(f.Width, f.Height)
	for i, v := range f.Pix {
		r.data[i] = to8(v)
	}
	return r
}

func to8(v float32) uint8 {
	v = min(max(v, 0), 1)
	return uint8(math.Round(float64(v) * 255))
}
