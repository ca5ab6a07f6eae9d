package filter

import (
	"image"

	"github.com/gogpu/imgproc"
	"github.com/gogpu/imgproc/watershed"
)

// Watershed segments the current result from seeds and loads the
// annotated image back as the new source, so later operators see the
// region boundaries. The label map is returned.
//
// Watershed reads back from the device and therefore waits for every
// queued pass to complete.
func Watershed(e *imgproc.Engine, seeds []watershed.Seed, opts ...watershed.Option) (*watershed.Result, error) {
	r, err := e.ReadPixels(image.Rectangle{})
	if err != nil {
		return nil, err
	}
	res, err := watershed.Segment(r, seeds, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Load(r); err != nil {
		return nil, err
	}
	return res, nil
}
