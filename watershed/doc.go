// Package watershed partitions an image into regions by flooding from
// seed markers.
//
// Segment runs on the CPU over an 8-bit raster, typically one read back
// from an imgproc.Engine:
//
//	raster, err := e.ReadPixels(image.Rectangle{})
//	if err != nil {
//		return err
//	}
//	res, err := watershed.Segment(raster, []watershed.Seed{
//		watershed.Point(40, 60),
//		watershed.Point(200, 120),
//	})
//
// Labels grow along paths of least color change, so region boundaries
// settle on the strongest discontinuities between seeds. The one-pixel
// frame of the image is reserved (Sentinel) and never labeled.
package watershed
