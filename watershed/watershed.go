package watershed

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/imgproc"
)

// Label identifies a region. Zero marks an unvisited pixel and Sentinel
// marks the one-pixel frame around the image.
type Label uint16

// Sentinel is the label of border pixels. Flooding never crosses it.
const Sentinel Label = 255

// labelStep spaces default labels so that regions stay distinguishable
// when labels are viewed as grey levels.
const labelStep = 80

// Segmentation errors.
var (
	// ErrEmptyRaster is returned for a nil or zero-sized raster.
	ErrEmptyRaster = errors.New("watershed: empty raster")

	// ErrNoSeeds is returned when no seed has a usable interior point.
	ErrNoSeeds = errors.New("watershed: no seeds")

	// ErrSeedOutOfBounds is returned when a seed point lies outside the
	// raster.
	ErrSeedOutOfBounds = errors.New("watershed: seed outside raster")

	// ErrInvalidLabel is returned for a reserved or duplicate seed label.
	ErrInvalidLabel = errors.New("watershed: invalid seed label")
)

// Seed is a marker: a set of pixels that start with the same label.
// A zero Label selects the default (i+1)*80 for the i-th seed.
type Seed struct {
	Points []image.Point
	Label  Label
}

// Point returns a single-pixel seed with the default label.
func Point(x, y int) Seed {
	return Seed{Points: []image.Point{{X: x, Y: y}}}
}

// Result is the label map produced by Segment.
type Result struct {
	Width, Height int

	// Labels holds one label per pixel, row major. Border pixels hold
	// Sentinel.
	Labels []Label

	// Boundary is the number of pixels marked as region boundary.
	Boundary int
}

// LabelAt returns the label at (x, y), Sentinel outside the image.
func (r *Result) LabelAt(x, y int) Label {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return Sentinel
	}
	return r.Labels[y*r.Width+x]
}

// Count returns the number of pixels carrying label l.
func (r *Result) Count(l Label) int {
	n := 0
	for _, v := range r.Labels {
		if v == l {
			n++
		}
	}
	return n
}

// Segment floods r from seeds (Meyer's algorithm). Starting from the seed
// pixels, each labeled pixel hands its label to every unlabeled
// 4-neighbour, which is queued with the color distance between the two as
// priority; the queue always expands the smallest distance next, and
// equal distances in arrival order.
//
// When flooding completes, interior pixels whose label differs from a
// non-border neighbour are painted with the highlight color in place.
func Segment(r *imgproc.Raster, seeds []Seed, opts ...Option) (*Result, error) {
	if r.Empty() {
		return nil, ErrEmptyRaster
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = imgproc.Logger()
	}

	w, h := r.Width(), r.Height()
	labels := make([]Label, w*h)
	for x := range w {
		labels[x] = Sentinel
		labels[(h-1)*w+x] = Sentinel
	}
	for y := range h {
		labels[y*w] = Sentinel
		labels[y*w+w-1] = Sentinel
	}

	start, err := seedLabels(seeds, w, h)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	s := segmenter{raster: r, labels: labels, metric: o.metric, width: w}
	usable := 0
	for i, seed := range seeds {
		l := start[i]
		placed := false
		for _, p := range seed.Points {
			pos := p.Y*w + p.X
			if labels[pos] == Sentinel {
				continue
			}
			labels[pos] = l
			placed = true
		}
		if placed {
			usable++
		}
	}
	if usable == 0 {
		return nil, ErrNoSeeds
	}
	// Expand seeds only after all of them are placed so that one seed
	// cannot claim another's pixels.
	for _, seed := range seeds {
		for _, p := range seed.Points {
			pos := p.Y*w + p.X
			if labels[pos] != Sentinel {
				s.expand(pos)
			}
		}
	}
	for s.queue.Len() > 0 {
		s.expand(s.queue.pop())
	}

	res := &Result{Width: w, Height: h, Labels: labels}
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			if !s.boundary(y*w + x) {
				continue
			}
			res.Boundary++
			if o.paint {
				r.SetNRGBA(x, y, o.highlight)
			}
		}
	}

	log.Debug("watershed: segmented",
		"width", w, "height", h,
		"seeds", usable, "boundary", res.Boundary,
		"elapsed", time.Since(began))
	return res, nil
}

// seedLabels validates seeds and resolves their labels.
func seedLabels(seeds []Seed, w, h int) ([]Label, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	out := make([]Label, len(seeds))
	seen := make(map[Label]int, len(seeds))
	for i, seed := range seeds {
		for _, p := range seed.Points {
			if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h {
				return nil, fmt.Errorf("%w: seed %d point %v in %dx%d", ErrSeedOutOfBounds, i, p, w, h)
			}
		}
		l := seed.Label
		if l == 0 {
			if (i+1)*labelStep > int(^Label(0)) {
				return nil, fmt.Errorf("%w: too many seeds for default labels", ErrInvalidLabel)
			}
			l = Label((i + 1) * labelStep)
		}
		if l == Sentinel {
			return nil, fmt.Errorf("%w: seed %d uses reserved label %d", ErrInvalidLabel, i, l)
		}
		if j, dup := seen[l]; dup {
			return nil, fmt.Errorf("%w: seeds %d and %d share label %d", ErrInvalidLabel, j, i, l)
		}
		seen[l] = i
		out[i] = l
	}
	return out, nil
}

type segmenter struct {
	raster *imgproc.Raster
	labels []Label
	metric Metric
	width  int
	queue  floodQueue
}

// expand gives the label at pos to its unlabeled 4-neighbours and queues
// them. The border guarantees every neighbour index is in range.
func (s *segmenter) expand(pos int) {
	l := s.labels[pos]
	c := s.at(pos)
	for _, n := range [4]int{pos - s.width, pos - 1, pos + 1, pos + s.width} {
		if s.labels[n] != 0 {
			continue
		}
		s.labels[n] = l
		s.queue.push(n, s.metric.Distance(c, s.at(n)))
	}
}

func (s *segmenter) boundary(pos int) bool {
	l := s.labels[pos]
	for _, n := range [4]int{pos - s.width, pos - 1, pos + 1, pos + s.width} {
		if v := s.labels[n]; v != Sentinel && v != l {
			return true
		}
	}
	return false
}

func (s *segmenter) at(pos int) color.NRGBA {
	return s.raster.NRGBAAt(pos%s.width, pos/s.width)
}
