package watershed

import (
	"image/color"
	"log/slog"
)

// DefaultHighlight is the color painted on region boundaries.
var DefaultHighlight = color.NRGBA{R: 0, G: 255, B: 255, A: 255}

// Option configures Segment.
type Option func(*options)

type options struct {
	metric    Metric
	highlight color.NRGBA
	paint     bool
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{
		metric:    RedMean,
		highlight: DefaultHighlight,
		paint:     true,
		logger:    nil, // imgproc.Logger() at call time
	}
}

// WithMetric selects the color difference used as flooding priority.
// The default is RedMean.
func WithMetric(m Metric) Option {
	return func(o *options) {
		if m != nil {
			o.metric = m
		}
	}
}

// WithHighlight sets the color painted on region boundaries.
func WithHighlight(c color.NRGBA) Option {
	return func(o *options) {
		o.highlight = c
	}
}

// WithoutPaint leaves the raster untouched; boundaries are still counted
// in the result.
func WithoutPaint() Option {
	return func(o *options) {
		o.paint = false
	}
}

// WithLogger sets the logger for segmentation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
