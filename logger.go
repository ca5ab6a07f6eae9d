package imgproc

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/imgproc/gpucore"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// devices tracks devices of live engines so SetLogger reaches them.
var (
	devicesMu sync.Mutex
	devices   = map[gpucore.Device]int{}
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for imgproc and all its sub-packages.
// By default, imgproc produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by imgproc:
//   - [slog.LevelDebug]: program compilation, buffer allocation, pass submission
//   - [slog.LevelInfo]: engine and device lifecycle (adapter selected)
//   - [slog.LevelWarn]: program build failures, skipped live ticks, release errors
//
// Example:
//
//	imgproc.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	devicesMu.Lock()
	defer devicesMu.Unlock()
	for d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by imgproc.
// Sub-packages (filter, watershed, cmd) call this to share the same
// logger configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements the
// loggerSetter interface.
func propagateLogger(d gpucore.Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// trackDevice registers d for logger propagation and hands it the
// current logger.
func trackDevice(d gpucore.Device) {
	devicesMu.Lock()
	devices[d]++
	devicesMu.Unlock()
	propagateLogger(d, Logger())
}

func untrackDevice(d gpucore.Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devices[d] <= 1 {
		delete(devices, d)
		return
	}
	devices[d]--
}
