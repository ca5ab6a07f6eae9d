package imgproc

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultLiveInterval is the re-execution cadence of a LiveLoop.
const DefaultLiveInterval = 30 * time.Millisecond

// FrameSource produces the raster processed by one live tick.
type FrameSource interface {
	Frame() (image.Image, error)
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() (image.Image, error)

// Frame calls f.
func (f FrameSourceFunc) Frame() (image.Image, error) { return f() }

// StaticFrame returns a FrameSource that always yields img.
func StaticFrame(img image.Image) FrameSource {
	return FrameSourceFunc(func() (image.Image, error) { return img, nil })
}

// LiveLoop re-runs a filter chain over fresh frames at a fixed cadence.
//
// Each tick loads a frame, applies the selected chain and presents the
// result. Ticks never overlap: a tick that fires while the previous one
// is still running is skipped and counted. Loading every frame resets
// the engine's pass counter, so a chain swapped with Select starts from
// a clean parity on the next tick.
type LiveLoop struct {
	// Interval between ticks. Zero selects DefaultLiveInterval.
	Interval time.Duration

	// Present runs after the chain, typically Engine.Draw or a readback.
	// Nil presents with Draw(nil).
	Present func(*Engine) error

	engine *Engine
	source FrameSource
	apply  atomic.Pointer[func(*Engine) error]

	inflight atomic.Bool
	ticks    atomic.Uint64
	skipped  atomic.Uint64
}

// NewLiveLoop creates a loop feeding frames from src into e and running
// apply on each of them.
func NewLiveLoop(e *Engine, src FrameSource, apply func(*Engine) error) *LiveLoop {
	l := &LiveLoop{engine: e, source: src}
	l.Select(apply)
	return l
}

// Select replaces the chain run on subsequent ticks. A tick in flight
// finishes with the chain it started with.
func (l *LiveLoop) Select(apply func(*Engine) error) {
	if apply == nil {
		apply = func(*Engine) error { return nil }
	}
	l.apply.Store(&apply)
}

// Ticks returns the number of ticks that ran the chain.
func (l *LiveLoop) Ticks() uint64 { return l.ticks.Load() }

// Skipped returns the number of ticks dropped because the previous one
// was still running.
func (l *LiveLoop) Skipped() uint64 { return l.skipped.Load() }

// Run drives the loop until ctx is done or a tick fails. It returns nil
// on cancellation and the first tick error otherwise. Run waits for the
// tick in flight before returning.
func (l *LiveLoop) Run(ctx context.Context) error {
	if l.engine == nil || l.source == nil {
		return errors.New("imgproc: live loop needs an engine and a frame source")
	}
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultLiveInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	errc := make(chan error, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case <-ticker.C:
			if !l.inflight.CompareAndSwap(false, true) {
				l.skipped.Add(1)
				Logger().Warn("imgproc: live tick skipped", "interval", interval)
				continue
			}
			apply := *l.apply.Load()
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer l.inflight.Store(false)
				if err := l.tick(apply); err != nil {
					select {
					case errc <- err:
					default:
					}
				}
			}()
		}
	}
}

func (l *LiveLoop) tick(apply func(*Engine) error) error {
	img, err := l.source.Frame()
	if err != nil {
		return fmt.Errorf("imgproc: live frame: %w", err)
	}
	if err := l.engine.Load(img); err != nil {
		return err
	}
	if err := apply(l.engine); err != nil {
		return fmt.Errorf("imgproc: live chain: %w", err)
	}
	present := l.Present
	if present == nil {
		present = func(e *Engine) error { return e.Draw(nil) }
	}
	if err := present(l.engine); err != nil {
		return err
	}
	l.ticks.Add(1)
	return nil
}
