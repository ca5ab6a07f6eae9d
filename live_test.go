package imgproc

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveLoopRuns(t *testing.T) {
	e, _ := newTestEngine(t)
	frame := uniformImage(4, 4, color.NRGBA{R: 100, A: 255})

	var applied atomic.Int32
	loop := NewLiveLoop(e, StaticFrame(frame), func(e *Engine) error {
		applied.Add(1)
		p, err := e.Program(offsetKey, offsetTemplate)
		if err != nil {
			return err
		}
		p.SetParam(0, 0.1)
		return e.Execute(p)
	})
	loop.Interval = 2 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, loop.Run(ctx))

	assert.Positive(t, loop.Ticks())
	assert.Equal(t, int32(loop.Ticks()), applied.Load())

	// Each tick reloads the frame, so one offset pass is presented.
	got, err := e.ReadFloat(image.Rect(0, 0, 1, 1))
	require.NoError(t, err)
	assert.InDelta(t, float32(100)/255+0.1, got.At(0, 0)[0], 1.0/255)
}

func TestLiveLoopSkipsOverlappingTicks(t *testing.T) {
	e, _ := newTestEngine(t)
	loop := NewLiveLoop(e, StaticFrame(gradientImage(2, 2)), func(*Engine) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	loop.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()
	require.NoError(t, loop.Run(ctx))

	assert.Positive(t, loop.Skipped())
	assert.Positive(t, loop.Ticks())
}

func TestLiveLoopStopsOnError(t *testing.T) {
	e, _ := newTestEngine(t)
	boom := errors.New("boom")
	loop := NewLiveLoop(e, StaticFrame(gradientImage(2, 2)), func(*Engine) error { return boom })
	loop.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := loop.Run(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, loop.Ticks())
}

func TestLiveLoopFrameError(t *testing.T) {
	e, _ := newTestEngine(t)
	src := FrameSourceFunc(func() (image.Image, error) { return nil, errors.New("camera gone") })
	loop := NewLiveLoop(e, src, nil)
	loop.Interval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorContains(t, loop.Run(ctx), "camera gone")
}

func TestLiveLoopSelect(t *testing.T) {
	e, _ := newTestEngine(t)
	var first, second atomic.Int32
	loop := NewLiveLoop(e, StaticFrame(gradientImage(2, 2)), func(*Engine) error {
		first.Add(1)
		return nil
	})
	loop.Interval = time.Millisecond
	loop.Present = func(*Engine) error {
		if first.Load() >= 3 {
			loop.Select(func(*Engine) error {
				second.Add(1)
				return nil
			})
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, loop.Run(ctx))
	assert.Equal(t, int32(3), first.Load())
	assert.Positive(t, second.Load())
}

func TestLiveLoopRequiresSource(t *testing.T) {
	assert.Error(t, (&LiveLoop{}).Run(context.Background()))
}
