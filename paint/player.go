// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package paint

import (
	"context"
	"io"
	"time"

	"github.com/danjacques/golightpaint/capture"
	"github.com/danjacques/golightpaint/lightpaint"
	"github.com/danjacques/golightpaint/pixel"
	"github.com/danjacques/golightpaint/strip"
	"github.com/danjacques/golightpaint/support/logging"

	"github.com/pkg/errors"
)

// PassStats describes a completed (or aborted) pass.
type PassStats struct {
	// Frames is the number of image frames written to the strip.
	Frames int64
	// Bytes is the number of bytes written to the strip, including the final
	// blanking frame.
	Bytes int64
	// Duration is the elapsed time of the pass.
	Duration time.Duration
}

// Player sends painted frames to a strip.
//
// A Player is not safe for concurrent use. Its exported fields must not be
// changed while a pass is in progress.
type Player struct {
	// Sink receives every frame. It must not be nil.
	Sink strip.Sink

	// Frame is the frame buffer used to assemble output. Its length must match
	// the height of painted images. It must not be nil.
	Frame *strip.Frame

	// Recorder, if not nil, records every painted frame.
	Recorder *capture.Writer

	// Logger is the logger instance to use. If nil, no logging will be
	// performed.
	Logger logging.L

	// FrameInterval, if > 0, is the minimum time between successive frames.
	// Otherwise, frames are written as fast as the Sink accepts them.
	FrameInterval time.Duration

	// NowFunc, if not nil, is used to obtain the current time. Otherwise,
	// time.Now is used.
	NowFunc func() time.Time
}

func (p *Player) now() time.Time {
	if p.NowFunc != nil {
		return p.NowFunc()
	}
	return time.Now()
}

// Paint runs a single pass of lp across the strip, following sw. When the pass
// ends, the strip is blanked.
//
// Paint returns when sw finishes, when c is cancelled, or when a frame cannot
// be written to the Sink. The returned PassStats is valid in all cases.
func (p *Player) Paint(c context.Context, lp *lightpaint.Painter, sw Sweep) (*PassStats, error) {
	if n := p.Frame.Len(); n != lp.Height() {
		return nil, errors.Errorf("frame has %d LEDs, image has %d rows", n, lp.Height())
	}
	logger := logging.Must(p.Logger)

	paintingGauge.Set(1)
	defer paintingGauge.Set(0)
	passCount.WithLabelValues("paint").Inc()
	publishStats(lp.Stats())

	var st PassStats
	defer p.blank(&st, logger)

	lp.Reset()
	start := p.now()
	for {
		select {
		case <-c.Done():
			return &st, c.Err()
		default:
		}

		elapsed := p.now().Sub(start)
		st.Duration = elapsed

		x, ok := sw.Position(elapsed)
		if !ok {
			break
		}

		if err := lp.Dither(p.Frame.Pixels(), x); err != nil {
			return &st, errors.Wrapf(err, "dithering position %f", x)
		}
		if err := p.write(&st); err != nil {
			return &st, err
		}
		st.Frames++

		if p.Recorder != nil {
			if err := p.Recorder.Record(elapsed, x, p.Frame.Pixels()); err != nil {
				logger.Warnf("Failed to record frame #%d: %s", st.Frames, err)
				recordErrors.Inc()
			}
		}

		if err := p.wait(c, start, elapsed); err != nil {
			return &st, err
		}
	}

	logger.Debugf("Painted %d frame(s) in %s.", st.Frames, st.Duration)
	return &st, nil
}

// Replay writes the frames recorded in r to the strip, each at its recorded
// offset. When the replay ends, the strip is blanked.
func (p *Player) Replay(c context.Context, r *capture.Reader) (*PassStats, error) {
	if md := r.Metadata(); md.Height != p.Frame.Len() {
		return nil, errors.Errorf("frame has %d LEDs, capture has %d", p.Frame.Len(), md.Height)
	}
	logger := logging.Must(p.Logger)

	paintingGauge.Set(1)
	defer paintingGauge.Set(0)
	passCount.WithLabelValues("replay").Inc()

	var st PassStats
	defer p.blank(&st, logger)

	pixels := p.Frame.Pixels()
	start := p.now()
	for {
		rec, err := r.Next()
		switch {
		case err == io.EOF:
			st.Duration = p.now().Sub(start)
			logger.Debugf("Replayed %d frame(s) in %s.", st.Frames, st.Duration)
			return &st, nil
		case err != nil:
			return &st, errors.Wrap(err, "reading recorded frame")
		case len(rec.Pixels) != len(pixels):
			return &st, errors.Errorf("recorded frame #%d has %d bytes, expected %d",
				st.Frames, len(rec.Pixels), len(pixels))
		}

		if err := sleepUntil(c, p.now, start.Add(rec.Offset)); err != nil {
			return &st, err
		}

		copy(pixels, rec.Pixels)
		if err := p.write(&st); err != nil {
			return &st, err
		}
		st.Frames++
		st.Duration = p.now().Sub(start)
	}
}

// Show fills the strip with a single color. A zero pixel.P turns the strip
// off.
func (p *Player) Show(color pixel.P, order pixel.Order) error {
	p.Frame.Fill(0, p.Frame.Len(), color, order)
	var st PassStats
	return p.write(&st)
}

// Progress lights the first fraction of the strip with color and turns the
// rest off.
func (p *Player) Progress(fraction float64, color pixel.P, order pixel.Order) error {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	lit := int(fraction*float64(p.Frame.Len()) + 0.5)

	p.Frame.Clear()
	p.Frame.Fill(0, lit, color, order)
	var st PassStats
	return p.write(&st)
}

// Segment lights segment i of the strip, divided into n equal segments, with
// color. The rest of the strip is turned off.
func (p *Player) Segment(i, n int, color pixel.P, order pixel.Order) error {
	p.Frame.Clear()
	if n > 0 {
		leds := p.Frame.Len()
		p.Frame.Fill(i*leds/n, (i+1)*leds/n, color, order)
	}
	var st PassStats
	return p.write(&st)
}

func (p *Player) write(st *PassStats) error {
	b := p.Frame.Bytes()
	if err := p.Sink.WriteFrame(b); err != nil {
		writeErrors.Inc()
		return errors.Wrap(err, "writing frame")
	}
	frameCount.Inc()
	sentBytes.Add(float64(len(b)))
	st.Bytes += int64(len(b))
	return nil
}

func (p *Player) blank(st *PassStats, logger logging.L) {
	p.Frame.Clear()
	if err := p.write(st); err != nil {
		logger.Warnf("Failed to blank strip: %s", err)
	}
}

// wait blocks until the next frame is due, if a FrameInterval is set.
func (p *Player) wait(c context.Context, start time.Time, elapsed time.Duration) error {
	if p.FrameInterval <= 0 {
		return nil
	}
	return sleepUntil(c, p.now, start.Add(elapsed+p.FrameInterval))
}

// sleepUntil blocks until now reports a time at or after t, or c is
// cancelled.
func sleepUntil(c context.Context, now func() time.Time, t time.Time) error {
	d := t.Sub(now())
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.Done():
		return c.Err()
	case <-timer.C:
		return nil
	}
}
