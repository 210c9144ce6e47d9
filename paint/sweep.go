// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package paint

import (
	"math"
	"sync/atomic"
	"time"
)

// Sweep maps the time elapsed in a pass to a horizontal image position.
type Sweep interface {
	// Position returns the normalized position, in [0, 1], for the time
	// elapsed since the pass started. If ok is false, the pass is finished.
	Position(elapsed time.Duration) (x float64, ok bool)
}

// TimedSweep moves across the image at a constant rate, finishing after
// Duration.
type TimedSweep struct {
	Duration time.Duration
}

var _ Sweep = TimedSweep{}

// Position implements Sweep.
func (ts TimedSweep) Position(elapsed time.Duration) (float64, bool) {
	if ts.Duration <= 0 || elapsed > ts.Duration {
		return 0, false
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return float64(elapsed) / float64(ts.Duration), true
}

// EncoderSweep follows a relative position encoder, such as a wheel or a
// mouse rolled along the ground. Movement in either direction advances the
// sweep, and the pass finishes once the position passes the end of the image.
//
// Add may be called concurrently with Position.
type EncoderSweep struct {
	// Scale is the image fraction covered by a single encoder count.
	Scale float64

	count int64
}

var _ Sweep = (*EncoderSweep)(nil)

// Add accumulates delta encoder counts.
func (es *EncoderSweep) Add(delta int64) { atomic.AddInt64(&es.count, delta) }

// Reset returns the sweep to the start of the image.
func (es *EncoderSweep) Reset() { atomic.StoreInt64(&es.count, 0) }

// Position implements Sweep. Elapsed time is ignored.
func (es *EncoderSweep) Position(time.Duration) (float64, bool) {
	count := atomic.LoadInt64(&es.count)
	if count < 0 {
		count = -count
	}
	x := float64(count) * es.Scale
	if x > 1 || math.IsNaN(x) {
		return 0, false
	}
	return x, true
}

const (
	// MinDuration is the shortest pass duration selectable with Speed.
	MinDuration = 100 * time.Millisecond
	// MaxDuration is the longest pass duration selectable with Speed.
	MaxDuration = 10 * time.Second
)

// Speed selects a pass speed from a discrete set of steps, typically one per
// LED so that the selection can be shown on the strip itself.
type Speed struct {
	// Steps is the number of selectable speeds.
	Steps int
	// Step is the selected speed, in [0, Steps).
	Step int
}

// SpeedFor returns the Speed over steps steps closest to duration d.
func SpeedFor(steps int, d time.Duration) Speed {
	s := Speed{Steps: steps}
	if steps > 0 {
		s.Step = int(float64(steps) * float64(d-MinDuration) / float64(MaxDuration-MinDuration))
	}
	s.clamp()
	return s
}

func (s *Speed) clamp() {
	if s.Step >= s.Steps {
		s.Step = s.Steps - 1
	}
	if s.Step < 0 {
		s.Step = 0
	}
}

// Duration returns the pass duration for the selected step.
func (s Speed) Duration() time.Duration {
	if s.Steps <= 1 {
		return MinDuration
	}
	span := float64(MaxDuration - MinDuration)
	return MinDuration + time.Duration(span*float64(s.Step)/float64(s.Steps-1))
}

// EncoderScale returns an EncoderSweep scale for the selected step. Slower
// steps need more encoder travel to cover the image.
func (s Speed) EncoderScale() float64 { return 0.01 / float64(s.Step+1) }

// Shorter selects the next shorter duration. It returns false if the shortest
// duration is already selected.
func (s *Speed) Shorter() bool {
	if s.Step <= 0 {
		return false
	}
	s.Step--
	return true
}

// Longer selects the next longer duration. It returns false if the longest
// duration is already selected.
func (s *Speed) Longer() bool {
	if s.Step >= s.Steps-1 {
		return false
	}
	s.Step++
	return true
}
