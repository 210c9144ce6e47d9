// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lightpaint

import (
	"math"

	"github.com/danjacques/golightpaint/pixel"

	"github.com/pkg/errors"
)

const (
	// BytesPerLED is the size of a single LED record in a Dither output buffer.
	BytesPerLED = 4

	// LEDHeader is the header byte that begins every LED record.
	LEDHeader = 0xFF

	// fracOne is 1.0 in the error accumulator's fixed-point representation.
	fracOne = 256
)

// Stats describes the power estimate and brightness scaling computed when a
// Painter was built.
type Stats struct {
	// EstimatedPeak is the estimated peak column current at the requested
	// brightness, in milliamps.
	EstimatedPeak float64
	// EstimatedAverage is the estimated average column current at the
	// requested brightness, in milliamps.
	EstimatedAverage float64

	// Scale is the factor applied to the requested maximum brightness to fit
	// the current budgets. It is never >1.
	Scale float64

	// RequestedMax is the requested per-channel maximum brightness.
	RequestedMax [3]uint8
	// EffectiveMax is the per-channel maximum brightness after scaling.
	EffectiveMax [3]uint8

	// ScaledPeak is the estimated peak column current at EffectiveMax.
	ScaledPeak float64
	// ScaledAverage is the estimated average column current at EffectiveMax.
	ScaledAverage float64
}

// Painter holds the lookup tables and dithering state for a single image.
//
// A Painter borrows its image buffer: the buffer must not be modified until
// the Painter is released.
type Painter struct {
	width  int
	height int
	order  pixel.Order
	vFlip  bool

	// pixels is the borrowed row-major RGB image.
	pixels []byte

	tables *Tables

	// errors is the dither error accumulator, one byte per output row and
	// channel, in units of 1/256.
	errors []uint8

	// lastX is the last position passed to Dither.
	lastX float64

	stats Stats
}

// New builds a Painter for a row-major RGB image of the specified dimensions.
//
// pixels is borrowed, not copied, and must be exactly width*height*3 bytes.
//
// On failure, New returns an error caused by ErrInvalidArgument or
// ErrResourceExhausted, and no Painter.
func New(pixels []byte, width, height int, cfg *Config) (*Painter, error) {
	if cfg == nil {
		return nil, invalidArgumentf("no configuration supplied")
	}
	if width <= 0 || height <= 0 {
		return nil, invalidArgumentf("invalid image dimensions %dx%d", width, height)
	}
	if expected := int64(width) * int64(height) * pixel.BytesPerPixel; int64(len(pixels)) != expected {
		return nil, invalidArgumentf("pixel buffer has %d bytes, %dx%d image needs %d",
			len(pixels), width, height, expected)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	errBuf, err := allocate(height * 3)
	if err != nil {
		return nil, err
	}

	// Estimate power at the requested brightness, then constrain it to our
	// budgets. Brightness is never increased.
	pm := cfg.power()
	est := estimatePower(pixels, width, height, cfg.Gamma, cfg.MaxBrightness, pm)
	scale := budgetScale(est, cfg.AverageCurrent, cfg.PeakCurrent)
	effective := scaleMax(cfg.MaxBrightness, scale)
	scaled := estimatePower(pixels, width, height, cfg.Gamma, effective, pm)

	var tables Tables
	for c := range tables {
		tables[c] = buildChannelTable(cfg.Gamma[c], effective[c])
	}

	return &Painter{
		width:  width,
		height: height,
		order:  cfg.order(),
		vFlip:  cfg.VerticalFlip,
		pixels: pixels,
		tables: &tables,
		errors: errBuf,
		stats: Stats{
			EstimatedPeak:    est.peak,
			EstimatedAverage: est.average,
			Scale:            scale,
			RequestedMax:     cfg.MaxBrightness,
			EffectiveMax:     effective,
			ScaledPeak:       scaled.peak,
			ScaledAverage:    scaled.average,
		},
	}, nil
}

// Width returns the width of the Painter's image, in pixels.
func (p *Painter) Width() int { return p.width }

// Height returns the height of the Painter's image, in pixels. This is also
// the number of LED records emitted by Dither.
func (p *Painter) Height() int { return p.height }

// Order returns the Painter's channel order.
func (p *Painter) Order() pixel.Order { return p.order }

// VerticalFlip returns true if the Painter emits the image bottom-up.
func (p *Painter) VerticalFlip() bool { return p.vFlip }

// Stats returns the power statistics computed when p was built.
func (p *Painter) Stats() Stats { return p.stats }

// Tables returns a copy of p's lookup tables.
//
// If p has been released, Tables returns zero tables.
func (p *Painter) Tables() (t Tables) {
	if p.tables != nil {
		t = *p.tables
	}
	return
}

// FrameSize returns the size of the buffer that Dither writes to.
func (p *Painter) FrameSize() int { return p.height * BytesPerLED }

// Reset clears the dithering state, as if a new pass were beginning.
func (p *Painter) Reset() {
	p.clearErrors()
	p.lastX = 0
}

// Release releases p's tables, dithering state, and its reference to the image
// buffer. After Release, Dither will fail.
func (p *Painter) Release() {
	p.pixels = nil
	p.tables = nil
	p.errors = nil
}

// Dither renders the image column at horizontal position x into leds, which
// must be exactly FrameSize bytes.
//
// x is a normalized position in [0, 1). Values below 0 are painted as 0, and
// values >= 1 are painted as the rightmost column. If x is less than the
// previous call's position, a new pass is assumed and the dithering state is
// cleared first.
func (p *Painter) Dither(leds []byte, x float64) error {
	if p.tables == nil {
		return errors.Wrap(ErrInvalidArgument, "painter has been released")
	}
	if len(leds) != p.FrameSize() {
		return invalidArgumentf("LED buffer has %d bytes, expected %d", len(leds), p.FrameSize())
	}
	if math.IsNaN(x) {
		return invalidArgumentf("position is not a number")
	}

	switch {
	case x < 0:
		x = 0
	case x > 1:
		x = 1
	}

	// Moving backwards starts a new pass; don't carry error across passes.
	if x < p.lastX {
		p.clearErrors()
	}
	p.lastX = x

	// Select the left and right columns and their weights (1-256). Neither
	// weight is ever 0.
	x *= float64(p.width - 1)
	lCol := int(x)
	rCol := lCol + 1
	if rCol >= p.width {
		rCol = p.width - 1
	}
	rWeight := 1 + int((x-float64(lCol))*256.0)
	if rWeight > 256 {
		rWeight = 256
	}
	lWeight := 257 - rWeight

	rowInc := p.width * 3
	left, right := lCol*3, rCol*3
	if p.vFlip {
		left += rowInc * (p.height - 1)
		right += rowInc * (p.height - 1)
		rowInc = -rowInc
	}

	for y := 0; y < p.height; y++ {
		led := leds[y*BytesPerLED : (y+1)*BytesPerLED]
		led[0] = LEDHeader

		errs := p.errors[y*3 : y*3+3]
		for c := range p.tables {
			t := &p.tables[c]

			n := (int(p.pixels[left+c])*lWeight + int(p.pixels[right+c])*rWeight) >> 8
			e := uint16(t.Fraction[n]) + uint16(errs[c])
			if e < fracOne {
				led[p.order[c]] = t.Low[n]
			} else {
				led[p.order[c]] = t.High[n]
				e -= fracOne
			}
			errs[c] = uint8(e)
		}

		left += rowInc
		right += rowInc
	}
	return nil
}

func (p *Painter) clearErrors() {
	for i := range p.errors {
		p.errors[i] = 0
	}
}
