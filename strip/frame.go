// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package strip contains DotStar (APA102) strip framing and frame sinks.
package strip

import (
	"github.com/danjacques/golightpaint/lightpaint"
	"github.com/danjacques/golightpaint/pixel"
)

// startFrameSize is the number of zero bytes that begin a DotStar frame.
const startFrameSize = 4

// Frame is a complete DotStar SPI frame for a strip of LEDs.
//
// The frame consists of a 4-byte start frame (zeroes), one 4-byte record per
// LED (0xFF header, then three color bytes), and an end frame of 0xFF bytes,
// one byte for every 16 LEDs. The end frame supplies the extra clock edges
// needed to shift data through the whole strip.
type Frame struct {
	buf []byte
	n   int
}

// NewFrame allocates a Frame for n LEDs. Every LED starts off.
func NewFrame(n int) *Frame {
	f := Frame{
		buf: make([]byte, startFrameSize+n*lightpaint.BytesPerLED+endFrameSize(n)),
		n:   n,
	}
	for i := startFrameSize + n*lightpaint.BytesPerLED; i < len(f.buf); i++ {
		f.buf[i] = 0xFF
	}
	f.Clear()
	return &f
}

func endFrameSize(n int) int { return (n + 15) / 16 }

// Len returns the number of LEDs in the Frame.
func (f *Frame) Len() int { return f.n }

// Bytes returns the full frame, ready to be written to the strip.
func (f *Frame) Bytes() []byte { return f.buf }

// Pixels returns the LED record section of the frame. It is suitable for use
// as a lightpaint.Painter Dither buffer.
func (f *Frame) Pixels() []byte {
	return f.buf[startFrameSize : startFrameSize+f.n*lightpaint.BytesPerLED]
}

// Clear turns off every LED.
func (f *Frame) Clear() {
	leds := f.Pixels()
	for i := 0; i < len(leds); i += lightpaint.BytesPerLED {
		leds[i] = lightpaint.LEDHeader
		leds[i+1], leds[i+2], leds[i+3] = 0, 0, 0
	}
}

// SetPixel sets LED i to p, laying out its channels according to order.
//
// If i is out of bounds, SetPixel will do nothing.
func (f *Frame) SetPixel(i int, p pixel.P, order pixel.Order) {
	if i < 0 || i >= f.n {
		return
	}
	led := f.Pixels()[i*lightpaint.BytesPerLED:]
	led[0] = lightpaint.LEDHeader
	for c := 0; c < 3; c++ {
		led[order.Offset(c)] = p.Channel(c)
	}
}

// Fill sets LEDs in [start, end) to p.
func (f *Frame) Fill(start, end int, p pixel.P, order pixel.Order) {
	for i := start; i < end; i++ {
		f.SetPixel(i, p, order)
	}
}

// Pixel returns the value of LED i, reading its channels according to order.
func (f *Frame) Pixel(i int, order pixel.Order) (p pixel.P) {
	if i < 0 || i >= f.n {
		return
	}
	led := f.Pixels()[i*lightpaint.BytesPerLED:]
	p.Red, p.Green, p.Blue = led[order.Offset(0)], led[order.Offset(1)], led[order.Offset(2)]
	return
}
