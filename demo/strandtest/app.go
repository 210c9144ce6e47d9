// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package strandtest defines the logic for the "strandtest" demo app.
//
// This app chases a short run of lit LEDs along a DotStar strip, cycling
// through red, green, and blue. It is useful for verifying wiring, the LED
// count, and the strip's color channel order before painting.
package strandtest

import (
	"log"
	"os"
	"time"

	"github.com/danjacques/golightpaint/pixel"
	"github.com/danjacques/golightpaint/strip"
	"github.com/danjacques/golightpaint/support/network"

	"github.com/spf13/pflag"
)

var (
	leds   = pflag.Int("leds", 30, "Number of LEDs in the strip.")
	length = pflag.Int("length", 10, "Number of LEDs lit at once.")
	fps    = pflag.Int("fps", 50, "Frames per second.")
	device = pflag.String("device", "", "Path to the SPI device file driving the strip.")
	udp    = pflag.String("udp", "", "Address (host:port) of a UDP strip bridge.")
	order  = pixel.OrderFlag(pixel.DefaultOrder)
)

func init() {
	pflag.Var(&order, "order", "Strip color channel order (e.g., \"brg\").")
}

// Main is the main entry point.
func Main() {
	pflag.Parse()

	if *fps <= 0 {
		log.Fatalf("Invalid FPS: %d", *fps)
	}
	frameInterval := time.Second / time.Duration(*fps)

	var sink strip.Sink
	switch {
	case *device != "":
		fd, err := os.OpenFile(*device, os.O_WRONLY, 0)
		if err != nil {
			log.Fatalf("Couldn't open strip device: %s", err)
		}
		sink = strip.WriterSink(fd)

	case *udp != "":
		uo := network.UDPOptions{Address: *udp}
		ds, err := uo.DatagramSender()
		if err != nil {
			log.Fatalf("Couldn't connect to strip bridge: %s", err)
		}
		sink = strip.DatagramSink(ds)

	default:
		log.Fatalf("One of --device or --udp is required.")
	}
	defer sink.Close()

	log.Printf("Chasing %d LED(s) along a %d LED strip (order %s).", *length, *leds, order.Value())

	f := strip.NewFrame(*leds)
	c := chaser{length: *length}
	for {
		c.Next(f, order.Value())
		if err := sink.WriteFrame(f.Bytes()); err != nil {
			log.Printf("Couldn't write frame: %s", err)
			return
		}

		time.Sleep(frameInterval)
	}
}

// chaserColors are cycled through, one per trip along the strip.
var chaserColors = []pixel.P{
	{Red: 0xFF},
	{Green: 0xFF},
	{Blue: 0xFF},
}

// chaser lights a run of length LEDs that advances one LED per frame. The
// tail of the run trails the head, so at the start of each trip the end of the
// previous color is still leaving the strip.
type chaser struct {
	length int

	head  int
	tail  int
	color int

	started bool
}

// Next advances the chase by one LED, updating f.
func (c *chaser) Next(f *strip.Frame, order pixel.Order) {
	if !c.started {
		c.tail = -c.length
		c.started = true
	}

	f.SetPixel(c.head, chaserColors[c.color], order)
	if c.tail >= 0 {
		f.SetPixel(c.tail, pixel.P{}, order)
	}

	c.head++
	if c.head >= f.Len() {
		c.head = 0
		c.color = (c.color + 1) % len(chaserColors)
	}

	c.tail++
	if c.tail >= f.Len() {
		c.tail = 0
	}
}
