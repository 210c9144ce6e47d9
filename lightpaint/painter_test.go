// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lightpaint

import (
	"math"

	"github.com/danjacques/golightpaint/pixel"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Painter", func() {
	// 2x2, row-major: (255,0,0) (0,255,0) / (0,0,255) (255,255,0)
	var twoByTwo []byte
	BeforeEach(func() {
		twoByTwo = []byte{
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 255, 255, 0,
		}
	})

	Context("construction", func() {
		It("rejects a missing configuration", func() {
			_, err := New(twoByTwo, 2, 2, nil)
			Expect(IsInvalidArgument(err)).To(BeTrue())
		})

		It("rejects bad dimensions", func() {
			cfg := linearConfig()
			_, err := New(twoByTwo, 0, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())

			_, err = New(twoByTwo, 2, -1, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())
		})

		It("rejects a mismatched pixel buffer", func() {
			cfg := linearConfig()
			_, err := New(twoByTwo[:11], 2, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())

			_, err = New(twoByTwo, 3, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())
		})

		It("rejects non-positive gamma", func() {
			for _, g := range []float64{0, -1, math.NaN(), math.Inf(1)} {
				cfg := linearConfig()
				cfg.Gamma[1] = g
				_, err := New(twoByTwo, 2, 2, &cfg)
				Expect(IsInvalidArgument(err)).To(BeTrue(), "gamma %v", g)
			}
		})

		It("rejects non-positive current budgets", func() {
			cfg := linearConfig()
			cfg.AverageCurrent = 0
			_, err := New(twoByTwo, 2, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())

			cfg = linearConfig()
			cfg.PeakCurrent = -5
			_, err = New(twoByTwo, 2, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())
		})

		It("rejects invalid channel positions and power models", func() {
			cfg := linearConfig()
			cfg.Order = pixel.Order{1, 2, 4}
			_, err := New(twoByTwo, 2, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())

			cfg = linearConfig()
			cfg.Power = PowerModel{Idle: -1}
			_, err = New(twoByTwo, 2, 2, &cfg)
			Expect(IsInvalidArgument(err)).To(BeTrue())
		})

		It("uses defaults for a zero order and power model", func() {
			cfg := linearConfig()
			cfg.Order = pixel.Order{}
			p, err := New(twoByTwo, 2, 2, &cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Order()).To(Equal(pixel.DefaultOrder))
			Expect(p.Stats().EstimatedPeak).To(BeNumerically("~", 2*1.25+9.90+12.95+9.90, 1e-9))
		})

		It("reports allocation failure as resource exhaustion", func() {
			_, err := allocate(-1)
			Expect(IsResourceExhausted(err)).To(BeTrue())
		})

		It("has a working default configuration", func() {
			cfg := DefaultConfig()
			p, err := New(twoByTwo, 2, 2, &cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Width()).To(Equal(2))
			Expect(p.Height()).To(Equal(2))
			Expect(p.FrameSize()).To(Equal(8))
			Expect(p.Stats().Scale).To(Equal(1.0))
			Expect(p.Stats().EffectiveMax).To(Equal([3]uint8{128, 255, 180}))
		})
	})

	Context("power budgeting", func() {
		It("halves brightness to meet the peak budget", func() {
			// Column 0 draws 14.2mA (red + idle), column 1 draws 1.25mA.
			pixels := []byte{255, 0, 0, 0, 0, 0}
			cfg := linearConfig()
			cfg.PeakCurrent = 7.1

			p, err := New(pixels, 2, 1, &cfg)
			Expect(err).ToNot(HaveOccurred())

			st := p.Stats()
			Expect(st.EstimatedPeak).To(BeNumerically("~", 14.2, 1e-9))
			Expect(st.EstimatedAverage).To(BeNumerically("~", 7.725, 1e-9))
			Expect(st.Scale).To(BeNumerically("~", 0.5, 1e-9))
			Expect(st.RequestedMax).To(Equal([3]uint8{255, 255, 255}))
			Expect(st.EffectiveMax).To(Equal([3]uint8{128, 128, 128}))
			Expect(p.Tables()[0].Low[255]).To(Equal(uint8(128)))
		})

		It("keeps scaled current within budget", func() {
			cfg := DefaultConfig()
			cfg.MaxBrightness = [3]uint8{255, 255, 255}
			cfg.AverageCurrent = 100
			cfg.PeakCurrent = 200
			cfg.Power.Idle = 0

			const height = 8
			pixels := uniformImage(4, height, pixel.P{Red: 255, Green: 200, Blue: 255})
			p, err := New(pixels, 4, height, &cfg)
			Expect(err).ToNot(HaveOccurred())

			// One brightness unit per channel, per LED.
			tolerance := 0.0
			for _, mA := range cfg.Power.Channel {
				tolerance += float64(height) * mA / 255.0
			}

			st := p.Stats()
			Expect(st.Scale).To(BeNumerically("<", 1.0))
			Expect(st.ScaledPeak).To(BeNumerically("<=", cfg.PeakCurrent+tolerance))
			Expect(st.ScaledAverage).To(BeNumerically("<=", cfg.AverageCurrent+tolerance))
			Expect(st.ScaledAverage).To(BeNumerically("<", st.EstimatedAverage))
		})

		It("does not scale idle current", func() {
			cfg := DefaultConfig()
			cfg.MaxBrightness = [3]uint8{255, 255, 255}
			cfg.AverageCurrent = 100
			cfg.PeakCurrent = 200

			const height = 8
			pixels := uniformImage(4, height, pixel.P{Red: 255, Green: 200, Blue: 255})
			p, err := New(pixels, 4, height, &cfg)
			Expect(err).ToNot(HaveOccurred())

			tolerance := 0.0
			for _, mA := range cfg.Power.Channel {
				tolerance += float64(height) * mA / 255.0
			}
			idle := float64(height) * cfg.Power.Idle

			st := p.Stats()
			Expect(st.Scale).To(BeNumerically("~", 0.4518, 1e-4))
			Expect(st.EffectiveMax).To(Equal([3]uint8{115, 115, 115}))

			// The idle share stays at full draw, so the scaled estimate lands above
			// the budget, but never by more than the idle current of one column.
			Expect(st.ScaledAverage).To(BeNumerically(">", cfg.AverageCurrent))
			Expect(st.ScaledAverage).To(BeNumerically("<=", cfg.AverageCurrent+idle+tolerance))
			Expect(st.ScaledPeak).To(BeNumerically("<=", cfg.PeakCurrent+idle+tolerance))
		})
	})

	Context("dithering a linear 2x2 image", func() {
		var p *Painter
		var leds []byte
		BeforeEach(func() {
			cfg := linearConfig()
			var err error
			p, err = New(twoByTwo, 2, 2, &cfg)
			Expect(err).ToNot(HaveOccurred())
			leds = make([]byte, p.FrameSize())
		})

		It("paints the left column at x=0", func() {
			Expect(p.Dither(leds, 0)).To(Succeed())
			Expect(leds).To(Equal([]byte{
				0xFF, 255, 0, 0,
				0xFF, 0, 0, 255,
			}))
		})

		It("paints the right column at the end of the image", func() {
			Expect(p.Dither(leds, 0.999999)).To(Succeed())
			Expect(leds).To(Equal([]byte{
				0xFF, 0, 255, 0,
				0xFF, 255, 255, 0,
			}))
		})

		It("blends columns in between", func() {
			Expect(p.Dither(leds, 0.5)).To(Succeed())
			// Right weight 129, left weight 128.
			Expect(leds).To(Equal([]byte{
				0xFF, 127, 128, 0,
				0xFF, 128, 128, 127,
			}))
		})

		It("clamps out-of-range positions", func() {
			Expect(p.Dither(leds, 7)).To(Succeed())
			Expect(leds).To(Equal([]byte{
				0xFF, 0, 255, 0,
				0xFF, 255, 255, 0,
			}))

			Expect(p.Dither(leds, -3)).To(Succeed())
			Expect(leds).To(Equal([]byte{
				0xFF, 255, 0, 0,
				0xFF, 0, 0, 255,
			}))
		})

		It("reorders channels", func() {
			cfg := linearConfig()
			cfg.Order = pixel.ParseOrder("brg")
			p, err := New(twoByTwo, 2, 2, &cfg)
			Expect(err).ToNot(HaveOccurred())

			Expect(p.Dither(leds, 0)).To(Succeed())
			Expect(leds).To(Equal([]byte{
				0xFF, 0, 255, 0,
				0xFF, 255, 0, 0,
			}))
		})

		It("rejects malformed input", func() {
			Expect(IsInvalidArgument(p.Dither(leds[:7], 0))).To(BeTrue())
			Expect(IsInvalidArgument(p.Dither(make([]byte, 12), 0))).To(BeTrue())
			Expect(IsInvalidArgument(p.Dither(leds, math.NaN()))).To(BeTrue())
		})

		It("fails after release", func() {
			p.Release()
			Expect(IsInvalidArgument(p.Dither(leds, 0))).To(BeTrue())
			Expect(p.Tables()).To(Equal(Tables{}))
		})
	})

	Context("vertical flip", func() {
		It("reverses rows without changing their values", func() {
			pixels := make([]byte, 3*5*3)
			for i := range pixels {
				pixels[i] = byte(i * 17)
			}

			cfg := DefaultConfig()
			normal, err := New(pixels, 3, 5, &cfg)
			Expect(err).ToNot(HaveOccurred())

			cfg.VerticalFlip = true
			flipped, err := New(pixels, 3, 5, &cfg)
			Expect(err).ToNot(HaveOccurred())
			Expect(flipped.VerticalFlip()).To(BeTrue())

			a, b := make([]byte, normal.FrameSize()), make([]byte, flipped.FrameSize())
			for _, x := range []float64{0, 0.3, 0.62, 0.99} {
				Expect(normal.Dither(a, x)).To(Succeed())
				Expect(flipped.Dither(b, x)).To(Succeed())

				for row := 0; row < 5; row++ {
					Expect(b[row*4:row*4+4]).To(Equal(a[(4-row)*4:(4-row)*4+4]), "x=%v row %d", x, row)
				}
			}
		})
	})

	Context("error diffusion", func() {
		cfg := Config{
			Gamma:          [3]float64{2.2, 2.2, 2.2},
			MaxBrightness:  [3]uint8{255, 255, 255},
			AverageCurrent: 1e9,
			PeakCurrent:    1e9,
			Order:          pixel.ParseOrder("rgb"),
		}

		It("converges on the gamma-corrected level", func() {
			const v = 100
			p, err := New(uniformImage(2, 1, pixel.P{Red: v, Green: v, Blue: v}), 2, 1, &cfg)
			Expect(err).ToNot(HaveOccurred())

			t := p.Tables()[0]
			Expect(t.High[v]).To(Equal(t.Low[v] + 1))
			Expect(t.Fraction[v]).ToNot(BeZero())

			const n = 1000
			leds := make([]byte, p.FrameSize())
			sum := 0
			for i := 0; i < n; i++ {
				Expect(p.Dither(leds, 0)).To(Succeed())
				Expect(leds[1]).To(Or(Equal(t.Low[v]), Equal(t.High[v])))
				sum += int(leds[1])
			}

			target := math.Pow(v/255.0, 2.2) * 255
			Expect(float64(sum)/n).To(BeNumerically("~", target, 1.0/n+1.0/512))
		})

		It("clears the accumulator when the position moves backwards", func() {
			pixels := make([]byte, 4*6*3)
			for i := range pixels {
				pixels[i] = byte(90 + i)
			}

			p, err := New(pixels, 4, 6, &cfg)
			Expect(err).ToNot(HaveOccurred())
			fresh, err := New(pixels, 4, 6, &cfg)
			Expect(err).ToNot(HaveOccurred())

			leds := make([]byte, p.FrameSize())
			for _, x := range []float64{0.1, 0.2, 0.4, 0.7} {
				Expect(p.Dither(leds, x)).To(Succeed())
			}
			Expect(p.errors).ToNot(Equal(make([]uint8, 6*3)))

			expected := make([]byte, fresh.FrameSize())
			Expect(fresh.Dither(expected, 0.05)).To(Succeed())
			Expect(p.Dither(leds, 0.05)).To(Succeed())
			Expect(leds).To(Equal(expected))
			Expect(p.errors).To(Equal(fresh.errors))
		})

		It("keeps the accumulator when the position holds or advances", func() {
			pixels := uniformImage(2, 1, pixel.P{Red: 100})
			p, err := New(pixels, 2, 1, &cfg)
			Expect(err).ToNot(HaveOccurred())

			leds := make([]byte, p.FrameSize())
			Expect(p.Dither(leds, 0.5)).To(Succeed())
			first := p.errors[0]
			Expect(first).ToNot(BeZero())

			Expect(p.Dither(leds, 0.5)).To(Succeed())
			Expect(p.errors[0]).To(Equal(uint8((2 * int(first)) % 256)))
		})

		It("can be reset explicitly", func() {
			pixels := uniformImage(2, 1, pixel.P{Red: 100})
			p, err := New(pixels, 2, 1, &cfg)
			Expect(err).ToNot(HaveOccurred())

			leds := make([]byte, p.FrameSize())
			Expect(p.Dither(leds, 0.5)).To(Succeed())
			p.Reset()
			Expect(p.errors).To(Equal([]uint8{0, 0, 0}))
			Expect(p.lastX).To(Equal(0.0))
		})
	})
})
