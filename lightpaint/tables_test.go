// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lightpaint

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Channel tables", func() {
	It("are an identity for linear gamma at full brightness", func() {
		t := buildChannelTable(1.0, 255)
		for i := 0; i < Levels; i++ {
			Expect(t.Low[i]).To(Equal(uint8(i)), "level %d", i)
			Expect(t.Fraction[i]).To(Equal(uint8(0)), "level %d", i)
		}
		Expect(t.High[0]).To(Equal(uint8(1)))
		Expect(t.High[254]).To(Equal(uint8(255)))
		Expect(t.High[255]).To(Equal(uint8(255)))
	})

	It("are all zero at zero brightness", func() {
		t := buildChannelTable(2.8, 0)
		Expect(t).To(Equal(ChannelTable{}))
	})

	It("splits the 16-bit level into brightness and fraction", func() {
		// (128/255) * 128 * 256 = 16448.25, rounds to 16448 (0x4040).
		t := buildChannelTable(1.0, 128)
		Expect(t.Low[128]).To(Equal(uint8(0x40)))
		Expect(t.Fraction[128]).To(Equal(uint8(0x40)))
	})

	for _, gamma := range []float64{0.5, 1.0, 2.2, 2.8} {
		for _, max := range []uint8{255, 180, 37, 1} {
			gamma, max := gamma, max

			Context(fmt.Sprintf("with gamma %v and max %d", gamma, max), func() {
				t := buildChannelTable(gamma, max)

				It("has monotonic low levels", func() {
					for i := 0; i+1 < Levels; i++ {
						Expect(t.Low[i]).To(BeNumerically("<=", t.Low[i+1]), "level %d", i)
					}
				})

				It("dithers towards the next distinguishable level", func() {
					for i := 0; i < Levels; i++ {
						Expect(t.High[i]).To(BeNumerically(">=", t.Low[i]), "level %d", i)

						expected := t.Low[i]
						for j := i; j < Levels; j++ {
							if t.Low[j] > t.Low[i] {
								expected = t.Low[j]
								break
							}
						}
						Expect(t.High[i]).To(Equal(expected), "level %d", i)
					}
				})

				It("never exceeds the maximum", func() {
					Expect(t.Low[Levels-1]).To(Equal(max))
					Expect(t.Fraction[Levels-1]).To(Equal(uint8(0)))
				})
			})
		}
	}
})

var _ = Describe("Power estimation", func() {
	// One row: a full red pixel, then a black pixel.
	pixels := []byte{255, 0, 0, 0, 0, 0}
	gamma := [3]float64{1, 1, 1}
	max := [3]uint8{255, 255, 255}

	It("sums current per column", func() {
		est := estimatePower(pixels, 2, 1, gamma, max, DefaultPowerModel)
		Expect(est.peak).To(BeNumerically("~", 1.25+12.95, 1e-9))
		Expect(est.average).To(BeNumerically("~", (1.25+12.95+1.25)/2, 1e-9))
	})

	It("scales channel current by maximum brightness", func() {
		half := [3]uint8{51, 255, 255}
		est := estimatePower(pixels, 2, 1, gamma, half, DefaultPowerModel)
		Expect(est.peak).To(BeNumerically("~", 1.25+12.95*0.2, 1e-9))
	})

	It("applies gamma to each level", func() {
		mid := []byte{51, 0, 0}
		est := estimatePower(mid, 1, 1, [3]float64{2, 1, 1}, max, PowerModel{Channel: [3]float64{100, 0, 0}})
		Expect(est.peak).To(BeNumerically("~", 0.04*100, 1e-9))
	})

	Context("budget scaling", func() {
		est := powerEstimate{peak: 200, average: 100}

		It("uses the tighter of the two budgets", func() {
			Expect(budgetScale(est, 50, 150)).To(BeNumerically("~", 0.5, 1e-12))
			Expect(budgetScale(est, 90, 50)).To(BeNumerically("~", 0.25, 1e-12))
		})

		It("never increases brightness", func() {
			Expect(budgetScale(est, 1000, 1000)).To(Equal(1.0))
			Expect(budgetScale(powerEstimate{}, 10, 10)).To(Equal(1.0))
		})

		It("rounds scaled maximums to the nearest integer", func() {
			Expect(scaleMax([3]uint8{255, 100, 3}, 0.5)).To(Equal([3]uint8{128, 50, 2}))
			Expect(scaleMax([3]uint8{255, 100, 3}, 1.0)).To(Equal([3]uint8{255, 100, 3}))
		})
	})
})
