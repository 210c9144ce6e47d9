// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package pixel

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Image", func() {
	// 2x2: (255,0,0) (0,255,0) / (0,0,255) (255,255,0)
	raw := []byte{
		255, 0, 0, 0, 255, 0,
		0, 0, 255, 255, 255, 0,
	}

	Context("wrapping a buffer", func() {
		It("uses the buffer directly", func() {
			buf := append([]byte(nil), raw...)
			img, err := NewImage(buf, 2, 2)
			Expect(err).ToNot(HaveOccurred())
			Expect(&img.Bytes()[0]).To(BeIdenticalTo(&buf[0]))
			Expect(img.Bytes()).To(HaveLen(len(buf)))
			Expect(img.Pixel(0, 0)).To(Equal(P{Red: 255}))
			Expect(img.Pixel(1, 0)).To(Equal(P{Green: 255}))
			Expect(img.Pixel(0, 1)).To(Equal(P{Blue: 255}))
			Expect(img.Pixel(1, 1)).To(Equal(P{Red: 255, Green: 255}))

			// Changes to the buffer are visible through the Image.
			buf[0] = 7
			Expect(img.Pixel(0, 0)).To(Equal(P{Red: 7}))
		})

		It("rejects a mismatched buffer", func() {
			_, err := NewImage(raw[:9], 2, 2)
			Expect(err).To(HaveOccurred())
			Expect(errors.Cause(err)).To(Equal(ErrSizeMismatch))
		})

		It("rejects empty dimensions", func() {
			_, err := NewImage(nil, 0, 2)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("manipulating pixels", func() {
		It("will ignore out-of-bounds pixels", func() {
			img := MakeImage(2, 2)
			img.SetPixel(1337, 0, P{Red: 1})
			img.SetPixel(-1, 0, P{Red: 1})
			Expect(img.Bytes()).To(Equal(make([]byte, 12)))
			Expect(img.Pixel(2, 2)).To(Equal(P{}))
		})

		It("can mutate pixels", func() {
			img := MakeImage(2, 1)
			img.SetPixel(1, 0, P{Red: 1, Green: 2, Blue: 3})
			Expect(img.Bytes()).To(Equal([]byte{0, 0, 0, 1, 2, 3}))
		})
	})

	Context("converting an image.Image", func() {
		It("drops alpha from NRGBA images", func() {
			src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
			src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
			src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

			img := FromImage(src)
			Expect(img.Width).To(Equal(2))
			Expect(img.Height).To(Equal(1))
			Expect(img.Bytes()).To(Equal([]byte{10, 20, 30, 40, 50, 60}))
		})

		It("converts other color models", func() {
			src := image.NewGray(image.Rect(5, 5, 6, 7))
			src.SetGray(5, 5, color.Gray{Y: 100})
			src.SetGray(5, 6, color.Gray{Y: 200})

			img := FromImage(src)
			Expect(img.Pixel(0, 0)).To(Equal(P{Red: 100, Green: 100, Blue: 100}))
			Expect(img.Pixel(0, 1)).To(Equal(P{Red: 200, Green: 200, Blue: 200}))
		})
	})
})
