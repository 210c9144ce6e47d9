// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package pixel

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Order", func() {
	It("defaults to BRG", func() {
		Expect(DefaultOrder.String()).To(Equal("brg"))
		Expect(ParseOrder("")).To(Equal(DefaultOrder))
	})

	It("parses orders case-insensitively", func() {
		Expect(ParseOrder("rgb")).To(Equal(Order{1, 2, 3}))
		Expect(ParseOrder("GBR")).To(Equal(Order{3, 1, 2}))
		Expect(ParseOrder("bRg")).To(Equal(Order{2, 3, 1}))
	})

	It("ignores unrecognized and trailing characters", func() {
		Expect(ParseOrder("xgr")).To(Equal(Order{3, 2, 1}))
		Expect(ParseOrder("rgbr")).To(Equal(Order{1, 2, 3}))
		Expect(ParseOrder("ggggr")).To(Equal(Order{2, 1, 1}))
	})

	It("exposes byte offsets", func() {
		o := ParseOrder("rgb")
		Expect(o.Offset(0)).To(Equal(1))
		Expect(o.Offset(2)).To(Equal(3))
	})

	It("works as a flag", func() {
		var of OrderFlag
		Expect(of.Set("grb")).To(Succeed())
		Expect(of.Value()).To(Equal(Order{2, 1, 3}))
		Expect(of.String()).To(Equal("grb"))
		Expect(of.Type()).To(Equal("pixel.Order"))
	})
})
