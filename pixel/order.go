// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package pixel

import (
	"strings"

	"github.com/spf13/pflag"
)

// Order maps the R, G, and B channels to their byte positions (1-3) within a
// 4-byte LED record. Position 0 is always the LED header byte.
type Order [3]uint8

// DefaultOrder is the channel order used by current DotStar strips ("brg").
var DefaultOrder = Order{2, 3, 1}

var channelLetters = [3]byte{'r', 'g', 'b'}

// ParseOrder parses a channel order string such as "rgb" or "BRG".
//
// Each of 'r', 'g', and 'b' is assigned the position at which it first appears
// within the first three characters of s. Letters are case-insensitive.
// Unrecognized characters are ignored, and a channel that does not appear
// keeps its DefaultOrder position. ParseOrder does not verify that the result
// is a permutation.
func ParseOrder(s string) Order {
	o := DefaultOrder
	s = strings.ToLower(s)
	if len(s) > 3 {
		s = s[:3]
	}
	for c, letter := range channelLetters {
		if idx := strings.IndexByte(s, letter); idx >= 0 {
			o[c] = uint8(idx + 1)
		}
	}
	return o
}

// Offset returns the byte offset of channel c within an LED record.
func (o Order) Offset(c int) int { return int(o[c]) }

// String renders o as a letter sequence, such as "brg". Positions that no
// channel occupies are rendered as '?'.
func (o Order) String() string {
	out := []byte("???")
	for c, pos := range o {
		if pos >= 1 && pos <= 3 {
			out[pos-1] = channelLetters[c]
		}
	}
	return string(out)
}

// OrderFlag is a pflag.Value implementation that stores an Order.
type OrderFlag Order

var _ pflag.Value = (*OrderFlag)(nil)

func (of *OrderFlag) String() string { return Order(*of).String() }

// Set implements pflag.Value.
func (of *OrderFlag) Set(v string) error {
	*of = OrderFlag(ParseOrder(v))
	return nil
}

// Type implements pflag.Value.
func (of *OrderFlag) Type() string { return "pixel.Order" }

// Value returns the Order held by this flag.
func (of OrderFlag) Value() Order { return Order(of) }
