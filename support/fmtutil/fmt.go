// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package fmtutil contains formatting helpers.
package fmtutil

import (
	"strconv"
	"strings"
)

// HexSlice is a byte slice that renders as a sequence of hex bytes, instead
// of the default decimal bytes.
//
// Output as: "[4]byte{0x10, 0x20, 0x30, 0x40}"
//
// Formatting is deferred until the value is rendered, so a HexSlice can be
// passed to a logger cheaply.
type HexSlice []byte

func (hs HexSlice) String() string {
	var sb strings.Builder
	sb.Grow(6*len(hs) + 16)
	sb.WriteString("[")
	sb.WriteString(strconv.Itoa(len(hs)))
	sb.WriteString("]byte{")
	for i, b := range hs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("0x")
		if b < 0x10 {
			sb.WriteByte('0')
		}
		sb.WriteString(strings.ToUpper(strconv.FormatUint(uint64(b), 16)))
	}
	sb.WriteString("}")
	return sb.String()
}
