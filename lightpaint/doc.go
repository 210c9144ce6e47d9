// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package lightpaint converts an RGB image into a stream of gamma-corrected,
// power-limited, dithered LED strip columns.
//
// A Painter is built once per image. Construction estimates the current that
// the image would draw at the requested brightness, scales the per-channel
// maximum brightness down until it fits the configured average and peak
// current budgets, and generates three lookup tables per channel:
//
//	- Low, the 8-bit brightness of the rounded-down 16-bit gamma level.
//	- High, the next distinguishable brightness above Low.
//	- Fraction, the probability (out of 256) of rounding up to High.
//
// Dither is then called repeatedly with an advancing horizontal position in
// [0, 1). Each call blends the two nearest image columns and emits one LED
// record per image row, choosing between Low and High using a per-row,
// per-channel error accumulator. Over successive frames the average emitted
// brightness converges on the 16-bit gamma-corrected value.
//
// Each LED record is 4 bytes: a 0xFF header followed by the three color bytes
// in the configured channel order.
//
// A Painter is not safe for concurrent use.
package lightpaint
