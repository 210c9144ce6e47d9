// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lightpaint

import (
	"math"
)

// Levels is the number of raw 8-bit input levels.
const Levels = 256

// ChannelTable holds the dithering lookup tables for a single color channel,
// indexed by raw 8-bit input level.
type ChannelTable struct {
	// Low is the brightness for the rounded-down 16-bit gamma level.
	Low [Levels]uint8
	// High is the next brightness above Low that is reachable at an equal or
	// higher input level.
	High [Levels]uint8
	// Fraction is the probability, out of 256, that High should be emitted
	// instead of Low.
	Fraction [Levels]uint8
}

// Tables holds the red, green, and blue ChannelTables.
type Tables [3]ChannelTable

// buildChannelTable generates the tables for a channel with the supplied gamma
// exponent and effective maximum brightness.
func buildChannelTable(gamma float64, max uint8) (t ChannelTable) {
	for i := 0; i < Levels; i++ {
		// 16-bit gamma-corrected level, split into an 8-bit brightness and the
		// probability of dithering up.
		n := uint16(math.Pow(float64(i)/255.0, gamma)*float64(max)*256.0 + 0.5)
		t.Low[i] = uint8(n >> 8)
		t.Fraction[i] = uint8(n & 0xFF)
	}

	// Find the next distinguishable brightness for each level. Levels without
	// one (the top of the range) dither towards themselves.
	for i := 0; i < Levels; i++ {
		t.High[i] = t.Low[i]
		for j := i; j < Levels; j++ {
			if t.Low[j] > t.Low[i] {
				t.High[i] = t.Low[j]
				break
			}
		}
	}
	return
}

// powerEstimate is an estimate of the current drawn while painting an image.
type powerEstimate struct {
	// peak is the largest column current, in milliamps.
	peak float64
	// average is the mean column current, in milliamps.
	average float64
}

// estimatePower estimates the current drawn by each column of a row-major RGB
// image displayed with the supplied gamma and maximum brightness.
func estimatePower(pixels []byte, width, height int, gamma [3]float64, max [3]uint8, pm PowerModel) powerEstimate {
	// Per-level current draw for each channel. Every pixel would otherwise
	// require three math.Pow calls.
	var levelCurrent [3][Levels]float64
	for c := range levelCurrent {
		mA := pm.Channel[c] * float64(max[c]) / 255.0
		for i := range levelCurrent[c] {
			levelCurrent[c][i] = math.Pow(float64(i)/255.0, gamma[c]) * mA
		}
	}

	// Sum each column, walking the image in memory order.
	columns := make([]float64, width)
	for y := 0; y < height; y++ {
		row := pixels[y*width*3 : (y+1)*width*3]
		for x := range columns {
			in := row[x*3 : x*3+3]
			columns[x] += pm.Idle +
				levelCurrent[0][in[0]] +
				levelCurrent[1][in[1]] +
				levelCurrent[2][in[2]]
		}
	}

	var est powerEstimate
	for _, colC := range columns {
		if colC > est.peak {
			est.peak = colC
		}
		est.average += colC
	}
	est.average /= float64(width)
	return est
}

// budgetScale returns the brightness scale factor that fits est within the
// supplied current budgets. It is never >1.
func budgetScale(est powerEstimate, averageBudget, peakBudget float64) float64 {
	scale := peakBudget / est.peak
	if s := averageBudget / est.average; s < scale {
		scale = s
	}
	if scale > 1.0 || math.IsNaN(scale) {
		scale = 1.0
	}
	return scale
}

// scaleMax applies scale to each channel's maximum brightness, rounding to
// the nearest integer.
func scaleMax(max [3]uint8, scale float64) (out [3]uint8) {
	for c := range max {
		out[c] = uint8(float64(max[c])*scale + 0.5)
	}
	return
}
