// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lightpaint

import (
	"math"

	"github.com/danjacques/golightpaint/pixel"
)

// PowerModel estimates the current drawn by a single LED.
//
// The values are hardware-specific calibration constants, in milliamps.
type PowerModel struct {
	// Idle is the current drawn by an LED that is off.
	Idle float64
	// Channel is the additional current drawn by the red, green, and blue
	// channels at full brightness.
	Channel [3]float64
}

// DefaultPowerModel is the power model for DotStar LEDs, measured and divided
// down from 100 pixels at 5.1VDC.
var DefaultPowerModel = PowerModel{
	Idle:    1.25,
	Channel: [3]float64{12.95, 9.90, 8.45},
}

func (pm *PowerModel) isZero() bool { return *pm == PowerModel{} }

// Config is the gamma and power configuration for a Painter. It is consumed
// during construction and not retained.
type Config struct {
	// Gamma is the gamma correction exponent for the red, green, and blue
	// channels. Each must be >0.
	Gamma [3]float64

	// MaxBrightness is the requested maximum brightness for the red, green, and
	// blue channels. This is also the strip's white balance.
	MaxBrightness [3]uint8

	// AverageCurrent is the average current budget, in milliamps.
	AverageCurrent float64
	// PeakCurrent is the peak current budget, in milliamps.
	PeakCurrent float64

	// Order is the channel order of the LED strip. If zero, DefaultOrder will
	// be used.
	Order pixel.Order

	// VerticalFlip, if true, means that the image's first row is at the bottom
	// of the strip (the strip's input end is at the bottom).
	VerticalFlip bool

	// Power is the power model used to estimate current draw. If zero,
	// DefaultPowerModel will be used.
	Power PowerModel
}

// DefaultConfig returns a Config populated with typical light painting
// settings for a battery-powered DotStar strip.
func DefaultConfig() Config {
	return Config{
		Gamma:          [3]float64{2.8, 2.8, 2.8},
		MaxBrightness:  [3]uint8{128, 255, 180},
		AverageCurrent: 1450,
		PeakCurrent:    1550,
		Order:          pixel.DefaultOrder,
		Power:          DefaultPowerModel,
	}
}

func (cfg *Config) order() pixel.Order {
	if cfg.Order == (pixel.Order{}) {
		return pixel.DefaultOrder
	}
	return cfg.Order
}

func (cfg *Config) power() PowerModel {
	if cfg.Power.isZero() {
		return DefaultPowerModel
	}
	return cfg.Power
}

func (cfg *Config) validate() error {
	for c, g := range cfg.Gamma {
		if !(g > 0) || math.IsInf(g, 0) {
			return invalidArgumentf("gamma for channel %d must be a positive number, not %v", c, g)
		}
	}

	if !(cfg.AverageCurrent > 0) {
		return invalidArgumentf("average current budget must be >0, not %v", cfg.AverageCurrent)
	}
	if !(cfg.PeakCurrent > 0) {
		return invalidArgumentf("peak current budget must be >0, not %v", cfg.PeakCurrent)
	}

	for c, pos := range cfg.order() {
		if pos < 1 || pos > 3 {
			return invalidArgumentf("channel %d has invalid position %d", c, pos)
		}
	}

	pm := cfg.power()
	if !validCurrent(pm.Idle) {
		return invalidArgumentf("invalid idle current %v", pm.Idle)
	}
	for c, v := range pm.Channel {
		if !validCurrent(v) {
			return invalidArgumentf("invalid current %v for channel %d", v, c)
		}
	}
	return nil
}

func validCurrent(v float64) bool { return v >= 0 && !math.IsInf(v, 0) }
