// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package paintapp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// balanceFlag is a pflag.Value that parses a hex color ("#80ffb4") into
// per-channel maximum brightness.
type balanceFlag [3]uint8

var _ pflag.Value = (*balanceFlag)(nil)

func (bf *balanceFlag) String() string {
	return fmt.Sprintf("#%02x%02x%02x", bf[0], bf[1], bf[2])
}

func (bf *balanceFlag) Set(v string) error {
	c, err := colorful.Hex(v)
	if err != nil {
		return errors.Wrapf(err, "invalid color balance %q", v)
	}
	r, g, b := c.RGB255()
	*bf = balanceFlag{r, g, b}
	return nil
}

func (bf *balanceFlag) Type() string { return "color" }

// gammaFlag is a pflag.Value that accepts either a single gamma exponent for
// all channels, or three comma-separated exponents (R,G,B).
type gammaFlag [3]float64

var _ pflag.Value = (*gammaFlag)(nil)

func (gf *gammaFlag) String() string {
	if gf[0] == gf[1] && gf[1] == gf[2] {
		return fmt.Sprint(gf[0])
	}
	return fmt.Sprintf("%v,%v,%v", gf[0], gf[1], gf[2])
}

func (gf *gammaFlag) Set(v string) error {
	parts := strings.Split(v, ",")
	if len(parts) != 1 && len(parts) != 3 {
		return errors.Errorf("invalid gamma %q: need 1 or 3 values", v)
	}

	var g gammaFlag
	for i := range g {
		part := parts[0]
		if len(parts) == 3 {
			part = parts[i]
		}

		var err error
		if g[i], err = strconv.ParseFloat(strings.TrimSpace(part), 64); err != nil {
			return errors.Wrapf(err, "invalid gamma %q", v)
		}
	}
	*gf = g
	return nil
}

func (gf *gammaFlag) Type() string { return "gamma" }
