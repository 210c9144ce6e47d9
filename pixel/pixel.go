// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package pixel contains the basic pixel and image types shared by the light
// painting packages.
package pixel

import (
	"fmt"
)

// P is the state of a single RGB pixel.
type P struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

func (p *P) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.Red, p.Green, p.Blue)
}

// Channel returns the value of channel c, where 0 is red, 1 is green, and 2 is
// blue. Any other channel returns 0.
func (p *P) Channel(c int) uint8 {
	switch c {
	case 0:
		return p.Red
	case 1:
		return p.Green
	case 2:
		return p.Blue
	default:
		return 0
	}
}
