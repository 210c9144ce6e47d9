// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package paint

import (
	"bytes"
	"context"
	"io"

	"github.com/danjacques/golightpaint/support/logging"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// mousePacket is a single PS/2 mouse packet, as read from a Linux
// "/dev/input/mouse*" device.
type mousePacket struct {
	Flags uint8
	DX    uint8
	DY    uint8
}

const (
	mousePacketSize = 3

	// The sign bit of DX is carried in Flags.
	mouseXSign = 0x10
)

func (mp *mousePacket) deltaX() int64 {
	dx := int64(mp.DX)
	if mp.Flags&mouseXSign != 0 {
		dx -= 0x100
	}
	return dx
}

// MouseEncoder drives an EncoderSweep from the horizontal motion of a mouse,
// such as one rolled along the ground beneath the strip.
type MouseEncoder struct {
	// Sweep receives the mouse's horizontal motion.
	Sweep *EncoderSweep

	// Logger, if not nil, is used to log motion.
	Logger logging.L
}

// Run reads mouse packets from r until r is exhausted, a read fails, or c is
// cancelled. Cancellation is only noticed between packets; close r to unblock
// a pending read.
//
// Run returns nil when r reaches EOF.
func (me *MouseEncoder) Run(c context.Context, r io.Reader) error {
	logger := logging.Must(me.Logger)

	buf := make([]byte, mousePacketSize)
	for {
		if err := c.Err(); err != nil {
			return err
		}

		switch _, err := io.ReadFull(r, buf); err {
		case nil:
		case io.EOF:
			return nil
		case io.ErrUnexpectedEOF:
			return errors.New("truncated mouse packet")
		default:
			return errors.Wrap(err, "reading mouse packet")
		}

		var mp mousePacket
		if err := struc.Unpack(bytes.NewReader(buf), &mp); err != nil {
			return errors.Wrap(err, "decoding mouse packet")
		}

		if dx := mp.deltaX(); dx != 0 {
			me.Sweep.Add(dx)
			logger.Debugf("Encoder moved by %d.", dx)
		}
	}
}
