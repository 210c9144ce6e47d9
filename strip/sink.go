// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package strip

import (
	"io"

	"github.com/danjacques/golightpaint/support/network"

	"github.com/pkg/errors"
)

// Sink receives complete strip frames.
//
// A Sink does not retry failed writes; that policy belongs to its caller.
type Sink interface {
	io.Closer

	// WriteFrame writes a single frame. The Sink must not retain b after
	// WriteFrame returns.
	WriteFrame(b []byte) error
}

// WriterSink returns a Sink that writes each frame to w in a single Write
// call. This is suitable for an SPI device file such as "/dev/spidev0.0".
//
// WriterSink takes ownership of w, and will close it when Close is called.
func WriterSink(w io.WriteCloser) Sink { return &writerSink{w} }

type writerSink struct {
	w io.WriteCloser
}

func (ws *writerSink) WriteFrame(b []byte) error {
	switch amt, err := ws.w.Write(b); {
	case err != nil:
		return err
	case amt != len(b):
		return errors.Errorf("short frame write (%d of %d bytes)", amt, len(b))
	default:
		return nil
	}
}

func (ws *writerSink) Close() error { return ws.w.Close() }

// DatagramSink returns a Sink that sends each frame as a single datagram,
// for strips driven through a network bridge.
//
// DatagramSink takes ownership of ds, and will close it when Close is called.
func DatagramSink(ds network.DatagramSender) Sink { return &datagramSink{ds} }

type datagramSink struct {
	ds network.DatagramSender
}

func (dgs *datagramSink) WriteFrame(b []byte) error {
	if max := dgs.ds.MaxDatagramSize(); max > 0 && len(b) > max {
		return errors.Errorf("frame size %d exceeds maximum datagram size %d", len(b), max)
	}
	return dgs.ds.SendDatagram(b)
}

func (dgs *datagramSink) Close() error { return dgs.ds.Close() }

// Discard is a Sink that drops every frame.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) WriteFrame([]byte) error { return nil }
func (discardSink) Close() error            { return nil }
