// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package protostream reads and writes streams of varint size-prefixed
// protobuf messages.
package protostream

import (
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
)

// DefaultMaxMessageSize is the default limit on a single message.
const DefaultMaxMessageSize = 16 * 1024 * 1024

func maxMessageSize(v int) int {
	if v > 0 {
		return v
	}
	return DefaultMaxMessageSize
}

// Encoder writes size-prefixed messages to an io.Writer. Each message is
// written with a single Write call.
//
// Encoder is not safe for concurrent use.
type Encoder struct {
	// MaxMessageSize is the largest message that will be written. If <= 0,
	// DefaultMaxMessageSize is used. A Decoder with the same limit can read
	// everything the Encoder writes.
	MaxMessageSize int

	buf proto.Buffer
}

// Write writes pb, preceded by its size, to w. It returns the number of bytes
// written.
func (e *Encoder) Write(w io.Writer, pb proto.Message) (int, error) {
	size := proto.Size(pb)
	if max := maxMessageSize(e.MaxMessageSize); size > max {
		return 0, errors.Errorf("message size %d exceeds maximum %d", size, max)
	}

	e.buf.Reset()
	if err := e.buf.EncodeVarint(uint64(size)); err != nil {
		return 0, err
	}
	if err := e.buf.Marshal(pb); err != nil {
		return 0, errors.Wrap(err, "marshalling message")
	}
	return w.Write(e.buf.Bytes())
}
