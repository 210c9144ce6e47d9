// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package protostream

import (
	"bufio"
	"bytes"
	"io"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
)

// The maximum varint size, in bytes. This is the total number of bytes needed
// to encode the largest uint64 using proto.EncodeVarint.
const maxVarintSizeU64 = 10

// ByteReader is a Reader that can read both individual bytes and sequences of
// bytes.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// MakeByteReader returns r as a ByteReader, buffering it if it cannot read
// individual bytes itself.
func MakeByteReader(r io.Reader) ByteReader {
	if br, ok := r.(ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}

// Decoder is a reusable object which decodes a series of messages from a proto
// stream.
type Decoder struct {
	// MaxMessageSize is the largest message size that will be accepted. If
	// <= 0, DefaultMaxMessageSize will be used.
	MaxMessageSize int

	dataBuf bytes.Buffer
	sizeBuf [maxVarintSizeU64]byte
}

func (d *Decoder) bufferNextVarint(r io.ByteReader) ([]byte, error) {
	sizeBuf := d.sizeBuf[:0]
	for len(sizeBuf) < maxVarintSizeU64 {
		b, err := r.ReadByte()
		if err != nil {
			return sizeBuf, err
		}

		sizeBuf = append(sizeBuf, b)
		if (b & 0x80) == 0 {
			// Varint does not have continuation bit set.
			return sizeBuf, nil
		}
	}
	return sizeBuf, errors.New("size prefix is not a valid varint")
}

// Read reads the next message from r into pb. It returns the number of bytes
// consumed.
//
// If r is exhausted before any byte of the message is read, Read returns
// io.EOF. If r is exhausted partway through a message, Read returns
// io.ErrUnexpectedEOF.
func (d *Decoder) Read(r ByteReader, pb proto.Message) (int64, error) {
	sizeBuf, err := d.bufferNextVarint(r)
	count := int64(len(sizeBuf))
	if err != nil {
		if err == io.EOF && count > 0 {
			err = io.ErrUnexpectedEOF
		}
		return count, err
	}

	// sizeBuf contains the full varint, vetted in bufferNextVarint.
	size, amt := proto.DecodeVarint(sizeBuf)
	if amt != len(sizeBuf) {
		panic("incompatible proto varint encoding")
	}
	if max := maxMessageSize(d.MaxMessageSize); size > uint64(max) {
		return count, errors.Errorf("message size %d exceeds maximum %d", size, max)
	}

	d.dataBuf.Reset()
	d.dataBuf.Grow(int(size))
	readCount, err := d.dataBuf.ReadFrom(io.LimitReader(r, int64(size)))
	count += readCount
	if err != nil {
		return count, err
	}
	if readCount != int64(size) {
		return count, io.ErrUnexpectedEOF
	}

	return count, proto.Unmarshal(d.dataBuf.Bytes(), pb)
}
