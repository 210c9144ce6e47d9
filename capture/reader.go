// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"io"
	"os"
	"time"

	"github.com/danjacques/golightpaint/support/protostream"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/duration"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/golang/protobuf/ptypes/wrappers"
	"github.com/pkg/errors"
)

// Reader reads a capture stream.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	raw    *rawStreamReader
	dec    protostream.Decoder
	closer io.Closer

	md *Metadata
}

// Open opens the capture file at path. The returned Reader owns the file and
// closes it on Close.
func Open(path string) (*Reader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening capture file")
	}

	r, err := NewReader(fd)
	if err != nil {
		_ = fd.Close()
		return nil, err
	}
	r.closer = fd
	return r, nil
}

// NewReader reads the capture header and metadata from base.
func NewReader(base io.Reader) (*Reader, error) {
	raw, err := newRawStreamReader(base)
	if err != nil {
		return nil, err
	}
	r := Reader{raw: raw}

	var s structpb.Struct
	if err := r.read(&s, false); err != nil {
		return nil, errors.Wrap(err, "reading metadata")
	}
	if r.md, err = metadataFromProto(&s); err != nil {
		return nil, err
	}

	var ts timestamp.Timestamp
	if err := r.read(&ts, false); err != nil {
		return nil, errors.Wrap(err, "reading creation time")
	}
	if r.md.Created, err = ptypes.Timestamp(&ts); err != nil {
		return nil, errors.Wrap(err, "decoding creation time")
	}
	return &r, nil
}

// read reads the next message into pb. If allowEOF is true, a clean end of
// stream is returned as io.EOF; otherwise it is io.ErrUnexpectedEOF.
func (r *Reader) read(pb proto.Message, allowEOF bool) error {
	_, err := r.dec.Read(r.raw, pb)
	if err == io.EOF && !allowEOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Metadata returns the capture's metadata.
func (r *Reader) Metadata() *Metadata { return r.md }

// Compression returns the compression used by the capture stream.
func (r *Reader) Compression() Compression { return r.raw.compression() }

// Next reads the next recorded frame. At the end of the capture, Next returns
// io.EOF.
func (r *Reader) Next() (*Record, error) {
	var (
		offset   duration.Duration
		position wrappers.DoubleValue
		pixels   wrappers.BytesValue
	)

	if err := r.read(&offset, true); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, errors.Wrap(err, "reading frame offset")
	}
	if err := r.read(&position, false); err != nil {
		return nil, errors.Wrap(err, "reading frame position")
	}
	if err := r.read(&pixels, false); err != nil {
		return nil, errors.Wrap(err, "reading frame pixels")
	}

	d, err := ptypes.Duration(&offset)
	if err != nil {
		return nil, errors.Wrap(err, "decoding frame offset")
	}
	if d < 0 {
		d = 0
	}

	return &Record{
		Offset:   time.Duration(d),
		Position: position.Value,
		Pixels:   pixels.Value,
	}, nil
}

// Close releases the Reader's resources, closing the underlying file if the
// Reader was created with Open.
func (r *Reader) Close() error {
	err := r.raw.Close()
	if r.closer != nil {
		if closeErr := r.closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
