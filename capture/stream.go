// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"bufio"
	"compress/gzip"
	"io"

	"github.com/danjacques/golightpaint/support/fmtutil"
	"github.com/danjacques/golightpaint/support/protostream"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	// formatVersion is the capture format version written by this package.
	formatVersion = 1

	// streamBufferSize is the buffer size used for capture file I/O.
	streamBufferSize = 256 * 1024
)

var fileMagic = [4]byte{'L', 'P', 'C', 'F'}

// fileHeader is the fixed, uncompressed header of a capture file.
type fileHeader struct {
	Magic       [4]byte
	Version     uint8
	Compression uint8
	Reserved    uint16 `struc:",little"`
}

func (fh *fileHeader) validate() error {
	if fh.Magic != fileMagic {
		return errors.Errorf("not a capture file (magic %s)", fmtutil.HexSlice(fh.Magic[:]))
	}
	if fh.Version != formatVersion {
		return errors.Errorf("unsupported capture version %d", fh.Version)
	}
	if c := Compression(fh.Compression); !c.valid() {
		return errors.Errorf("unknown compression: %s", c)
	}
	return nil
}

// rawStreamWriter writes the header, then a (possibly compressed) message
// stream.
type rawStreamWriter struct {
	io.Writer

	closer io.Closer
	bw     *bufio.Writer
	comp   io.WriteCloser
}

func newRawStreamWriter(base io.WriteCloser, comp Compression) (*rawStreamWriter, error) {
	w := rawStreamWriter{
		bw:     bufio.NewWriterSize(base, streamBufferSize),
		closer: base,
	}

	hdr := fileHeader{
		Magic:       fileMagic,
		Version:     formatVersion,
		Compression: uint8(comp),
	}
	if err := struc.Pack(w.bw, &hdr); err != nil {
		return nil, errors.Wrap(err, "writing capture header")
	}

	switch comp {
	case CompressionSnappy:
		w.comp = snappy.NewBufferedWriter(w.bw)
		w.Writer = w.comp

	case CompressionGzip:
		w.comp = gzip.NewWriter(w.bw)
		w.Writer = w.comp

	case CompressionNone:
		w.Writer = w.bw

	default:
		return nil, errors.Errorf("unknown compression: %s", comp)
	}
	return &w, nil
}

func (w *rawStreamWriter) Close() (err error) {
	// Always close our underlying base.
	defer func() {
		closeErr := w.closer.Close()
		if err == nil {
			err = closeErr
		}
	}()

	if w.comp != nil {
		if err = w.comp.Close(); err != nil {
			return
		}
	}
	err = w.bw.Flush()
	return
}

// rawStreamReader reads the header, then exposes the decompressed message
// stream.
type rawStreamReader struct {
	protostream.ByteReader

	hdr  fileHeader
	comp io.Closer
}

func newRawStreamReader(base io.Reader) (*rawStreamReader, error) {
	br := bufio.NewReaderSize(base, streamBufferSize)

	r := rawStreamReader{}
	if err := struc.Unpack(br, &r.hdr); err != nil {
		return nil, errors.Wrap(err, "reading capture header")
	}
	if err := r.hdr.validate(); err != nil {
		return nil, err
	}

	switch Compression(r.hdr.Compression) {
	case CompressionSnappy:
		r.ByteReader = protostream.MakeByteReader(snappy.NewReader(br))

	case CompressionGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "creating gzip reader")
		}
		r.comp = gz
		r.ByteReader = protostream.MakeByteReader(gz)

	default:
		r.ByteReader = br
	}
	return &r, nil
}

func (r *rawStreamReader) compression() Compression { return Compression(r.hdr.Compression) }

func (r *rawStreamReader) Close() error {
	if r.comp != nil {
		return r.comp.Close()
	}
	return nil
}
