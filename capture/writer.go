// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/danjacques/golightpaint/support/protostream"
	"github.com/danjacques/golightpaint/support/stagingdir"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/wrappers"
	"github.com/pkg/errors"
)

// Record is a single recorded frame.
type Record struct {
	// Offset is the time since the start of the pass when the frame was
	// painted.
	Offset time.Duration
	// Position is the normalized horizontal position that was painted.
	Position float64
	// Pixels holds the frame's LED records.
	Pixels []byte
}

// Writer writes a capture stream.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	raw *rawStreamWriter
	enc protostream.Encoder

	frames int64
	bytes  int64

	// finish, if not nil, is called on Close with the result of closing the
	// stream.
	finish func(error) error

	// Reused record messages.
	position wrappers.DoubleValue
	pixels   wrappers.BytesValue
}

// Create creates a capture file at path. See NewWriter.
//
// The capture is staged alongside path, and only appears at path once the
// Writer is successfully closed. An existing file at path is replaced.
func Create(path string, md *Metadata, comp Compression) (*Writer, error) {
	sd, err := stagingdir.ForFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)

	fd, err := os.Create(sd.Path(name))
	if err != nil {
		_ = sd.Destroy()
		return nil, errors.Wrap(err, "creating capture file")
	}

	w, err := NewWriter(fd, md, comp)
	if err != nil {
		_ = fd.Close()
		_ = sd.Destroy()
		return nil, err
	}
	w.finish = func(err error) error {
		if err != nil {
			_ = sd.Destroy()
			return err
		}
		return sd.Commit(name, path)
	}
	return w, nil
}

// NewWriter writes a capture header and md to base, and returns a Writer that
// records frames after them. If md.Created is zero, the current time is used.
//
// NewWriter takes ownership of base, and will close it when the Writer is
// closed. If NewWriter fails, base is not closed.
func NewWriter(base io.WriteCloser, md *Metadata, comp Compression) (*Writer, error) {
	raw, err := newRawStreamWriter(base, comp)
	if err != nil {
		return nil, err
	}
	w := Writer{raw: raw}

	created := md.Created
	if created.IsZero() {
		created = time.Now()
	}
	ts, err := ptypes.TimestampProto(created)
	if err != nil {
		return nil, errors.Wrap(err, "encoding creation time")
	}

	if err := w.write(md.toProto()); err != nil {
		return nil, errors.Wrap(err, "writing metadata")
	}
	if err := w.write(ts); err != nil {
		return nil, errors.Wrap(err, "writing creation time")
	}
	return &w, nil
}

func (w *Writer) write(pb proto.Message) error {
	amt, err := w.enc.Write(w.raw, pb)
	w.bytes += int64(amt)
	return err
}

// Record records a single painted frame. pixels is not retained.
func (w *Writer) Record(offset time.Duration, position float64, pixels []byte) error {
	w.position.Value = position
	w.pixels.Value = pixels
	defer func() { w.pixels.Value = nil }()

	if err := w.write(ptypes.DurationProto(offset)); err != nil {
		return errors.Wrap(err, "writing frame offset")
	}
	if err := w.write(&w.position); err != nil {
		return errors.Wrap(err, "writing frame position")
	}
	if err := w.write(&w.pixels); err != nil {
		return errors.Wrap(err, "writing frame pixels")
	}
	w.frames++
	return nil
}

// Frames returns the number of frames recorded so far.
func (w *Writer) Frames() int64 { return w.frames }

// Bytes returns the number of uncompressed stream bytes written so far.
func (w *Writer) Bytes() int64 { return w.bytes }

// Close flushes the capture and closes the underlying writer.
func (w *Writer) Close() error {
	err := w.raw.Close()
	if w.finish != nil {
		err = w.finish(err)
		w.finish = nil
	}
	return err
}
