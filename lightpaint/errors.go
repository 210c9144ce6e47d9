// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package lightpaint

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument is the cause of errors returned for malformed
	// configuration, buffers, or positions.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted is the cause of errors returned when a Painter's
	// buffers cannot be sized.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// IsInvalidArgument returns true if err was caused by ErrInvalidArgument.
func IsInvalidArgument(err error) bool { return errors.Cause(err) == ErrInvalidArgument }

// IsResourceExhausted returns true if err was caused by ErrResourceExhausted.
func IsResourceExhausted(err error) bool { return errors.Cause(err) == ErrResourceExhausted }

func invalidArgumentf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// allocate allocates a zeroed buffer of n bytes. A size that make rejects
// (negative, or too large to address) is returned as an ErrResourceExhausted
// error instead of panicking. Running out of memory is fatal in Go and is not
// recovered here.
func allocate(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, errors.Wrapf(ErrResourceExhausted, "allocating %d bytes: %v", n, r)
		}
	}()
	return make([]byte, n), nil
}
