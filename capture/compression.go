// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Compression is the compression applied to a capture file's message stream.
type Compression uint8

const (
	// CompressionNone applies no compression.
	CompressionNone Compression = iota
	// CompressionSnappy applies framed snappy compression.
	CompressionSnappy
	// CompressionGzip applies gzip compression.
	CompressionGzip
)

var compressionNames = []string{"none", "snappy", "gzip"}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
}

func (c Compression) valid() bool { return int(c) < len(compressionNames) }

// ParseCompression parses a compression name, such as "snappy".
func ParseCompression(v string) (Compression, error) {
	for i, name := range compressionNames {
		if strings.EqualFold(v, name) {
			return Compression(i), nil
		}
	}
	return 0, errors.Errorf("unknown compression type: %q", v)
}

// CompressionFlag is a pflag.Value implementation that stores a compression
// value.
type CompressionFlag Compression

var _ pflag.Value = (*CompressionFlag)(nil)

func (cf *CompressionFlag) String() string { return Compression(*cf).String() }

// Set implements pflag.Value.
func (cf *CompressionFlag) Set(v string) error {
	c, err := ParseCompression(v)
	if err != nil {
		return err
	}
	*cf = CompressionFlag(c)
	return nil
}

// Type implements pflag.Value.
func (cf *CompressionFlag) Type() string { return "capture.Compression" }

// Value returns the compression value held by this flag.
func (cf CompressionFlag) Value() Compression { return Compression(cf) }

// CompressionFlagValues returns the list of possible values for a
// CompressionFlag.
func CompressionFlagValues() string { return strings.Join(compressionNames, ", ") }
