// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package capture records and reads painted LED frames.
//
// A capture file begins with a fixed 8-byte header:
//
//	magic        [4]byte  "LPCF"
//	version      uint8
//	compression  uint8
//	reserved     uint16
//
// The remainder of the file, compressed as described by the header, is a
// protostream of protobuf messages. The first two messages are a
// structpb.Struct holding the capture Metadata and a Timestamp of when the
// capture was created. Each painted frame follows as three messages: a
// Duration offset from the start of the pass, a DoubleValue holding the
// painted position, and a BytesValue holding the LED records.
//
// Only well-known protobuf types are used, so no generated code is needed to
// read a capture.
package capture
