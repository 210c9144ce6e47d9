// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package network contains UDP utilities for sending frames to networked
// strip bridges.
package network

import (
	"net"

	"github.com/pkg/errors"
)

const (
	// MaxUDPSize is the largest UDP package size.
	MaxUDPSize = 65507
)

// UDPOptions configures a UDP connection to a strip bridge.
type UDPOptions struct {
	// Address is the "host:port" address to send to.
	Address string

	// BufferSize, if >0, is the write buffer size to set on new connections.
	BufferSize int
}

// DialUDP creates a UDP connection configured with the configured parameters.
//
// If successful, the caller is responsible for closing the connection.
func (o *UDPOptions) DialUDP() (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", o.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve UDP address %q", o.Address)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "could not dial %s", addr)
	}

	if o.BufferSize > 0 {
		if err := conn.SetWriteBuffer(o.BufferSize); err != nil {
			_ = conn.Close()
			return nil, errors.Wrapf(err, "failed to set write buffer size to %d", o.BufferSize)
		}
	}

	return conn, nil
}

// DatagramSender is a convenience method to generate a basic DatagramSender
// from the configured parameters.
func (o *UDPOptions) DatagramSender() (DatagramSender, error) {
	conn, err := o.DialUDP()
	if err != nil {
		return nil, err
	}
	return UDPDatagramSender(conn), nil
}

// ResilientSender returns a ResilientDatagramSender that dials using o
// whenever it needs a connection.
func (o *UDPOptions) ResilientSender() *ResilientDatagramSender {
	opts := *o
	return &ResilientDatagramSender{
		Factory:     opts.DatagramSender,
		MaxSizeHint: MaxUDPSize,
	}
}
