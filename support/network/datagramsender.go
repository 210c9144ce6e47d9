// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package network

import (
	"io"
	"net"

	"github.com/danjacques/golightpaint/support/logging"
)

// DatagramSender exposes an interface which sends individual datagrams.
type DatagramSender interface {
	io.Closer
	SendDatagram(b []byte) error

	// MaxDatagramSize returns the maximum allowed packet size.
	//
	// This value is advisory; the DatagramSender is not responsible for
	// enforcing this size.
	MaxDatagramSize() int
}

// UDPDatagramSender returns a DatagramSender that sends through conn.
//
// UDPDatagramSender takes ownership of conn, and will close it when Close is
// called.
func UDPDatagramSender(conn *net.UDPConn) DatagramSender {
	return &udpDatagramSender{conn}
}

type udpDatagramSender struct {
	conn *net.UDPConn
}

func (uds *udpDatagramSender) SendDatagram(b []byte) error {
	_, err := uds.conn.Write(b)
	return err
}

func (uds *udpDatagramSender) MaxDatagramSize() int { return MaxUDPSize }
func (uds *udpDatagramSender) Close() error         { return uds.conn.Close() }

// ResilientDatagramSender is a DatagramSender that reconnects on the send
// following a failure.
//
// The failed send itself is not retried.
type ResilientDatagramSender struct {
	// Factory generates and connects a new DatagramSender. On success, the
	// ResilientDatagramSender will take ownership of the result.
	Factory func() (DatagramSender, error)

	// MaxSizeHint is returned by MaxDatagramSize while no connection is open.
	MaxSizeHint int

	// Logger, if not nil, receives connection status messages.
	Logger logging.L

	// base is the currently-connected DatagramSender, or nil if none is
	// currently connected.
	base DatagramSender

	connects int64
}

var _ DatagramSender = (*ResilientDatagramSender)(nil)

// MaxDatagramSize implements DatagramSender.
func (rds *ResilientDatagramSender) MaxDatagramSize() int {
	if rds.base == nil {
		return rds.MaxSizeHint
	}
	return rds.base.MaxDatagramSize()
}

// Connects returns the number of successful connections that rds has made.
func (rds *ResilientDatagramSender) Connects() int64 { return rds.connects }

// Connect causes rds to try and open a new connection.
//
// If Connect fails, and rds already has an open connection, the open
// connection will be left intact. If Connect succeeds, the previous connection
// will be closed.
func (rds *ResilientDatagramSender) Connect() error {
	base, err := rds.Factory()
	if err != nil {
		logging.Must(rds.Logger).Warnf("Could not connect datagram sender: %s", err)
		return err
	}

	if rds.base != nil {
		_ = rds.Close()
	}
	rds.base = base
	rds.connects++
	logging.Must(rds.Logger).Debugf("Connected datagram sender (connection #%d).", rds.connects)
	return nil
}

// Close closes the current connection, if one is open.
//
// If no connection is open, Close will do nothing.
func (rds *ResilientDatagramSender) Close() error {
	if rds.base == nil {
		return nil
	}

	err := rds.base.Close()
	rds.base = nil
	return err
}

// SendDatagram sends b through the current connection, connecting first if
// necessary. If the send fails, the connection is discarded.
func (rds *ResilientDatagramSender) SendDatagram(b []byte) error {
	if rds.base == nil {
		if err := rds.Connect(); err != nil {
			return err
		}
	}

	if err := rds.base.SendDatagram(b); err != nil {
		_ = rds.Close()
		return err
	}
	return nil
}
