// SPDX-License-Identifier: MIT

// Package udp streams binary spectrum packets to a single network target,
// for visualization frontends that want raw frames instead of JSON.
package udp

import (
	"fmt"
	"net"

	applog "spectra/internal/log"
)

// Sender owns a connected UDP socket. Send is fire-and-forget: UDP write
// errors are counted and logged at debug level but never propagate
// backpressure to the caller.
type Sender struct {
	conn   *net.UDPConn
	target string
}

// NewSender resolves the target address and connects the socket.
func NewSender(target string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target %q: %w", target, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP target %q: %w", target, err)
	}

	applog.Infof("UDPSender: sending to %s", target)
	return &Sender{conn: conn, target: target}, nil
}

// Send writes one packet. A packet that fails to send is lost; the next
// one is attempted normally.
func (s *Sender) Send(packet []byte) error {
	if _, err := s.conn.Write(packet); err != nil {
		applog.Debugf("UDPSender: write to %s failed: %v", s.target, err)
		return err
	}
	return nil
}

// Close releases the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
