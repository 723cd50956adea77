/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package udp implements the datagram-oriented pub/sub and
// request/response bindings over net.UDPConn. Every payload type
// crossing the wire must implement packing.Packable: the datagram
// body is always exactly that value's Len() bytes.
package udp

import (
	"net"
	"sync"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// Factory allocates a new, empty D to decode a datagram into. D is
// typically a pointer type, since packing.Packable.Decode mutates the
// receiver in place.
type Factory[D packing.Packable] func() D

// Publisher sends one datagram per Publish call to every configured
// destination. Failures on a subset of destinations are aggregated
// into a single error; a fully-successful publish returns nil.
type Publisher[D packing.Packable] struct {
	conn *net.UDPConn

	mu    sync.Mutex
	dests []*net.UDPAddr
}

// NewPublisher binds a UDP socket to localAddr and resolves every
// entry in dests as a publish destination.
func NewPublisher[D packing.Packable](localAddr string, dests ...string) (*Publisher[D], error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, errs.IO("resolve local address "+localAddr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errs.IO("listen udp "+localAddr, err)
	}

	p := &Publisher[D]{conn: conn}
	for _, d := range dests {
		if err = p.AddDestination(d); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return p, nil
}

// AddDestination resolves addr and adds it to the destination set.
func (p *Publisher[D]) AddDestination(addr string) error {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return errs.IO("resolve destination "+addr, err)
	}

	p.mu.Lock()
	p.dests = append(p.dests, a)
	p.mu.Unlock()
	return nil
}

// Publish encodes d and writes it to every configured destination.
func (p *Publisher[D]) Publish(d D) error {
	buf, err := packing.Encode(d)
	if err != nil {
		return err
	}

	p.mu.Lock()
	dests := append([]*net.UDPAddr(nil), p.dests...)
	p.mu.Unlock()

	var fails []errs.Destination
	for _, addr := range dests {
		if _, werr := p.conn.WriteToUDP(buf, addr); werr != nil {
			fails = append(fails, errs.Destination{Target: addr.String(), Err: werr})
		}
	}
	return errs.Fanout(fails)
}

// Close releases the underlying socket.
func (p *Publisher[D]) Close() error {
	return p.conn.Close()
}

// LocalAddr returns the address this publisher's socket is bound to.
func (p *Publisher[D]) LocalAddr() string {
	return p.conn.LocalAddr().String()
}
