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

package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// Factory allocates a new, empty D to decode an inbound record into.
type Factory[D packing.Packable] func() D

// Publisher dials a fresh connection per Publish call, writes the
// encoded record, and closes. Failures on a subset of destinations
// are aggregated; a fully-successful publish returns nil.
type Publisher[D packing.Packable] struct {
	dialTimeout time.Duration

	mu    sync.Mutex
	dests []string
}

// NewPublisher builds a connection-per-publish publisher targeting dests.
func NewPublisher[D packing.Packable](dialTimeout time.Duration, dests ...string) *Publisher[D] {
	return &Publisher[D]{dialTimeout: dialTimeout, dests: append([]string(nil), dests...)}
}

// AddDestination adds one more destination address.
func (p *Publisher[D]) AddDestination(addr string) {
	p.mu.Lock()
	p.dests = append(p.dests, addr)
	p.mu.Unlock()
}

// Publish encodes d and writes it to every destination over its own connection.
func (p *Publisher[D]) Publish(d D) error {
	buf, err := packing.Encode(d)
	if err != nil {
		return err
	}

	p.mu.Lock()
	dests := append([]string(nil), p.dests...)
	p.mu.Unlock()

	var fails []errs.Destination
	for _, addr := range dests {
		if werr := p.publishOne(addr, buf); werr != nil {
			fails = append(fails, errs.Destination{Target: addr, Err: werr})
		}
	}
	return errs.Fanout(fails)
}

func (p *Publisher[D]) publishOne(addr string, buf []byte) error {
	conn, err := net.DialTimeout("tcp", addr, p.dialTimeout)
	if err != nil {
		return errs.IO("dial "+addr, err)
	}
	defer func() { _ = conn.Close() }()

	if _, err = conn.Write(buf); err != nil {
		return errs.IO("write to "+addr, err)
	}
	return nil
}

// Close is a no-op: Publisher holds no persistent resource between calls.
func (p *Publisher[D]) Close() error { return nil }
