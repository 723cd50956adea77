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

// Package local implements the in-process pub/sub and
// request/response bindings, backed by Go channels instead of a
// network transport. Every binding in this package is infallible:
// Publish, SendResponse and SendUpdate never fail, since there is no
// I/O to fail on.
package local

import (
	"sync"
	"time"

	"github.com/nabbar/ncomm/atomic"
)

type seed[D any] struct {
	val D
	at  time.Time
	has bool
}

// Publisher broadcasts a value of type D to every currently
// registered subscriber channel, then updates the latest-value cell.
// A subscriber registered after construction is seeded with this
// cell's content at registration time.
type Publisher[D any] struct {
	mu     sync.Mutex
	subs   []chan D
	closed bool
	latest atomic.Value[seed[D]]
}

// NewPublisher builds an empty Publisher with no subscribers and no
// retained value.
func NewPublisher[D any]() *Publisher[D] {
	return &Publisher[D]{latest: atomic.NewValue[seed[D]]()}
}

// Publish broadcasts d to every current subscriber's channel,
// non-blocking: a subscriber whose channel is full misses this value,
// matching the "drain and keep the final value" retention contract
// rather than stalling the publisher. It then updates the latest cell.
func (p *Publisher[D]) Publish(d D) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	for _, ch := range p.subs {
		select {
		case ch <- d:
		default:
		}
	}

	p.latest.Store(seed[D]{val: d, at: time.Now(), has: true})
	return nil
}

// Close releases every registered subscriber channel. Publish after
// Close is a no-op.
func (p *Publisher[D]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	for _, ch := range p.subs {
		close(ch)
	}
	p.subs = nil
	p.closed = true
	return nil
}

// register allocates and records a new subscriber channel of the
// given buffer depth.
func (p *Publisher[D]) register(buf int) chan D {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan D, buf)
	if !p.closed {
		p.subs = append(p.subs, ch)
	} else {
		close(ch)
	}
	return ch
}

// seedValue returns the currently retained value, its arrival time,
// and whether anything has been published yet.
func (p *Publisher[D]) seedValue() (D, time.Time, bool) {
	s := p.latest.Load()
	return s.val, s.at, s.has
}
