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

package serial

import (
	"sync"
	"time"

	"github.com/nabbar/ncomm/duration"
	"github.com/nabbar/ncomm/packing"
)

// pollInterval is how often the background reader re-checks
// ReadReady when the device currently has nothing to offer.
const pollInterval = 2 * time.Millisecond

// reader accumulates bytes from a Device into a record-sized scratch
// buffer and decodes it once full. A decode failure is dropped
// silently: the accumulator resets and the prior retained value is
// kept, matching the device's "keep the last good record" contract.
type reader[D packing.Packable] struct {
	dev  Device
	newT Factory[D]
	ch   chan D
	done chan struct{}
}

func newReader[D packing.Packable](dev Device, newT Factory[D], chBuf int) *reader[D] {
	r := &reader[D]{dev: dev, newT: newT, ch: make(chan D, chBuf), done: make(chan struct{})}
	go r.loop()
	return r
}

func (r *reader[D]) loop() {
	probe := r.newT()
	rec := make([]byte, probe.Len())
	have := 0

	for {
		select {
		case <-r.done:
			return
		default:
		}

		if !r.dev.ReadReady() {
			time.Sleep(pollInterval)
			continue
		}

		n, err := r.dev.Read(rec[have:])
		if err != nil {
			time.Sleep(pollInterval)
			continue
		}

		have += n
		if have < len(rec) {
			continue
		}

		t := r.newT()
		if t.Decode(rec) == nil {
			select {
			case r.ch <- t:
			default:
			}
		}
		have = 0
	}
}

func (r *reader[D]) Close() error {
	close(r.done)
	return r.dev.Close()
}

// Latest retains only the most recently decoded record.
type Latest[D packing.Packable] struct {
	r   *reader[D]
	mu  sync.Mutex
	val D
	has bool
}

// NewLatest wraps dev, polling it for complete records decoded via newT.
func NewLatest[D packing.Packable](dev Device, newT Factory[D], chBuf int) *Latest[D] {
	return &Latest[D]{r: newReader(dev, newT, chBuf)}
}

func (s *Latest[D]) drain() {
	for {
		select {
		case v, ok := <-s.r.ch:
			if !ok {
				return
			}
			s.val, s.has = v, true
		default:
			return
		}
	}
}

func (s *Latest[D]) Get() (D, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()
	return s.val, s.has
}

func (s *Latest[D]) Close() error { return s.r.Close() }

// LatestTTL is Latest, but the retained value expires once held
// longer than ttl.
type LatestTTL[D packing.Packable] struct {
	r   *reader[D]
	mu  sync.Mutex
	val D
	at  time.Time
	has bool
	ttl duration.Duration
}

// NewLatestTTL wraps dev with a ttl-bounded retention.
func NewLatestTTL[D packing.Packable](dev Device, newT Factory[D], chBuf int, ttl duration.Duration) *LatestTTL[D] {
	return &LatestTTL[D]{r: newReader(dev, newT, chBuf), ttl: ttl}
}

func (s *LatestTTL[D]) drain() {
	for {
		select {
		case v, ok := <-s.r.ch:
			if !ok {
				return
			}
			s.val, s.at, s.has = v, time.Now(), true
		default:
			return
		}
	}
}

func (s *LatestTTL[D]) Get() (D, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()

	if !s.has {
		var zero D
		return zero, false
	}
	if time.Since(s.at) > time.Duration(s.ttl) {
		s.has = false
		var zero D
		return zero, false
	}
	return s.val, true
}

func (s *LatestTTL[D]) Close() error { return s.r.Close() }
