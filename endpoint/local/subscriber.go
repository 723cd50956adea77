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

package local

import (
	"sync"
	"time"

	"github.com/nabbar/ncomm/atomic"
	"github.com/nabbar/ncomm/duration"
)

// Latest retains only the most recently published value: Get drains
// every value queued since the last call and reports the final one.
type Latest[D any] struct {
	ch  chan D
	mu  sync.Mutex
	val D
	has bool
}

// NewLatest registers a Latest subscriber on pub, seeded with pub's
// currently retained value if one exists.
func NewLatest[D any](pub *Publisher[D], buf int) *Latest[D] {
	s := &Latest[D]{ch: pub.register(buf)}
	if v, _, ok := pub.seedValue(); ok {
		s.val, s.has = v, true
	}
	return s
}

func (s *Latest[D]) drain() {
	for {
		select {
		case v, ok := <-s.ch:
			if !ok {
				return
			}
			s.val, s.has = v, true
		default:
			return
		}
	}
}

// Get returns the most recent value seen so far. ok is false until at
// least one value has arrived.
func (s *Latest[D]) Get() (D, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()
	return s.val, s.has
}

func (s *Latest[D]) Close() error { return nil }

// LatestTTL is Latest, but the retained value expires once it has
// been held longer than ttl.
type LatestTTL[D any] struct {
	ch  chan D
	mu  sync.Mutex
	val D
	at  time.Time
	has bool
	ttl duration.Duration
}

// NewLatestTTL registers a LatestTTL subscriber on pub. The seed from
// pub's retained value is only accepted if it is still within ttl.
func NewLatestTTL[D any](pub *Publisher[D], buf int, ttl duration.Duration) *LatestTTL[D] {
	s := &LatestTTL[D]{ch: pub.register(buf), ttl: ttl}
	if v, at, ok := pub.seedValue(); ok && time.Since(at) <= time.Duration(ttl) {
		s.val, s.at, s.has = v, at, true
	}
	return s
}

func (s *LatestTTL[D]) drain() {
	for {
		select {
		case v, ok := <-s.ch:
			if !ok {
				return
			}
			s.val, s.at, s.has = v, time.Now(), true
		default:
			return
		}
	}
}

// Get returns the retained value if one has arrived and has not
// exceeded its TTL; otherwise ok is false.
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

func (s *LatestTTL[D]) Close() error { return nil }

// Mapped retains one value per key, computed from each arriving value
// by a caller-supplied key function.
type Mapped[K comparable, D any] struct {
	ch chan D
	h  func(D) K
	m  atomic.MapTyped[K, D]
}

// NewMapped registers a Mapped subscriber on pub, keyed by h.
func NewMapped[K comparable, D any](pub *Publisher[D], buf int, h func(D) K) *Mapped[K, D] {
	s := &Mapped[K, D]{ch: pub.register(buf), h: h, m: atomic.NewMapTyped[K, D]()}
	if v, _, ok := pub.seedValue(); ok {
		s.m.Store(h(v), v)
	}
	return s
}

func (s *Mapped[K, D]) drain() {
	for {
		select {
		case v, ok := <-s.ch:
			if !ok {
				return
			}
			s.m.Store(s.h(v), v)
		default:
			return
		}
	}
}

// Snapshot drains pending values and returns the current retained
// entries keyed by K.
func (s *Mapped[K, D]) Snapshot() map[K]D {
	s.drain()
	out := make(map[K]D)
	s.m.Range(func(k K, v D) bool {
		out[k] = v
		return true
	})
	return out
}

func (s *Mapped[K, D]) Close() error { return nil }

type mappedEntry[D any] struct {
	val D
	at  time.Time
}

// MappedTTL is Mapped, but entries older than ttl are dropped on
// every Snapshot.
type MappedTTL[K comparable, D any] struct {
	ch  chan D
	h   func(D) K
	ttl duration.Duration
	m   atomic.MapTyped[K, mappedEntry[D]]
}

// NewMappedTTL registers a MappedTTL subscriber on pub, keyed by h.
func NewMappedTTL[K comparable, D any](pub *Publisher[D], buf int, h func(D) K, ttl duration.Duration) *MappedTTL[K, D] {
	s := &MappedTTL[K, D]{ch: pub.register(buf), h: h, ttl: ttl, m: atomic.NewMapTyped[K, mappedEntry[D]]()}
	if v, at, ok := pub.seedValue(); ok && time.Since(at) <= time.Duration(ttl) {
		s.m.Store(h(v), mappedEntry[D]{val: v, at: at})
	}
	return s
}

func (s *MappedTTL[K, D]) drain() {
	for {
		select {
		case v, ok := <-s.ch:
			if !ok {
				return
			}
			s.m.Store(s.h(v), mappedEntry[D]{val: v, at: time.Now()})
		default:
			return
		}
	}
}

// Snapshot drains pending values, evicts entries older than ttl, and
// returns what remains keyed by K.
func (s *MappedTTL[K, D]) Snapshot() map[K]D {
	s.drain()

	out := make(map[K]D)
	var expired []K
	s.m.Range(func(k K, e mappedEntry[D]) bool {
		if time.Since(e.at) > time.Duration(s.ttl) {
			expired = append(expired, k)
			return true
		}
		out[k] = e.val
		return true
	})
	for _, k := range expired {
		s.m.Delete(k)
	}
	return out
}

func (s *MappedTTL[K, D]) Close() error { return nil }
