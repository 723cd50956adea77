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

	"github.com/nabbar/ncomm/atomic"
	"github.com/nabbar/ncomm/duration"
	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// record is one decoded value plus the peer address the connection
// that carried it came from.
type record[D packing.Packable] struct {
	peer string
	val  D
}

// listener accepts one connection per record: it reads exactly
// Len(D) bytes then closes the connection, matching Publisher's
// connection-per-publish contract.
type listener[D packing.Packable] struct {
	ln   net.Listener
	wl   *Whitelist
	newT Factory[D]
	ch   chan record[D]
	done chan struct{}
}

func newListener[D packing.Packable](localAddr string, wl *Whitelist, newT Factory[D], chBuf int) (*listener[D], error) {
	ln, err := net.Listen("tcp", localAddr)
	if err != nil {
		return nil, errs.IO("listen tcp "+localAddr, err)
	}

	l := &listener[D]{ln: ln, wl: wl, newT: newT, ch: make(chan record[D], chBuf), done: make(chan struct{})}
	go l.accept()
	return l, nil
}

func (l *listener[D]) accept() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
				continue
			}
		}
		go l.handle(conn)
	}
}

func (l *listener[D]) handle(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	peer := conn.RemoteAddr().String()
	if !l.wl.Allow(peer) {
		return
	}

	t := l.newT()
	buf := make([]byte, t.Len())
	if _, err := readFull(conn, buf); err != nil {
		return
	}
	if t.Decode(buf) != nil {
		return
	}

	// Retention is keyed by the peer IP: every publish dials a fresh
	// connection, so the source port changes from one record to the next.
	key := peer
	if host, _, err := net.SplitHostPort(peer); err == nil {
		key = host
	}

	select {
	case l.ch <- record[D]{peer: key, val: t}:
	default:
	}
}

// readFull reads exactly len(buf) bytes, like io.ReadFull, without
// importing io for a single call site.
func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (l *listener[D]) LocalAddr() string { return l.ln.Addr().String() }

func (l *listener[D]) Close() error {
	close(l.done)
	return l.ln.Close()
}

// Latest retains only the most recently received record.
type Latest[D packing.Packable] struct {
	ln  *listener[D]
	mu  sync.Mutex
	val D
	has bool
}

// NewLatest binds localAddr. wl may be nil to accept every peer.
func NewLatest[D packing.Packable](localAddr string, wl *Whitelist, newT Factory[D], chBuf int) (*Latest[D], error) {
	ln, err := newListener(localAddr, wl, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &Latest[D]{ln: ln}, nil
}

func (s *Latest[D]) drain() {
	for {
		select {
		case r, ok := <-s.ln.ch:
			if !ok {
				return
			}
			s.val, s.has = r.val, true
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

func (s *Latest[D]) LocalAddr() string { return s.ln.LocalAddr() }
func (s *Latest[D]) Close() error      { return s.ln.Close() }

// LatestTTL is Latest, but the retained value expires once held
// longer than ttl.
type LatestTTL[D packing.Packable] struct {
	ln  *listener[D]
	mu  sync.Mutex
	val D
	at  time.Time
	has bool
	ttl duration.Duration
}

// NewLatestTTL binds localAddr with a ttl-bounded retention.
func NewLatestTTL[D packing.Packable](localAddr string, wl *Whitelist, newT Factory[D], chBuf int, ttl duration.Duration) (*LatestTTL[D], error) {
	ln, err := newListener(localAddr, wl, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &LatestTTL[D]{ln: ln, ttl: ttl}, nil
}

func (s *LatestTTL[D]) drain() {
	for {
		select {
		case r, ok := <-s.ln.ch:
			if !ok {
				return
			}
			s.val, s.at, s.has = r.val, time.Now(), true
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

func (s *LatestTTL[D]) Close() error { return s.ln.Close() }

// Mapped retains the most recent record received from each peer IP.
type Mapped[D packing.Packable] struct {
	ln *listener[D]
	m  atomic.MapTyped[string, D]
}

// NewMapped binds localAddr, keying retained records by peer IP.
func NewMapped[D packing.Packable](localAddr string, wl *Whitelist, newT Factory[D], chBuf int) (*Mapped[D], error) {
	ln, err := newListener(localAddr, wl, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &Mapped[D]{ln: ln, m: atomic.NewMapTyped[string, D]()}, nil
}

func (s *Mapped[D]) drain() {
	for {
		select {
		case r, ok := <-s.ln.ch:
			if !ok {
				return
			}
			s.m.Store(r.peer, r.val)
		default:
			return
		}
	}
}

func (s *Mapped[D]) Snapshot() map[string]D {
	s.drain()
	out := make(map[string]D)
	s.m.Range(func(k string, v D) bool {
		out[k] = v
		return true
	})
	return out
}

func (s *Mapped[D]) Close() error { return s.ln.Close() }

type mappedEntry[D packing.Packable] struct {
	val D
	at  time.Time
}

// MappedTTL is Mapped, but entries older than ttl are dropped on
// every Snapshot.
type MappedTTL[D packing.Packable] struct {
	ln  *listener[D]
	ttl duration.Duration
	m   atomic.MapTyped[string, mappedEntry[D]]
}

// NewMappedTTL binds localAddr with ttl-bounded retention keyed by
// peer IP.
func NewMappedTTL[D packing.Packable](localAddr string, wl *Whitelist, newT Factory[D], chBuf int, ttl duration.Duration) (*MappedTTL[D], error) {
	ln, err := newListener(localAddr, wl, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &MappedTTL[D]{ln: ln, ttl: ttl, m: atomic.NewMapTyped[string, mappedEntry[D]]()}, nil
}

func (s *MappedTTL[D]) drain() {
	for {
		select {
		case r, ok := <-s.ln.ch:
			if !ok {
				return
			}
			s.m.Store(r.peer, mappedEntry[D]{val: r.val, at: time.Now()})
		default:
			return
		}
	}
}

func (s *MappedTTL[D]) Snapshot() map[string]D {
	s.drain()

	out := make(map[string]D)
	var expired []string
	s.m.Range(func(k string, e mappedEntry[D]) bool {
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

func (s *MappedTTL[D]) Close() error { return s.ln.Close() }

// Buffered appends every accepted record instead of collapsing to
// the latest one.
type Buffered[D packing.Packable] struct {
	ln  *listener[D]
	mu  sync.Mutex
	buf []D
}

// NewBuffered binds localAddr, appending every accepted record.
func NewBuffered[D packing.Packable](localAddr string, wl *Whitelist, newT Factory[D], chBuf int) (*Buffered[D], error) {
	ln, err := newListener(localAddr, wl, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &Buffered[D]{ln: ln}, nil
}

func (s *Buffered[D]) drain() {
	for {
		select {
		case r, ok := <-s.ln.ch:
			if !ok {
				return
			}
			s.buf = append(s.buf, r.val)
		default:
			return
		}
	}
}

// Drain returns every value retained since construction or the last
// ClearBuffer, in arrival order.
func (s *Buffered[D]) Drain() []D {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drain()
	return append([]D(nil), s.buf...)
}

// ClearBuffer discards every retained value.
func (s *Buffered[D]) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = nil
}

func (s *Buffered[D]) Close() error { return s.ln.Close() }
