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

package udp

import (
	"net"
	"sync"
	"time"

	"github.com/nabbar/ncomm/atomic"
	"github.com/nabbar/ncomm/duration"
	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// socket is the shared, non-blocking datagram reader every subscriber
// retention variant is built on: a background goroutine drains the
// socket into a buffered channel; Get/Snapshot calls never block on
// the network.
type socket[D packing.Packable] struct {
	conn *net.UDPConn
	newT Factory[D]
	ch   chan D
	done chan struct{}
}

func newSocket[D packing.Packable](localAddr string, newT Factory[D], chBuf int) (*socket[D], error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, errs.IO("resolve local address "+localAddr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errs.IO("listen udp "+localAddr, err)
	}

	s := &socket[D]{conn: conn, newT: newT, ch: make(chan D, chBuf), done: make(chan struct{})}
	go s.loop()
	return s, nil
}

func (s *socket[D]) loop() {
	probe := s.newT()
	buf := make([]byte, probe.Len())

	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		t := s.newT()
		if t.Decode(buf[:n]) != nil {
			continue
		}

		select {
		case s.ch <- t:
		default:
		}
	}
}

func (s *socket[D]) Close() error {
	close(s.done)
	return s.conn.Close()
}

func (s *socket[D]) LocalAddr() string {
	return s.conn.LocalAddr().String()
}

// Latest retains only the most recently received datagram.
type Latest[D packing.Packable] struct {
	sock *socket[D]
	mu   sync.Mutex
	val  D
	has  bool
}

// NewLatest binds localAddr and starts draining datagrams decoded via newT.
func NewLatest[D packing.Packable](localAddr string, newT Factory[D], chBuf int) (*Latest[D], error) {
	sock, err := newSocket(localAddr, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &Latest[D]{sock: sock}, nil
}

func (s *Latest[D]) drain() {
	for {
		select {
		case v, ok := <-s.sock.ch:
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

func (s *Latest[D]) Close() error { return s.sock.Close() }

// LocalAddr returns the address this subscriber's socket is bound to.
func (s *Latest[D]) LocalAddr() string { return s.sock.LocalAddr() }

// LatestTTL is Latest, but the retained value expires once held
// longer than ttl.
type LatestTTL[D packing.Packable] struct {
	sock *socket[D]
	mu   sync.Mutex
	val  D
	at   time.Time
	has  bool
	ttl  duration.Duration
}

// NewLatestTTL binds localAddr and starts draining datagrams decoded via newT.
func NewLatestTTL[D packing.Packable](localAddr string, newT Factory[D], chBuf int, ttl duration.Duration) (*LatestTTL[D], error) {
	sock, err := newSocket(localAddr, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &LatestTTL[D]{sock: sock, ttl: ttl}, nil
}

func (s *LatestTTL[D]) drain() {
	for {
		select {
		case v, ok := <-s.sock.ch:
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

func (s *LatestTTL[D]) Close() error { return s.sock.Close() }

// mappedSocket is like socket but also records the sender address
// alongside the decoded value, since Mapped retention for UDP keys by
// peer rather than by a caller-supplied function.
type mappedSocket[D packing.Packable] struct {
	conn *net.UDPConn
	newT Factory[D]
	ch   chan mappedDatagram[D]
	done chan struct{}
}

type mappedDatagram[D packing.Packable] struct {
	peer string
	val  D
}

func newMappedSocket[D packing.Packable](localAddr string, newT Factory[D], chBuf int) (*mappedSocket[D], error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, errs.IO("resolve local address "+localAddr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errs.IO("listen udp "+localAddr, err)
	}

	s := &mappedSocket[D]{conn: conn, newT: newT, ch: make(chan mappedDatagram[D], chBuf), done: make(chan struct{})}
	go s.loop()
	return s, nil
}

func (s *mappedSocket[D]) loop() {
	probe := s.newT()
	buf := make([]byte, probe.Len())

	for {
		n, peer, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		t := s.newT()
		if t.Decode(buf[:n]) != nil {
			continue
		}

		select {
		case s.ch <- mappedDatagram[D]{peer: peer.String(), val: t}:
		default:
		}
	}
}

func (s *mappedSocket[D]) Close() error {
	close(s.done)
	return s.conn.Close()
}

// Mapped retains the most recent value received from each peer address.
type Mapped[D packing.Packable] struct {
	sock *mappedSocket[D]
	m    atomic.MapTyped[string, D]
}

// NewMapped binds localAddr and starts draining datagrams decoded via newT.
func NewMapped[D packing.Packable](localAddr string, newT Factory[D], chBuf int) (*Mapped[D], error) {
	sock, err := newMappedSocket(localAddr, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &Mapped[D]{sock: sock, m: atomic.NewMapTyped[string, D]()}, nil
}

func (s *Mapped[D]) drain() {
	for {
		select {
		case d, ok := <-s.sock.ch:
			if !ok {
				return
			}
			s.m.Store(d.peer, d.val)
		default:
			return
		}
	}
}

// Snapshot drains pending datagrams and returns the current retained
// entries keyed by peer address.
func (s *Mapped[D]) Snapshot() map[string]D {
	s.drain()
	out := make(map[string]D)
	s.m.Range(func(k string, v D) bool {
		out[k] = v
		return true
	})
	return out
}

func (s *Mapped[D]) Close() error { return s.sock.Close() }

type mappedEntry[D packing.Packable] struct {
	val D
	at  time.Time
}

// MappedTTL is Mapped, but entries older than ttl are dropped on
// every Snapshot.
type MappedTTL[D packing.Packable] struct {
	sock *mappedSocket[D]
	ttl  duration.Duration
	m    atomic.MapTyped[string, mappedEntry[D]]
}

// NewMappedTTL binds localAddr and starts draining datagrams decoded via newT.
func NewMappedTTL[D packing.Packable](localAddr string, newT Factory[D], chBuf int, ttl duration.Duration) (*MappedTTL[D], error) {
	sock, err := newMappedSocket(localAddr, newT, chBuf)
	if err != nil {
		return nil, err
	}
	return &MappedTTL[D]{sock: sock, ttl: ttl, m: atomic.NewMapTyped[string, mappedEntry[D]]()}, nil
}

func (s *MappedTTL[D]) drain() {
	for {
		select {
		case d, ok := <-s.sock.ch:
			if !ok {
				return
			}
			s.m.Store(d.peer, mappedEntry[D]{val: d.val, at: time.Now()})
		default:
			return
		}
	}
}

// Snapshot drains pending datagrams, evicts entries older than ttl,
// and returns what remains keyed by peer address.
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

func (s *MappedTTL[D]) Close() error { return s.sock.Close() }
