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

// Package tcp implements connection-oriented pub/sub and
// request/response bindings over net.TCPConn. A publish is one
// connection: the publisher dials, writes the packing.Packable wire
// bytes, and closes; a subscriber's listener accepts, reads exactly
// one record, and closes. Request/response and update bindings keep a
// persistent connection per client instead.
package tcp

import (
	"net"
	"strings"
	"sync"
)

// Whitelist is an allow-list of peer IPs and CIDR ranges. A nil
// Whitelist (the zero value's pointer) allows every peer; an empty,
// constructed Whitelist allows no peer.
type Whitelist struct {
	mu   sync.RWMutex
	ips  map[string]struct{}
	nets []*net.IPNet
}

// NewWhitelist parses entries as either bare IPs or CIDR ranges.
func NewWhitelist(entries ...string) (*Whitelist, error) {
	w := &Whitelist{ips: make(map[string]struct{})}
	for _, e := range entries {
		if err := w.Add(e); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Add inserts one more IP or CIDR range into the allow-list.
func (w *Whitelist) Add(entry string) error {
	if strings.Contains(entry, "/") {
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return err
		}
		w.mu.Lock()
		w.nets = append(w.nets, n)
		w.mu.Unlock()
		return nil
	}

	ip := net.ParseIP(entry)
	if ip == nil {
		return &net.ParseError{Type: "IP address", Text: entry}
	}
	w.mu.Lock()
	w.ips[ip.String()] = struct{}{}
	w.mu.Unlock()
	return nil
}

// Allow reports whether addr (a "host:port" or bare host string) is
// permitted. A nil receiver allows everything.
func (w *Whitelist) Allow(addr string) bool {
	if w == nil {
		return true
	}

	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	if _, ok := w.ips[ip.String()]; ok {
		return true
	}
	for _, n := range w.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
