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

	"github.com/nabbar/ncomm/endpoint"
	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// Server accepts one persistent connection per client and maintains
// an explicit K -> address registry, exactly like udp.Server: the
// framework never infers a key from an inbound connection. A
// connection from an address not yet registered is held pending
// until RegisterClient names it, so callers may dial before or after
// registering.
type Server[Req packing.Packable, Res packing.Packable, K comparable] struct {
	ln     net.Listener
	wl     *Whitelist
	newReq Factory[Req]

	mu      sync.Mutex
	byAddr  map[string]K
	pending map[string]net.Conn
	conns   map[K]net.Conn

	reqs chan endpoint.Request[Req, K]
	done chan struct{}
}

// NewServer binds a TCP listener to localAddr. wl may be nil to
// accept connections from every peer.
func NewServer[Req packing.Packable, Res packing.Packable, K comparable](localAddr string, wl *Whitelist, newReq Factory[Req], chBuf int) (*Server[Req, Res, K], error) {
	ln, err := net.Listen("tcp", localAddr)
	if err != nil {
		return nil, errs.IO("listen tcp "+localAddr, err)
	}

	s := &Server[Req, Res, K]{
		ln:      ln,
		wl:      wl,
		newReq:  newReq,
		byAddr:  make(map[string]K),
		pending: make(map[string]net.Conn),
		conns:   make(map[K]net.Conn),
		reqs:    make(chan endpoint.Request[Req, K], chBuf),
		done:    make(chan struct{}),
	}
	go s.accept()
	return s, nil
}

// RegisterClient associates key with the local address a Client
// dialed from (Client.LocalAddr()). Registration is the caller's
// explicit side-channel responsibility.
func (s *Server[Req, Res, K]) RegisterClient(key K, addr string) error {
	s.mu.Lock()
	s.byAddr[addr] = key
	conn, ok := s.pending[addr]
	if ok {
		delete(s.pending, addr)
	}
	s.mu.Unlock()

	if ok {
		s.attach(key, conn)
	}
	return nil
}

func (s *Server[Req, Res, K]) accept() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		addr := conn.RemoteAddr().String()
		if !s.wl.Allow(addr) {
			_ = conn.Close()
			continue
		}

		s.mu.Lock()
		key, known := s.byAddr[addr]
		if known {
			s.mu.Unlock()
			s.attach(key, conn)
			continue
		}
		s.pending[addr] = conn
		s.mu.Unlock()
	}
}

func (s *Server[Req, Res, K]) attach(key K, conn net.Conn) {
	s.mu.Lock()
	s.conns[key] = conn
	s.mu.Unlock()
	go s.readLoop(key, conn)
}

func (s *Server[Req, Res, K]) readLoop(key K, conn net.Conn) {
	probe := s.newReq()
	buf := make([]byte, probe.Len())

	for {
		if _, err := readFull(conn, buf); err != nil {
			return
		}

		req := s.newReq()
		if req.Decode(buf) != nil {
			continue
		}

		select {
		case s.reqs <- endpoint.Request[Req, K]{Key: key, Req: req}:
		default:
		}
	}
}

// PollRequests drains every request received from a registered client
// since the last call.
func (s *Server[Req, Res, K]) PollRequests() []endpoint.Request[Req, K] {
	var out []endpoint.Request[Req, K]
	for {
		select {
		case r := <-s.reqs:
			out = append(out, r)
		default:
			return out
		}
	}
}

// SendResponse writes pack(req) || pack(res) to the connection
// registered under key, echoing req exactly as the caller supplied
// it, matching the udp binding's wire shape.
func (s *Server[Req, Res, K]) SendResponse(key K, req Req, res Res) error {
	s.mu.Lock()
	conn, ok := s.conns[key]
	s.mu.Unlock()
	if !ok {
		return errs.UnknownClient("no connection registered for key")
	}

	echo, err := packing.Encode(req)
	if err != nil {
		return err
	}
	payload, err := packing.Encode(res)
	if err != nil {
		return err
	}
	if _, err = conn.Write(append(echo, payload...)); err != nil {
		return errs.IO("write response", err)
	}
	return nil
}

// SendResponses is the vector form of SendResponse: it sends every
// entry in order and returns one error per input item at the same
// index.
func (s *Server[Req, Res, K]) SendResponses(responses []endpoint.Response[Req, Res, K]) []error {
	out := make([]error, len(responses))
	for i, r := range responses {
		out[i] = s.SendResponse(r.Key, r.Req, r.Res)
	}
	return out
}

// LocalAddr returns the address this server's listener is bound to.
func (s *Server[Req, Res, K]) LocalAddr() string {
	return s.ln.Addr().String()
}

// Close releases the listener and every attached connection.
func (s *Server[Req, Res, K]) Close() error {
	close(s.done)
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	for _, c := range s.pending {
		_ = c.Close()
	}
	s.mu.Unlock()
	return s.ln.Close()
}
