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

// UpdateServer is a Server that can additionally push an update to a
// client outside of the request/response cycle. A TCP connection is
// directional traffic on a shared pipe only by mutual agreement, so
// rather than multiplex updates onto the request/response connection,
// UpdateServer listens on a second address dedicated to updates; each
// UpdateClient dials it once and registers that connection via
// RegisterUpdatePeer, mirroring the request registration on Server.
type UpdateServer[Req packing.Packable, U packing.Packable, Res packing.Packable, K comparable] struct {
	*Server[Req, Res, K]

	uln net.Listener

	mu      sync.Mutex
	byAddr  map[string]K
	pending map[string]net.Conn
	conns   map[K]net.Conn

	done chan struct{}
}

// NewUpdateServer binds localAddr for requests/responses, exactly
// like NewServer, and updateAddr for the dedicated update channel.
func NewUpdateServer[Req packing.Packable, U packing.Packable, Res packing.Packable, K comparable](localAddr, updateAddr string, wl *Whitelist, newReq Factory[Req], chBuf int) (*UpdateServer[Req, U, Res, K], error) {
	srv, err := NewServer[Req, Res, K](localAddr, wl, newReq, chBuf)
	if err != nil {
		return nil, err
	}

	uln, err := net.Listen("tcp", updateAddr)
	if err != nil {
		_ = srv.Close()
		return nil, errs.IO("listen tcp "+updateAddr, err)
	}

	s := &UpdateServer[Req, U, Res, K]{
		Server:  srv,
		uln:     uln,
		byAddr:  make(map[string]K),
		pending: make(map[string]net.Conn),
		conns:   make(map[K]net.Conn),
		done:    make(chan struct{}),
	}
	go s.accept()
	return s, nil
}

// UpdateAddr returns the address this server's update listener is
// bound to, for the caller to pass to UpdateClient's constructor.
func (s *UpdateServer[Req, U, Res, K]) UpdateAddr() string {
	return s.uln.Addr().String()
}

// RegisterUpdatePeer associates key with the local address an
// UpdateClient dialed the update listener from (UpdateClient.UpdateAddr()).
func (s *UpdateServer[Req, U, Res, K]) RegisterUpdatePeer(key K, addr string) error {
	s.mu.Lock()
	s.byAddr[addr] = key
	conn, ok := s.pending[addr]
	if ok {
		delete(s.pending, addr)
	}
	s.mu.Unlock()

	if ok {
		s.mu.Lock()
		s.conns[key] = conn
		s.mu.Unlock()
	}
	return nil
}

func (s *UpdateServer[Req, U, Res, K]) accept() {
	for {
		conn, err := s.uln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}

		addr := conn.RemoteAddr().String()
		if !s.Server.wl.Allow(addr) {
			_ = conn.Close()
			continue
		}

		s.mu.Lock()
		key, known := s.byAddr[addr]
		if known {
			s.conns[key] = conn
			s.mu.Unlock()
			continue
		}
		s.pending[addr] = conn
		s.mu.Unlock()
	}
}

// SendUpdate writes pack(req) || pack(update) to the update
// connection registered under key, echoing req exactly as the caller
// supplied it.
func (s *UpdateServer[Req, U, Res, K]) SendUpdate(key K, req Req, update U) error {
	s.mu.Lock()
	conn, ok := s.conns[key]
	s.mu.Unlock()
	if !ok {
		return errs.UnknownClient("no update peer registered for key")
	}

	echo, err := packing.Encode(req)
	if err != nil {
		return err
	}
	payload, err := packing.Encode(update)
	if err != nil {
		return err
	}
	if _, err = conn.Write(append(echo, payload...)); err != nil {
		return errs.IO("write update", err)
	}
	return nil
}

// SendUpdates is the vector form of SendUpdate: it sends every entry
// in order and returns one error per input item at the same index.
func (s *UpdateServer[Req, U, Res, K]) SendUpdates(updates []endpoint.Update[Req, U, K]) []error {
	out := make([]error, len(updates))
	for i, u := range updates {
		out[i] = s.SendUpdate(u.Key, u.Req, u.U)
	}
	return out
}

// Close releases the update listener and its connections, plus the
// embedded request/response server.
func (s *UpdateServer[Req, U, Res, K]) Close() error {
	close(s.done)
	s.mu.Lock()
	for _, c := range s.conns {
		_ = c.Close()
	}
	for _, c := range s.pending {
		_ = c.Close()
	}
	s.mu.Unlock()
	_ = s.uln.Close()
	return s.Server.Close()
}

// UpdateClient is a Client that additionally dials the server's
// update listener to receive updates pushed outside of the
// request/response cycle.
type UpdateClient[Req packing.Packable, U packing.Packable, Res packing.Packable] struct {
	*Client[Req, Res]

	newReq Factory[Req]
	reqLen int
	uconn  net.Conn
	newUpd Factory[U]

	ch   chan endpoint.Pair[Req, U]
	done chan struct{}
}

// NewUpdateClient dials serverAddr for requests/responses and
// updateAddr for the dedicated update channel. The returned client's
// UpdateAddr must be registered with the server via
// UpdateServer.RegisterUpdatePeer before updates can be delivered.
func NewUpdateClient[Req packing.Packable, U packing.Packable, Res packing.Packable](serverAddr, updateAddr string, newReq Factory[Req], newRes Factory[Res], newUpd Factory[U], chBuf int) (*UpdateClient[Req, U, Res], error) {
	cli, err := NewClient[Req, Res](serverAddr, newReq, newRes, chBuf)
	if err != nil {
		return nil, err
	}

	uconn, err := net.Dial("tcp", updateAddr)
	if err != nil {
		_ = cli.Close()
		return nil, errs.IO("dial tcp "+updateAddr, err)
	}

	c := &UpdateClient[Req, U, Res]{
		Client: cli,
		newReq: newReq,
		reqLen: newReq().Len(),
		uconn:  uconn,
		newUpd: newUpd,
		ch:     make(chan endpoint.Pair[Req, U], chBuf),
		done:   make(chan struct{}),
	}
	go c.loop()
	return c, nil
}

// UpdateAddr returns the local address of this client's update
// connection, for the caller to pass to RegisterUpdatePeer.
func (c *UpdateClient[Req, U, Res]) UpdateAddr() string {
	return c.uconn.LocalAddr().String()
}

func (c *UpdateClient[Req, U, Res]) loop() {
	probe := c.newUpd()
	buf := make([]byte, c.reqLen+probe.Len())

	for {
		if _, err := readFull(c.uconn, buf); err != nil {
			return
		}

		req := c.newReq()
		if req.Decode(buf[:c.reqLen]) != nil {
			continue
		}

		u := c.newUpd()
		if u.Decode(buf[c.reqLen:]) != nil {
			continue
		}

		select {
		case c.ch <- endpoint.Pair[Req, U]{Req: req, Res: u}:
		default:
		}
	}
}

// PollUpdates returns every update received since the last call, each
// paired with the echoed request it was pushed for.
func (c *UpdateClient[Req, U, Res]) PollUpdates() []endpoint.Pair[Req, U] {
	var out []endpoint.Pair[Req, U]
	for {
		select {
		case p, ok := <-c.ch:
			if !ok {
				return out
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

// Close releases both the request/response connection and the update connection.
func (c *UpdateClient[Req, U, Res]) Close() error {
	close(c.done)
	_ = c.uconn.Close()
	return c.Client.Close()
}
