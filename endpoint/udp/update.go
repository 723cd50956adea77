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

	"github.com/nabbar/ncomm/endpoint"
	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// UpdateServer is a Server that can additionally push an update to a
// client outside of the request/response cycle. Since the response
// and update wires share the same pack(Req) || pack(payload) shape,
// updates are demultiplexed from responses by address rather than by
// a wire-level tag: the server sends updates to a second address each
// client registers via RegisterUpdatePeer, separate from the address
// it registered for responses.
type UpdateServer[Req packing.Packable, U packing.Packable, Res packing.Packable, K comparable] struct {
	*Server[Req, Res, K]

	mu          sync.Mutex
	updatePeers map[K]*net.UDPAddr
}

// NewUpdateServer binds localAddr for requests and responses, exactly
// like NewServer.
func NewUpdateServer[Req packing.Packable, U packing.Packable, Res packing.Packable, K comparable](localAddr string, newReq Factory[Req], chBuf int) (*UpdateServer[Req, U, Res, K], error) {
	srv, err := NewServer[Req, Res, K](localAddr, newReq, chBuf)
	if err != nil {
		return nil, err
	}
	return &UpdateServer[Req, U, Res, K]{Server: srv, updatePeers: make(map[K]*net.UDPAddr)}, nil
}

// RegisterUpdatePeer associates key with the address a client's
// UpdateClient is listening on for updates. Like RegisterClient, this
// is an explicit caller-facing side-channel responsibility.
func (s *UpdateServer[Req, U, Res, K]) RegisterUpdatePeer(key K, addr string) error {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return errs.IO("resolve update peer address "+addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatePeers[key] = a
	return nil
}

// SendUpdate writes pack(req) || pack(update) to the address
// registered for key's updates, echoing req exactly as the caller
// supplied it. An unregistered key surfaces as UnknownClient.
func (s *UpdateServer[Req, U, Res, K]) SendUpdate(key K, req Req, update U) error {
	payload, err := packing.Encode(update)
	if err != nil {
		return err
	}

	s.mu.Lock()
	addr, ok := s.updatePeers[key]
	s.mu.Unlock()
	if !ok {
		return errs.UnknownClient("no update peer registered for key")
	}

	echo, err := packing.Encode(req)
	if err != nil {
		return err
	}

	wire := append(echo, payload...)
	if _, err = s.Server.conn.WriteToUDP(wire, addr); err != nil {
		return errs.IO("write update to "+addr.String(), err)
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

// UpdateClient is a Client that additionally listens, on a second
// local socket, for updates the server pushes outside of the
// request/response cycle.
type UpdateClient[Req packing.Packable, U packing.Packable, Res packing.Packable] struct {
	*Client[Req, Res]

	newReq     Factory[Req]
	reqLen     int
	updateConn *net.UDPConn
	newUpd     Factory[U]

	ch   chan endpoint.Pair[Req, U]
	done chan struct{}
}

// NewUpdateClient connects to serverAddr for requests/responses and
// binds localUpdateAddr to receive pushed updates. The returned
// client's UpdateAddr must be registered with the server via
// UpdateServer.RegisterUpdatePeer before updates can be delivered.
func NewUpdateClient[Req packing.Packable, U packing.Packable, Res packing.Packable](serverAddr, localUpdateAddr string, newReq Factory[Req], newRes Factory[Res], newUpd Factory[U], chBuf int) (*UpdateClient[Req, U, Res], error) {
	cli, err := NewClient[Req, Res](serverAddr, newReq, newRes, chBuf)
	if err != nil {
		return nil, err
	}

	laddr, err := net.ResolveUDPAddr("udp", localUpdateAddr)
	if err != nil {
		_ = cli.Close()
		return nil, errs.IO("resolve local update address "+localUpdateAddr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		_ = cli.Close()
		return nil, errs.IO("listen udp "+localUpdateAddr, err)
	}

	c := &UpdateClient[Req, U, Res]{
		Client:     cli,
		newReq:     newReq,
		reqLen:     newReq().Len(),
		updateConn: conn,
		newUpd:     newUpd,
		ch:         make(chan endpoint.Pair[Req, U], chBuf),
		done:       make(chan struct{}),
	}
	go c.loop()
	return c, nil
}

// UpdateAddr returns the local address this client listens on for
// pushed updates, for the caller to pass to RegisterUpdatePeer.
func (c *UpdateClient[Req, U, Res]) UpdateAddr() string {
	return c.updateConn.LocalAddr().String()
}

func (c *UpdateClient[Req, U, Res]) loop() {
	probe := c.newUpd()
	buf := make([]byte, c.reqLen+probe.Len())

	for {
		n, err := c.updateConn.Read(buf)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
				continue
			}
		}
		if n < c.reqLen {
			continue
		}

		req := c.newReq()
		if req.Decode(buf[:c.reqLen]) != nil {
			continue
		}

		u := c.newUpd()
		if u.Decode(buf[c.reqLen:n]) != nil {
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

// Close releases both the request/response socket and the update socket.
func (c *UpdateClient[Req, U, Res]) Close() error {
	close(c.done)
	_ = c.updateConn.Close()
	return c.Client.Close()
}
