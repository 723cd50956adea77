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

// Server receives requests on a single UDP socket and maintains an
// explicit K -> address registry: the framework never auto-registers
// a peer from an inbound datagram. A request from an address not
// present in the registry is dropped without being reported: it is
// not returned by PollRequests and produces no UnknownRequester error.
// Addressing an unregistered K surfaces as UnknownClient.
type Server[Req packing.Packable, Res packing.Packable, K comparable] struct {
	conn   *net.UDPConn
	newReq Factory[Req]

	mu     sync.Mutex
	peers  map[K]*net.UDPAddr
	byAddr map[string]K

	pending chan endpoint.Request[Req, K]
	done    chan struct{}
}

// NewServer binds a UDP socket to localAddr. newReq allocates the
// scratch value each inbound request is decoded into.
func NewServer[Req packing.Packable, Res packing.Packable, K comparable](localAddr string, newReq Factory[Req], chBuf int) (*Server[Req, Res, K], error) {
	laddr, err := net.ResolveUDPAddr("udp", localAddr)
	if err != nil {
		return nil, errs.IO("resolve local address "+localAddr, err)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errs.IO("listen udp "+localAddr, err)
	}

	s := &Server[Req, Res, K]{
		conn:    conn,
		newReq:  newReq,
		peers:   make(map[K]*net.UDPAddr),
		byAddr:  make(map[string]K),
		pending: make(chan endpoint.Request[Req, K], chBuf),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// RegisterClient associates key with a peer address. Registration is
// the caller's explicit side-channel responsibility; the server never
// infers it from traffic.
func (s *Server[Req, Res, K]) RegisterClient(key K, addr string) error {
	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return errs.IO("resolve client address "+addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[key] = a
	s.byAddr[a.String()] = key
	return nil
}

func (s *Server[Req, Res, K]) loop() {
	probe := s.newReq()
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

		s.mu.Lock()
		key, known := s.byAddr[peer.String()]
		s.mu.Unlock()
		if !known {
			continue // UnknownRequester: silently dropped, matching the non-blocking read contract
		}

		req := s.newReq()
		if req.Decode(buf[:n]) != nil {
			continue
		}

		select {
		case s.pending <- endpoint.Request[Req, K]{Key: key, Req: req}:
		default:
		}
	}
}

// PollRequests drains every request received from a registered peer
// since the last call.
func (s *Server[Req, Res, K]) PollRequests() []endpoint.Request[Req, K] {
	var out []endpoint.Request[Req, K]
	for {
		select {
		case r := <-s.pending:
			out = append(out, r)
		default:
			return out
		}
	}
}

// send writes pack(req) || payload (the echoed request followed by
// the res/update wire bytes) to the peer registered under key.
func (s *Server[Req, Res, K]) send(key K, req Req, payload []byte) error {
	s.mu.Lock()
	addr, ok := s.peers[key]
	s.mu.Unlock()

	if !ok {
		return errs.UnknownClient("no peer registered for key")
	}

	echo, err := packing.Encode(req)
	if err != nil {
		return err
	}

	wire := append(echo, payload...)
	if _, err = s.conn.WriteToUDP(wire, addr); err != nil {
		return errs.IO("write to "+addr.String(), err)
	}
	return nil
}

// SendResponse writes pack(req) || pack(res) to the peer registered
// under key, echoing req exactly as the caller supplied it.
func (s *Server[Req, Res, K]) SendResponse(key K, req Req, res Res) error {
	payload, err := packing.Encode(res)
	if err != nil {
		return err
	}
	return s.send(key, req, payload)
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

// Close releases the underlying socket.
func (s *Server[Req, Res, K]) Close() error {
	close(s.done)
	return s.conn.Close()
}

// LocalAddr returns the address this server's socket is bound to.
func (s *Server[Req, Res, K]) LocalAddr() string {
	return s.conn.LocalAddr().String()
}
