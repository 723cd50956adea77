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

	"github.com/nabbar/ncomm/endpoint"
	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// Client owns a socket connected to a single server address. Requests
// are sent as pack(Req); the server's reply wire is pack(Req) ||
// pack(Res). Client decodes both halves and hands the caller the pair,
// since the framework matches a response to its request by the
// echoed bytes, not by identity.
type Client[Req packing.Packable, Res packing.Packable] struct {
	conn   *net.UDPConn
	newReq Factory[Req]
	newRes Factory[Res]
	reqLen int

	ch   chan endpoint.Pair[Req, Res]
	done chan struct{}
}

// NewClient connects a UDP socket to serverAddr. newReq/newRes
// allocate the scratch values the echoed request and the response are
// decoded into.
func NewClient[Req packing.Packable, Res packing.Packable](serverAddr string, newReq Factory[Req], newRes Factory[Res], chBuf int) (*Client[Req, Res], error) {
	raddr, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		return nil, errs.IO("resolve server address "+serverAddr, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errs.IO("dial udp "+serverAddr, err)
	}

	reqLen := newReq().Len()
	c := &Client[Req, Res]{conn: conn, newReq: newReq, newRes: newRes, reqLen: reqLen, ch: make(chan endpoint.Pair[Req, Res], chBuf), done: make(chan struct{})}
	go c.loop()
	return c, nil
}

func (c *Client[Req, Res]) loop() {
	probe := c.newRes()
	buf := make([]byte, c.reqLen+probe.Len())

	for {
		n, err := c.conn.Read(buf)
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

		res := c.newRes()
		if res.Decode(buf[c.reqLen:n]) != nil {
			continue
		}

		select {
		case c.ch <- endpoint.Pair[Req, Res]{Req: req, Res: res}:
		default:
		}
	}
}

// SendRequest encodes and writes req to the connected server.
func (c *Client[Req, Res]) SendRequest(req Req) error {
	buf, err := packing.Encode(req)
	if err != nil {
		return err
	}
	if _, err = c.conn.Write(buf); err != nil {
		return errs.IO("write request", err)
	}
	return nil
}

// PollResponses returns every response decoded since the last call,
// each paired with the echoed request it answers.
func (c *Client[Req, Res]) PollResponses() []endpoint.Pair[Req, Res] {
	var out []endpoint.Pair[Req, Res]
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

// Close releases the underlying socket.
func (c *Client[Req, Res]) Close() error {
	close(c.done)
	return c.conn.Close()
}

// LocalAddr returns the address this client's socket is bound to, for
// registration with Server.RegisterClient.
func (c *Client[Req, Res]) LocalAddr() string {
	return c.conn.LocalAddr().String()
}
