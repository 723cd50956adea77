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

	"github.com/hashicorp/go-uuid"

	"github.com/nabbar/ncomm/endpoint"
	"github.com/nabbar/ncomm/errs"
)

type chanPair[Req any, Res any] struct {
	req chan Req
	res chan endpoint.Pair[Req, Res]
}

// Server owns a registry of clients keyed by K. Creating a client
// installs a request/response channel pair; PollRequests drains every
// client's request channel in registration order. Routing a response
// to an unknown key is a silent no-op, since this binding is
// infallible.
type Server[Req any, Res any, K comparable] struct {
	mu      sync.Mutex
	buf     int
	clients map[K]*chanPair[Req, Res]
	order   []K
}

// NewServer builds an empty Server whose client channels are created
// with the given buffer depth.
func NewServer[Req any, Res any, K comparable](buf int) *Server[Req, Res, K] {
	return &Server[Req, Res, K]{buf: buf, clients: make(map[K]*chanPair[Req, Res])}
}

// NewClientKey generates a random key for a caller that has no
// natural client key of its own and registers its Server with a
// string-keyed client. The most common instantiation of Server is
// keyed by string specifically so callers can use this.
func NewClientKey[Req any, Res any](s *Server[Req, Res, string]) (*Client[Req, Res, string], string, error) {
	key, err := uuid.GenerateUUID()
	if err != nil {
		return nil, "", errs.Internal("generate local endpoint client key", err)
	}
	return s.NewClient(key), key, nil
}

// NewClient registers a client under key, replacing any prior client
// registered under the same key, and returns its handle.
func (s *Server[Req, Res, K]) NewClient(key K) *Client[Req, Res, K] {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair := &chanPair[Req, Res]{req: make(chan Req, s.buf), res: make(chan endpoint.Pair[Req, Res], s.buf)}
	if _, exists := s.clients[key]; !exists {
		s.order = append(s.order, key)
	}
	s.clients[key] = pair
	return &Client[Req, Res, K]{key: key, pair: pair}
}

// PollRequests drains every registered client's request channel, in
// registration order, and returns one Request per pending item.
func (s *Server[Req, Res, K]) PollRequests() []endpoint.Request[Req, K] {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []endpoint.Request[Req, K]
	for _, k := range s.order {
		pair, ok := s.clients[k]
		if !ok {
			continue
		}
	drain:
		for {
			select {
			case r, ok := <-pair.req:
				if !ok {
					break drain
				}
				out = append(out, endpoint.Request[Req, K]{Key: k, Req: r})
			default:
				break drain
			}
		}
	}
	return out
}

// SendResponse routes res, echoed alongside req, to the client
// registered under key. An unknown key is a no-op, not an error.
func (s *Server[Req, Res, K]) SendResponse(key K, req Req, res Res) error {
	s.mu.Lock()
	pair, ok := s.clients[key]
	s.mu.Unlock()

	if !ok {
		return nil
	}
	pair.res <- endpoint.Pair[Req, Res]{Req: req, Res: res}
	return nil
}

// SendResponses is the vector form of SendResponse: it routes each
// entry in order and returns one nil error per input item, since this
// binding is infallible.
func (s *Server[Req, Res, K]) SendResponses(responses []endpoint.Response[Req, Res, K]) []error {
	out := make([]error, len(responses))
	for i, r := range responses {
		out[i] = s.SendResponse(r.Key, r.Req, r.Res)
	}
	return out
}

// Close releases every registered client's channels.
func (s *Server[Req, Res, K]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pair := range s.clients {
		close(pair.req)
		close(pair.res)
	}
	s.clients = make(map[K]*chanPair[Req, Res])
	s.order = nil
	return nil
}

// Client is the handle a caller uses to talk to a Server: SendRequest
// enqueues a request, PollResponses drains every queued response.
type Client[Req any, Res any, K comparable] struct {
	key  K
	pair *chanPair[Req, Res]
}

// SendRequest enqueues req on the client's request channel.
func (c *Client[Req, Res, K]) SendRequest(req Req) error {
	c.pair.req <- req
	return nil
}

// PollResponses returns every response queued since the last call,
// each paired with the request the server echoed alongside it.
func (c *Client[Req, Res, K]) PollResponses() []endpoint.Pair[Req, Res] {
	var out []endpoint.Pair[Req, Res]
	for {
		select {
		case p, ok := <-c.pair.res:
			if !ok {
				return out
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

func (c *Client[Req, Res, K]) Close() error { return nil }
