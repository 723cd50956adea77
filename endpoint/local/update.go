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

	"github.com/nabbar/ncomm/endpoint"
)

type chanTriple[Req any, U any, Res any] struct {
	req chan Req
	upd chan endpoint.Pair[Req, U]
	res chan endpoint.Pair[Req, Res]
}

// UpdateServer is Server plus a per-client update channel the server
// can push to outside of the request/response cycle.
type UpdateServer[Req any, U any, Res any, K comparable] struct {
	mu      sync.Mutex
	buf     int
	clients map[K]*chanTriple[Req, U, Res]
	order   []K
}

// NewUpdateServer builds an empty UpdateServer whose client channels
// are created with the given buffer depth.
func NewUpdateServer[Req any, U any, Res any, K comparable](buf int) *UpdateServer[Req, U, Res, K] {
	return &UpdateServer[Req, U, Res, K]{buf: buf, clients: make(map[K]*chanTriple[Req, U, Res])}
}

// NewClient registers a client under key, replacing any prior client
// registered under the same key, and returns its handle.
func (s *UpdateServer[Req, U, Res, K]) NewClient(key K) *UpdateClient[Req, U, Res, K] {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &chanTriple[Req, U, Res]{
		req: make(chan Req, s.buf),
		upd: make(chan endpoint.Pair[Req, U], s.buf),
		res: make(chan endpoint.Pair[Req, Res], s.buf),
	}
	if _, exists := s.clients[key]; !exists {
		s.order = append(s.order, key)
	}
	s.clients[key] = t
	return &UpdateClient[Req, U, Res, K]{key: key, t: t}
}

// PollRequests drains every registered client's request channel, in
// registration order.
func (s *UpdateServer[Req, U, Res, K]) PollRequests() []endpoint.Request[Req, K] {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []endpoint.Request[Req, K]
	for _, k := range s.order {
		t, ok := s.clients[k]
		if !ok {
			continue
		}
	drain:
		for {
			select {
			case r, ok := <-t.req:
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
// registered under key. An unknown key is a no-op.
func (s *UpdateServer[Req, U, Res, K]) SendResponse(key K, req Req, res Res) error {
	s.mu.Lock()
	t, ok := s.clients[key]
	s.mu.Unlock()

	if !ok {
		return nil
	}
	t.res <- endpoint.Pair[Req, Res]{Req: req, Res: res}
	return nil
}

// SendResponses is the vector form of SendResponse: it routes each
// entry in order and returns one nil error per input item.
func (s *UpdateServer[Req, U, Res, K]) SendResponses(responses []endpoint.Response[Req, Res, K]) []error {
	out := make([]error, len(responses))
	for i, r := range responses {
		out[i] = s.SendResponse(r.Key, r.Req, r.Res)
	}
	return out
}

// SendUpdate pushes update, echoed alongside req, to the client
// registered under key, outside of the request/response cycle. An
// unknown key is a no-op.
func (s *UpdateServer[Req, U, Res, K]) SendUpdate(key K, req Req, update U) error {
	s.mu.Lock()
	t, ok := s.clients[key]
	s.mu.Unlock()

	if !ok {
		return nil
	}
	t.upd <- endpoint.Pair[Req, U]{Req: req, Res: update}
	return nil
}

// SendUpdates is the vector form of SendUpdate.
func (s *UpdateServer[Req, U, Res, K]) SendUpdates(updates []endpoint.Update[Req, U, K]) []error {
	out := make([]error, len(updates))
	for i, u := range updates {
		out[i] = s.SendUpdate(u.Key, u.Req, u.U)
	}
	return out
}

// Close releases every registered client's channels.
func (s *UpdateServer[Req, U, Res, K]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.clients {
		close(t.req)
		close(t.upd)
		close(t.res)
	}
	s.clients = make(map[K]*chanTriple[Req, U, Res])
	s.order = nil
	return nil
}

// UpdateClient is Client plus PollUpdates, draining updates the server
// pushed outside of the request/response cycle.
type UpdateClient[Req any, U any, Res any, K comparable] struct {
	key K
	t   *chanTriple[Req, U, Res]
}

// SendRequest enqueues req on the client's request channel.
func (c *UpdateClient[Req, U, Res, K]) SendRequest(req Req) error {
	c.t.req <- req
	return nil
}

// PollResponses returns every response queued since the last call,
// each paired with the request the server echoed alongside it.
func (c *UpdateClient[Req, U, Res, K]) PollResponses() []endpoint.Pair[Req, Res] {
	var out []endpoint.Pair[Req, Res]
	for {
		select {
		case p, ok := <-c.t.res:
			if !ok {
				return out
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

// PollUpdates returns every update queued since the last call, each
// paired with the request it was pushed for.
func (c *UpdateClient[Req, U, Res, K]) PollUpdates() []endpoint.Pair[Req, U] {
	var out []endpoint.Pair[Req, U]
	for {
		select {
		case p, ok := <-c.t.upd:
			if !ok {
				return out
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

func (c *UpdateClient[Req, U, Res, K]) Close() error { return nil }
