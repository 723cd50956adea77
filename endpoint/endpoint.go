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

// Package endpoint declares the transport-agnostic pub/sub and
// request/response contracts every binding (local, udp, tcp, serial)
// implements. Every method here is synchronous and non-blocking
// unless a binding's own doc comment says otherwise.
package endpoint

import "io"

// Publisher broadcasts a value of type D to every destination it
// currently knows about. A multi-destination failure is reported as a
// single aggregated error (see errs.Fanout); a fully-successful
// publish returns nil.
type Publisher[D any] interface {
	io.Closer
	Publish(d D) error
}

// Subscriber drains whatever arrived since the last Get and applies
// its retention policy (Latest, Latest+TTL, Mapped, Mapped+TTL,
// Buffered) to the result.
type Subscriber[T any] interface {
	io.Closer
	// Get returns the current retained view. ok is false if the
	// policy has nothing to report (e.g. nothing seen yet, or the
	// single retained value expired).
	Get() (value T, ok bool)
}

// MappedSubscriber is a Subscriber whose retention policy keeps one
// entry per key instead of a single scalar value.
type MappedSubscriber[K comparable, T any] interface {
	io.Closer
	// Snapshot returns the current retained entries keyed by K.
	Snapshot() map[K]T
}

// BufferedSubscriber is a Subscriber that appends every accepted
// value instead of collapsing to the latest one.
type BufferedSubscriber[T any] interface {
	io.Closer
	// Drain returns every value retained since construction or the
	// last ClearBuffer, in arrival order.
	Drain() []T
	// ClearBuffer discards every retained value.
	ClearBuffer()
}

// Pair couples a received response (or pushed update) with the
// request it was produced for, exactly as the server echoed it back.
// The framework never matches requests by identity: a client only
// knows which request a response answers because the server returns
// the request bytes alongside it.
type Pair[Req any, Res any] struct {
	Req Req
	Res Res
}

// Client sends a request and, for bindings where the round trip is
// driven by the client, receives the matching response.
type Client[Req any, Res any] interface {
	io.Closer
	// SendRequest transmits req.
	SendRequest(req Req) error
	// PollResponses returns every response received since the last
	// call, each paired with the request the server echoed alongside it.
	PollResponses() []Pair[Req, Res]
}

// Response is one entry of the Server.SendResponses vector form: the
// client to answer, the request being answered, and the response to
// send. The request is carried explicitly, not re-derived by the
// binding, because the server is the one that must echo it.
type Response[Req any, Res any, K comparable] struct {
	Key K
	Req Req
	Res Res
}

// Server owns a registry of clients keyed by K. PollRequests drains
// every client's inbound channel, in registration order, returning
// one entry per pending request. SendResponse routes a response back
// to the client identified by K, echoing req alongside it; routing to
// an unknown key is a binding-specific error (UnknownClient for
// udp/tcp, a no-op for local, since local bindings are infallible).
// SendResponses is the vector form: it sends every entry in order and
// returns one error per input item at the same index, so a partial
// failure never loses track of which response it belongs to.
type Server[Req any, Res any, K comparable] interface {
	io.Closer
	PollRequests() []Request[Req, K]
	SendResponse(key K, req Req, res Res) error
	SendResponses(responses []Response[Req, Res, K]) []error
}

// Request pairs an inbound request with the key of the client that
// sent it, as returned by Server.PollRequests.
type Request[Req any, K comparable] struct {
	Key K
	Req Req
}

// UpdateClient is a Client that additionally receives out-of-band
// updates pushed by the server between responses.
type UpdateClient[Req any, U any, Res any] interface {
	Client[Req, Res]
	// PollUpdates returns every update received since the last call,
	// each paired with the request it was pushed for.
	PollUpdates() []Pair[Req, U]
}

// Update is one entry of the UpdateServer.SendUpdates vector form.
type Update[Req any, U any, K comparable] struct {
	Key K
	Req Req
	U   U
}

// UpdateServer is a Server that can additionally push an update to a
// client outside of the request/response cycle, echoing req alongside
// it exactly like SendResponse does.
type UpdateServer[Req any, U any, Res any, K comparable] interface {
	Server[Req, Res, K]
	SendUpdate(key K, req Req, update U) error
	SendUpdates(updates []Update[Req, U, K]) []error
}
