/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errs

// Code classifies an Error by the taxonomy the framework mandates be
// representable: transport I/O failure, encode/decode failure,
// unknown-peer, unknown-client and unrecoverable internal failure.
type Code uint16

const (
	CodeUnknown Code = iota
	// CodePacking marks a buffer-size mismatch or decode failure.
	CodePacking
	// CodeIO marks a transport read/write/dial failure.
	CodeIO
	// CodeUnknownRequester marks a datagram or connection from a peer
	// whose address was never registered with the server.
	CodeUnknownRequester
	// CodeUnknownClient marks an attempt to address a client key the
	// server registry does not hold.
	CodeUnknownClient
	// CodeInternal marks a programming-error class failure (e.g. a
	// poisoned local channel) the framework does not expect callers
	// to recover from.
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodePacking:
		return "packing"
	case CodeIO:
		return "io"
	case CodeUnknownRequester:
		return "unknown-requester"
	case CodeUnknownClient:
		return "unknown-client"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}
