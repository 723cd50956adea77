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

// Package serial implements a byte-stream duplex binding over any
// Device: a publisher writes exactly one record per call, a
// subscriber drains while the device reports data ready, decoding
// into a fixed-size scratch buffer sized at construction time. The
// real POSIX device lives in ncomm/endpoint/serial/dev; tests and
// non-Unix callers can supply any Device implementation instead.
package serial

import "github.com/nabbar/ncomm/packing"

// Device is the minimal duplex contract a serial binding needs:
// read-readiness, a read, and a write, each as a device would expose
// them (non-blocking Read, ReadReady reporting whether a Read would
// return data immediately).
type Device interface {
	ReadReady() bool
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Factory allocates a new, empty D to decode a record into.
type Factory[D packing.Packable] func() D
