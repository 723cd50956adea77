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

// Package errs implements a small error taxonomy shared across every
// endpoint binding: transport and packing failures carry one of these
// codes (the tcp Whitelist's address parsing returns the standard
// library's errors as they are), and a multi-destination publish aggregates one entry per
// failed destination instead of collapsing into an opaque error.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Error extends the standard error with a Code and an optional list
// of per-destination parent errors (used by multi-destination
// publishers, §4.E/§4.F).
type Error interface {
	error

	// Code returns the classification of this error.
	Code() Code
	// IsCode reports whether this error (not its parents) has the given code.
	IsCode(c Code) bool
	// HasParent reports whether any parent error was attached.
	HasParent() bool
	// Add attaches additional parent errors (e.g. one per failed
	// destination of a fan-out publish). Nil errors are ignored.
	Add(parent ...error)
	// Parents returns the attached parent errors in attachment order.
	Parents() []error
	// Unwrap supports errors.Is/errors.As over the parent chain.
	Unwrap() []error
}

type ers struct {
	code Code
	msg  string
	pars []error
}

func (e *ers) Error() string {
	if len(e.pars) == 0 {
		return e.msg
	}

	var s = make([]string, 0, len(e.pars))
	for _, p := range e.pars {
		s = append(s, p.Error())
	}
	return fmt.Sprintf("%s: %s", e.msg, strings.Join(s, "; "))
}

func (e *ers) Code() Code {
	return e.code
}

func (e *ers) IsCode(c Code) bool {
	return e.code == c
}

func (e *ers) HasParent() bool {
	return len(e.pars) > 0
}

func (e *ers) Add(parent ...error) {
	for _, p := range parent {
		if p != nil {
			e.pars = append(e.pars, p)
		}
	}
}

func (e *ers) Parents() []error {
	return e.pars
}

func (e *ers) Unwrap() []error {
	return e.pars
}

// New builds a new Error with the given code, message and optional parents.
func New(code Code, msg string, parent ...error) Error {
	e := &ers{code: code, msg: msg}
	e.Add(parent...)
	return e
}

// Newf builds a new Error formatting msg with args, per fmt.Sprintf.
func Newf(code Code, pattern string, args ...any) Error {
	return &ers{code: code, msg: fmt.Sprintf(pattern, args...)}
}

// Is reports whether err is (or wraps) an Error of this package.
func Is(err error) bool {
	var e Error
	return errors.As(err, &e)
}

// Get returns err as an Error if it is one, else nil.
func Get(err error) Error {
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// Packing wraps a packing-layer failure (buffer-size mismatch, decode error).
func Packing(msg string, parent ...error) Error {
	return New(CodePacking, msg, parent...)
}

// IO wraps a transport-layer failure.
func IO(msg string, parent ...error) Error {
	return New(CodeIO, msg, parent...)
}

// UnknownRequester wraps a datagram/connection arriving from an
// unregistered peer.
func UnknownRequester(msg string, parent ...error) Error {
	return New(CodeUnknownRequester, msg, parent...)
}

// UnknownClient wraps an attempt to address an unregistered client key.
func UnknownClient(msg string, parent ...error) Error {
	return New(CodeUnknownClient, msg, parent...)
}

// Internal wraps an unrecoverable, programming-error class failure.
func Internal(msg string, parent ...error) Error {
	return New(CodeInternal, msg, parent...)
}

// Destination pairs a failed fan-out destination with the error that
// publishing to it produced: failures on a subset of destinations are
// collected and returned as a single composite error.
type Destination struct {
	Target string
	Err    error
}

func (d Destination) Error() string {
	return fmt.Sprintf("%s: %v", d.Target, d.Err)
}

// Fanout builds an IO Error out of zero or more per-destination
// failures. It returns nil if dests is empty, so a fully-successful
// publish reports no error.
func Fanout(dests []Destination) Error {
	if len(dests) == 0 {
		return nil
	}

	e := New(CodeIO, fmt.Sprintf("publish failed on %d destination(s)", len(dests)))
	for _, d := range dests {
		e.Add(d)
	}
	return e
}
