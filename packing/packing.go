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

// Package packing defines the fixed-width, round-trippable byte
// encoding that lets a message cross a process boundary. Every
// cross-process endpoint binding (udp, tcp, serial) requires its
// payload types to implement Packable.
package packing

import (
	"fmt"

	"github.com/nabbar/ncomm/errs"
)

// Packable is a fixed-width wire contract: a constant byte length L,
// a total encoder into exactly L bytes of a caller-provided buffer,
// and a total decoder from L bytes back to a value.
//
// Encode must deterministically overwrite the first Len() bytes of
// dst; Decode must not read beyond Len() bytes of src.
// decode(encode(v)) == v is required for every valid v.
type Packable interface {
	// Len returns the constant wire length of this value, in bytes.
	Len() int
	// Encode writes exactly Len() bytes to dst[:Len()].
	// Returns InvalidBufferSize if len(dst) < Len().
	Encode(dst []byte) error
	// Decode reads exactly Len() bytes from src[:Len()] into the
	// receiver. Returns InvalidBufferSize if len(src) < Len().
	Decode(src []byte) error
}

// InvalidBufferSize builds the packing error returned when a buffer
// is shorter than the value's declared Len().
func InvalidBufferSize(have, want int) errs.Error {
	return errs.Packing(fmt.Sprintf("invalid buffer size: have %d, want %d", have, want))
}

// Encode allocates a Len()-sized buffer and encodes v into it.
func Encode(v Packable) ([]byte, error) {
	buf := make([]byte, v.Len())
	if err := v.Encode(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Decode decodes src into the caller-supplied v by calling v.Decode;
// v is typically a pointer to the value to fill.
func Decode[T Packable](src []byte, v T) error {
	return v.Decode(src)
}
