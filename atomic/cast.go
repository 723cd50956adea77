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

package atomic

import "reflect"

// Cast narrows an any pulled out of a Value or Map cell back to M. A
// src that deep-equals the zero value of M is treated as absent
// rather than as a genuine zero, since that's how an empty cell reads
// back from sync/atomic.Value and sync.Map alike.
func Cast[M any](src any) (dst M, ok bool) {
	if reflect.DeepEqual(src, dst) {
		return dst, false
	}

	v, ok := src.(M)
	if !ok {
		return dst, false
	}
	return v, true
}

// IsEmpty reports whether src is absent under Cast[M]'s rule: nil, the
// zero value of M, or of a type that doesn't convert to M at all.
func IsEmpty[M any](src any) bool {
	_, ok := Cast[M](src)
	return !ok
}
