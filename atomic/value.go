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

import (
	"sync/atomic"
)

// cell is the raw sync/atomic.Value slot val wraps three of: the
// current value, the load default, and the store default.
type cell = atomic.Value

// defaultValue wraps a T so it can be told apart, inside a cell, from
// a genuinely-zero value of T that was actually stored.
type defaultValue[T any] struct {
	v T
}

func newDefault[T any](v T) defaultValue[T] {
	return defaultValue[T]{v: v}
}

// GetDefault unwraps the value newDefault stored.
func (d defaultValue[T]) GetDefault() T {
	return d.v
}

// val is the concrete Value[T]. Defaults are stored through the same
// cell type as the value itself, wrapped in defaultValue[T] so a
// genuinely-zero stored value can still be told apart from "no default
// set".
type val[T any] struct {
	av *cell
	dl *cell
	ds *cell
}

func (o *val[T]) SetDefaultLoad(def T) {
	o.dl.Store(newDefault[T](def))
}

func (o *val[T]) SetDefaultStore(def T) {
	o.ds.Store(newDefault[T](def))
}

func (o *val[T]) getDefault(i any) T {
	v, k := Cast[defaultValue[T]](i)
	if !k {
		var zero T
		return zero
	}
	return v.GetDefault()
}

func (o *val[T]) getDefaultLoad() T {
	return o.getDefault(o.dl.Load())
}

func (o *val[T]) getDefaultStore() T {
	return o.getDefault(o.ds.Load())
}

// Load returns the default load value in place of anything that
// doesn't cast to T, covering both "never stored" and a stored zero.
func (o *val[T]) Load() (value T) {
	v, k := Cast[T](o.av.Load())
	if !k {
		return o.getDefaultLoad()
	}
	return v
}

// Store substitutes the default store value when value is empty,
// so a latest-value cell never silently reverts to Go's zero value.
func (o *val[T]) Store(value T) {
	if IsEmpty[T](value) {
		o.av.Store(o.getDefaultStore())
	} else {
		o.av.Store(value)
	}
}

func (o *val[T]) Swap(new T) (old T) {
	if IsEmpty[T](new) {
		new = o.getDefaultStore()
	}

	v, k := Cast[T](o.av.Swap(new))
	if !k {
		return o.getDefaultLoad()
	}
	return v
}

func (o *val[T]) CompareAndSwap(old, new T) (swapped bool) {
	if IsEmpty[T](old) {
		old = o.getDefaultStore()
	}
	if IsEmpty[T](new) {
		new = o.getDefaultStore()
	}
	return o.av.CompareAndSwap(old, new)
}
