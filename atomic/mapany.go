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

import "sync"

// anyMap is the untyped Map[K] every typedMap delegates to. Keeping
// the sync.Map itself untyped means typedMap only has to know how to
// narrow a value back to V, not how to lock.
type anyMap[K comparable] struct {
	m sync.Map
}

func (o *anyMap[K]) Load(key K) (value any, ok bool) {
	return o.m.Load(key)
}

func (o *anyMap[K]) Store(key K, value any) {
	o.m.Store(key, value)
}

func (o *anyMap[K]) LoadOrStore(key K, value any) (actual any, loaded bool) {
	return o.m.LoadOrStore(key, value)
}

func (o *anyMap[K]) LoadAndDelete(key K) (value any, loaded bool) {
	return o.m.LoadAndDelete(key)
}

func (o *anyMap[K]) Delete(key K) {
	o.m.Delete(key)
}

func (o *anyMap[K]) Swap(key K, value any) (previous any, loaded bool) {
	return o.m.Swap(key, value)
}

func (o *anyMap[K]) CompareAndSwap(key K, old, new any) bool {
	return o.m.CompareAndSwap(key, old, new)
}

func (o *anyMap[K]) CompareAndDelete(key K, old any) (deleted bool) {
	return o.m.CompareAndDelete(key, old)
}

// Range visits every key. A key that no longer casts to K is pruned on
// sight rather than passed to f, matching how typedMap prunes stale
// values.
func (o *anyMap[K]) Range(f func(key K, value any) bool) {
	o.m.Range(func(rawKey, value any) bool {
		key, ok := rawKey.(K)
		if !ok {
			o.m.Delete(rawKey)
			return true
		}
		return f(key, value)
	})
}
