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

// typedMap is the concrete MapTyped[K, V]: an anyMap[K] plus the
// narrowing Cast does at every read, which is what lets
// endpoint/*'s Mapped and MappedTTL caches store a concrete D or
// mappedEntry[D] instead of juggling any themselves.
type typedMap[K comparable, V any] struct {
	m Map[K]
}

// narrow casts the any an anyMap read back returns, keeping the
// "present but wrong type" and "absent" cases collapsed into a single
// ok bool the way the rest of this package treats both as "not there".
func (o *typedMap[K, V]) narrow(raw any, present bool) (value V, ok bool) {
	if !present {
		return value, false
	}
	v, matched := Cast[V](raw)
	if !matched {
		return value, false
	}
	return v, true
}

func (o *typedMap[K, V]) Load(key K) (value V, ok bool) {
	raw, present := o.m.Load(key)
	return o.narrow(raw, present)
}

func (o *typedMap[K, V]) Store(key K, value V) {
	o.m.Store(key, value)
}

func (o *typedMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	raw, present := o.m.LoadOrStore(key, value)
	return o.narrow(raw, present)
}

func (o *typedMap[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	raw, present := o.m.LoadAndDelete(key)
	return o.narrow(raw, present)
}

func (o *typedMap[K, V]) Delete(key K) {
	o.m.Delete(key)
}

func (o *typedMap[K, V]) Swap(key K, value V) (previous V, loaded bool) {
	raw, present := o.m.Swap(key, value)
	return o.narrow(raw, present)
}

func (o *typedMap[K, V]) CompareAndSwap(key K, old, new V) bool {
	return o.m.CompareAndSwap(key, old, new)
}

func (o *typedMap[K, V]) CompareAndDelete(key K, old V) (deleted bool) {
	return o.m.CompareAndDelete(key, old)
}

// Range prunes any entry whose value no longer casts to V before
// handing it to f, the same defensive stance anyMap.Range takes for
// keys.
func (o *typedMap[K, V]) Range(f func(key K, value V) bool) {
	o.m.Range(func(key K, raw any) bool {
		v, ok := Cast[V](raw)
		if !ok {
			o.m.Delete(key)
			return true
		}
		return f(key, v)
	})
}
