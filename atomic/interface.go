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

// Package atomic backs the retention cells and keyed caches the
// endpoint bindings use to hold the latest published value (or the
// latest value per subscriber key) without a mutex on the read path:
// local.Publisher's latest-value cell, and every Mapped/MappedTTL
// subscriber cache in endpoint/local, endpoint/udp and endpoint/tcp.
package atomic

// Value is a typed, lock-free cell holding a single value of T. It is
// the shape local.Publisher uses for its latest-published-value cell:
// Publish always Store()s the newest value, late subscribers Load()
// it at registration time.
type Value[T any] interface {
	// SetDefaultLoad sets what Load returns before the first Store.
	SetDefaultLoad(def T)
	// SetDefaultStore sets the value substituted for a zero Store.
	SetDefaultStore(def T)

	// Load returns the current value, or the load default if none was
	// ever stored.
	Load() (val T)
	// Store sets the value, substituting the store default for a zero
	// val.
	Store(val T)
	// Swap stores new and returns the value it replaced.
	Swap(new T) (old T)
	// CompareAndSwap stores new only if the current value equals old,
	// reporting whether the swap happened.
	CompareAndSwap(old, new T) (swapped bool)
}

// Map is the untyped building block MapTyped is layered on: every
// value crosses the interface as any, with Cast doing the narrowing.
type Map[K comparable] interface {
	Load(key K) (value any, ok bool)
	Store(key K, value any)
	LoadOrStore(key K, value any) (actual any, loaded bool)
	LoadAndDelete(key K) (value any, loaded bool)
	Delete(key K)
	Swap(key K, value any) (previous any, loaded bool)
	CompareAndSwap(key K, old, new any) bool
	CompareAndDelete(key K, old any) (deleted bool)
	// Range visits every key in unspecified order, stopping early if f
	// returns false. An entry whose key is not of type K is dropped
	// rather than surfaced.
	Range(f func(key K, value any) bool)
}

// MapTyped is the keyed cache shape behind every endpoint binding's
// Mapped and MappedTTL subscriber cache: one entry per subscriber key,
// updated as publications arrive, read back by the consumer on its own
// schedule.
type MapTyped[K comparable, V any] interface {
	Load(key K) (value V, ok bool)
	Store(key K, value V)
	LoadOrStore(key K, value V) (actual V, loaded bool)
	LoadAndDelete(key K) (value V, loaded bool)
	Delete(key K)
	Swap(key K, value V) (previous V, loaded bool)
	CompareAndSwap(key K, old, new V) bool
	CompareAndDelete(key K, old V) (deleted bool)
	Range(f func(key K, value V) bool)
}

// NewValue returns a Value[T] whose load and store defaults are both
// the zero value of T.
func NewValue[T any]() Value[T] {
	var zero T
	return NewValueDefault[T](zero, zero)
}

// NewValueDefault returns a Value[T] with explicit load/store
// defaults.
func NewValueDefault[T any](load, store T) Value[T] {
	o := &val[T]{
		av: new(cell),
		dl: new(cell),
		ds: new(cell),
	}

	o.SetDefaultLoad(load)
	o.SetDefaultStore(store)

	return o
}

// NewMapAny returns a Map[K] backed by a sync.Map. MapTyped is built
// on top of it rather than duplicating the locking strategy.
func NewMapAny[K comparable]() Map[K] {
	return &anyMap[K]{}
}

// NewMapTyped returns a MapTyped[K, V], the concrete type every
// Mapped/MappedTTL subscriber cache in endpoint/* constructs.
func NewMapTyped[K comparable, V any]() MapTyped[K, V] {
	return &typedMap[K, V]{
		m: NewMapAny[K](),
	}
}
