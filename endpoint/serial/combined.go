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

package serial

import (
	"sync"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"
)

// PublisherSubscriber combines a Publisher and a Latest subscriber
// over a single shared device, each guarded by its own scratch
// buffer: the write side never touches the read side's accumulator
// and vice versa. Only PublisherSubscriber.Close releases the
// device; the embedded Publish/Get paths never close it themselves.
type PublisherSubscriber[Pub packing.Packable, Sub packing.Packable] struct {
	dev Device

	wmu sync.Mutex
	wbuf []byte

	r   *reader[Sub]
	rmu sync.Mutex
	val Sub
	has bool
}

// NewPublisherSubscriber wraps dev for both directions. pubProbe
// sizes the write-side scratch buffer; newSub allocates each
// read-side record.
func NewPublisherSubscriber[Pub packing.Packable, Sub packing.Packable](dev Device, pubProbe Pub, newSub Factory[Sub], chBuf int) *PublisherSubscriber[Pub, Sub] {
	return &PublisherSubscriber[Pub, Sub]{
		dev:  dev,
		wbuf: make([]byte, pubProbe.Len()),
		r:    newReader(dev, newSub, chBuf),
	}
}

// Publish encodes d and writes it to the shared device.
func (c *PublisherSubscriber[Pub, Sub]) Publish(d Pub) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if err := d.Encode(c.wbuf); err != nil {
		return err
	}
	n, err := c.dev.Write(c.wbuf)
	if err != nil {
		return errs.IO("write serial record", err)
	}
	if n != len(c.wbuf) {
		return errs.IO("short serial write")
	}
	return nil
}

// Get returns the most recently decoded record from the shared device.
func (c *PublisherSubscriber[Pub, Sub]) Get() (Sub, bool) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	for {
		select {
		case v, ok := <-c.r.ch:
			if !ok {
				return c.val, c.has
			}
			c.val, c.has = v, true
		default:
			return c.val, c.has
		}
	}
}

// Close releases the shared device once, stopping the background reader.
func (c *PublisherSubscriber[Pub, Sub]) Close() error {
	return c.r.Close()
}
