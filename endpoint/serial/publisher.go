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

// Publisher writes exactly one fixed-size record per Publish call to
// the device it owns.
type Publisher[D packing.Packable] struct {
	dev Device

	mu  sync.Mutex
	buf []byte
}

// NewPublisher wraps dev. probe is used once to size the scratch buffer.
func NewPublisher[D packing.Packable](dev Device, probe D) *Publisher[D] {
	return &Publisher[D]{dev: dev, buf: make([]byte, probe.Len())}
}

// Publish encodes d into the scratch buffer and writes it in full.
func (p *Publisher[D]) Publish(d D) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := d.Encode(p.buf); err != nil {
		return err
	}

	n, err := p.dev.Write(p.buf)
	if err != nil {
		return errs.IO("write serial record", err)
	}
	if n != len(p.buf) {
		return errs.IO("short serial write")
	}
	return nil
}

// Close releases the underlying device.
func (p *Publisher[D]) Close() error {
	return p.dev.Close()
}
