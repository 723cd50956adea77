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

package serial_test

import (
	"time"

	"github.com/nabbar/ncomm/duration"
	"github.com/nabbar/ncomm/endpoint/serial"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Publisher / Latest subscriber", func() {
	It("delivers a published record to a subscriber sharing the same device", func() {
		dev := newFakeDevice()

		pub := serial.NewPublisher[*msg](dev, &msg{})
		sub := serial.NewLatest[*msg](dev, newMsg, 4)
		defer sub.Close()

		Expect(pub.Publish(&msg{V: 11})).To(Succeed())

		Eventually(func() bool {
			v, ok := sub.Get()
			return ok && v.V == 11
		}).Should(BeTrue())
	})

	It("keeps the prior value when only a partial record arrives", func() {
		dev := newFakeDevice()
		sub := serial.NewLatest[*msg](dev, newMsg, 4)
		defer sub.Close()

		pub := serial.NewPublisher[*msg](dev, &msg{})
		Expect(pub.Publish(&msg{V: 5})).To(Succeed())

		Eventually(func() bool {
			v, ok := sub.Get()
			return ok && v.V == 5
		}).Should(BeTrue())

		// a short, malformed record never accumulates to a full frame,
		// so the prior retained value must survive.
		_, _ = dev.Write([]byte{0x01, 0x02})
		Consistently(func() uint32 {
			v, _ := sub.Get()
			return v.V
		}, "50ms").Should(Equal(uint32(5)))
	})
})

var _ = Describe("LatestTTL subscriber", func() {
	It("expires a retained record once its ttl elapses", func() {
		dev := newFakeDevice()
		sub := serial.NewLatestTTL[*msg](dev, newMsg, 4, duration.Duration(20*time.Millisecond))
		defer sub.Close()

		pub := serial.NewPublisher[*msg](dev, &msg{})
		Expect(pub.Publish(&msg{V: 9})).To(Succeed())

		Eventually(func() bool {
			_, ok := sub.Get()
			return ok
		}).Should(BeTrue())

		Eventually(func() bool {
			_, ok := sub.Get()
			return ok
		}, "200ms").Should(BeFalse())
	})
})
