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

package pool_test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nabbar/ncomm/executor/pool"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lifecycle", func() {
	It("moves Stopped -> Started -> Running -> Stopped and updates the node at least once", func() {
		e := pool.New[string]()
		n := newQuickNode("a", 2*time.Millisecond)
		e.AddNode(n)

		Expect(e.Status()).To(Equal(pool.Stopped))
		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.Status()).To(Equal(pool.Started))

		Expect(e.UpdateForMs(context.Background(), 20)).To(Succeed())
		Expect(e.Status()).To(Equal(pool.Stopped))
		Expect(atomic.LoadInt32(&n.updates)).To(BeNumerically(">=", 1))
	})

	It("sizes the worker pool at max(1, n-1)", func() {
		e := pool.New[string]()
		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.Workers()).To(Equal(1)) // zero nodes -> max(1, -1) = 1

		e2 := pool.New[string]()
		for i := 0; i < 4; i++ {
			e2.AddNode(newQuickNode(string(rune('a'+i)), time.Hour))
		}
		Expect(e2.Start(context.Background())).To(Succeed())
		Expect(e2.Workers()).To(Equal(3))
	})

	It("stops on Interrupt", func() {
		e := pool.New[string]()
		n := newQuickNode("spin", time.Microsecond)
		e.AddNode(n)
		Expect(e.Start(context.Background())).To(Succeed())

		done := make(chan error, 1)
		go func() { done <- e.UpdateLoop(context.Background()) }()

		time.Sleep(5 * time.Millisecond)
		e.Interrupt()

		Eventually(done, time.Second).Should(Receive(Succeed()))
	})
})

var _ = Describe("Concurrency", func() {
	It("runs more than one due node's Update at the same time", func() {
		release := make(chan struct{})
		e := pool.New[string]()

		a := newBlockingNode("a", time.Microsecond, release)
		b := newBlockingNode("b", time.Microsecond, release)
		c := newBlockingNode("c", time.Microsecond, release)
		e.AddNode(a)
		e.AddNode(b)
		e.AddNode(c)

		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.Workers()).To(Equal(2)) // max(1, 3-1)

		done := make(chan error, 1)
		go func() { done <- e.UpdateLoop(context.Background()) }()

		Eventually(func() int32 {
			return atomic.LoadInt32(&a.running) + atomic.LoadInt32(&b.running) + atomic.LoadInt32(&c.running)
		}, time.Second).Should(BeNumerically(">=", 2))

		close(release)
		e.Interrupt()
		Eventually(done, time.Second).Should(Receive(Succeed()))

		total := atomic.LoadInt32(&a.maxAlive) + atomic.LoadInt32(&b.maxAlive) + atomic.LoadInt32(&c.maxAlive)
		Expect(total).To(BeNumerically(">=", 2))
	})
})

var _ = Describe("Node removal", func() {
	It("removes a queued node by identity", func() {
		e := pool.New[string]()
		n := newQuickNode("removable", time.Hour)
		e.AddNode(n)
		Expect(e.Len()).To(Equal(1))

		got, ok := e.RemoveNode("removable")
		Expect(ok).To(BeTrue())
		Expect(got.ID()).To(Equal("removable"))
		Expect(e.Len()).To(Equal(0))
	})
})
