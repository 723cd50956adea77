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

package simple_test

import (
	"context"
	"time"

	"github.com/nabbar/ncomm/executor/simple"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Lifecycle", func() {
	It("moves Stopped -> Started -> Running -> Stopped across Start/UpdateForMs", func() {
		e := simple.New[string]()
		Expect(e.Status()).To(Equal(simple.Stopped))

		n := newCountingNode("a", 5*time.Millisecond, nil)
		e.AddNode(n)

		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.Status()).To(Equal(simple.Started))

		Expect(e.UpdateForMs(context.Background(), 20)).To(Succeed())
		Expect(e.Status()).To(Equal(simple.Stopped))

		starts, updates, shutdowns := n.counts()
		Expect(starts).To(Equal(1))
		Expect(updates).To(BeNumerically(">=", 1))
		Expect(shutdowns).To(Equal(1))
	})

	It("calls Start at most once per run and Shutdown exactly once", func() {
		e := simple.New[string]()
		n := newCountingNode("solo", time.Millisecond, nil)
		e.AddNode(n)

		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.UpdateForMs(context.Background(), 10)).To(Succeed())

		starts, _, shutdowns := n.counts()
		Expect(starts).To(Equal(1))
		Expect(shutdowns).To(Equal(1))
	})

	It("stops a running loop once Interrupt is observed", func() {
		e := simple.New[string]()
		n := newCountingNode("looper", time.Microsecond, nil)
		e.AddNode(n)

		Expect(e.Start(context.Background())).To(Succeed())

		done := make(chan error, 1)
		go func() {
			done <- e.UpdateLoop(context.Background())
		}()

		time.Sleep(5 * time.Millisecond)
		e.Interrupt()

		Eventually(done, time.Second).Should(Receive(Succeed()))
		Expect(e.Status()).To(Equal(simple.Stopped))
	})

	It("rejects a driving call before Start", func() {
		e := simple.New[string]()
		Expect(e.UpdateForMs(context.Background(), 5)).NotTo(Succeed())
	})
})
