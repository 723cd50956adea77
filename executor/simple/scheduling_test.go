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

var _ = Describe("Scheduling order", func() {
	It("runs nodes added at the same priority in insertion order", func() {
		var log []string
		e := simple.New[string]()

		// both nodes share priority zero at Start; "first" was
		// inserted before "second" so it keeps precedence.
		first := newCountingNode("first", time.Hour, &log)
		second := newCountingNode("second", time.Hour, &log)
		e.AddNode(first)
		e.AddNode(second)

		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.UpdateForMs(context.Background(), 5)).To(Succeed())

		Expect(log).To(Equal([]string{"first", "second"}))
	})

	It("reschedules a node period_us after its previous due instant", func() {
		var log []string
		e := simple.New[string]()
		n := newCountingNode("tick", 2*time.Millisecond, &log)
		e.AddNode(n)

		Expect(e.Start(context.Background())).To(Succeed())
		Expect(e.UpdateForMs(context.Background(), 12)).To(Succeed())

		_, updates, _ := n.counts()
		Expect(updates).To(BeNumerically(">=", 3))
	})

	It("gives a node added while Running an immediate due instant", func() {
		e := simple.New[string]()
		slow := newCountingNode("slow", time.Hour, nil)
		e.AddNode(slow)

		Expect(e.Start(context.Background())).To(Succeed())

		done := make(chan error, 1)
		go func() { done <- e.UpdateLoop(context.Background()) }()

		time.Sleep(5 * time.Millisecond)
		late := newCountingNode("late", time.Hour, nil)
		e.AddNode(late)

		starts, _, _ := late.counts()
		Expect(starts).To(Equal(0)) // Start only runs from executor.Start, not mid-run

		e.Interrupt()
		Eventually(done, time.Second).Should(Receive(Succeed()))

		// late was given the current elapsed time as its due instant,
		// so it joined the running queue (and so is shut down) rather
		// than being ignored.
		_, _, shutdowns := late.counts()
		Expect(shutdowns).To(Equal(1))
	})

	It("removes a node by identity", func() {
		e := simple.New[string]()
		n := newCountingNode("removable", time.Hour, nil)
		e.AddNode(n)
		Expect(e.Len()).To(Equal(1))

		got, ok := e.RemoveNode("removable")
		Expect(ok).To(BeTrue())
		Expect(got.ID()).To(Equal("removable"))
		Expect(e.Len()).To(Equal(0))

		_, ok = e.RemoveNode("removable")
		Expect(ok).To(BeFalse())
	})
})
