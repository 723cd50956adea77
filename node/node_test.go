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

package node_test

import (
	"context"
	"time"

	libdur "github.com/nabbar/ncomm/duration"
	"github.com/nabbar/ncomm/node"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingNode struct {
	node.Base[string]
	starts, updates, shutdowns int
}

func (c *countingNode) Start(ctx context.Context) error {
	c.starts++
	return c.Base.Start(ctx)
}

func (c *countingNode) Update(ctx context.Context) error {
	c.updates++
	return c.Base.Update(ctx)
}

func (c *countingNode) Shutdown(ctx context.Context) error {
	c.shutdowns++
	return c.Base.Shutdown(ctx)
}

var _ = Describe("node", func() {
	Context("Period", func() {
		It("converts to microseconds and back to a duration", func() {
			p := node.Period(libdur.Seconds(2))
			Expect(p.Microseconds()).To(Equal(int64(2_000_000)))
			Expect(p.Duration()).To(Equal(libdur.Seconds(2)))
		})
	})

	Context("Base", func() {
		It("answers ID and Period from its embedded fields", func() {
			b := node.Base[string]{Identity: "n1", Every: node.Period(libdur.Duration(100 * time.Millisecond))}
			Expect(b.ID()).To(Equal("n1"))
			Expect(b.Period().Microseconds()).To(Equal(int64(100_000)))
		})

		It("no-ops every lifecycle hook", func() {
			b := node.Base[int]{Identity: 1}
			Expect(b.Start(context.Background())).To(Succeed())
			Expect(b.Update(context.Background())).To(Succeed())
			Expect(b.Shutdown(context.Background())).To(Succeed())
		})
	})

	Context("a node implementer embedding Base", func() {
		It("can override individual hooks while inheriting the rest", func() {
			n := &countingNode{Base: node.Base[string]{Identity: "worker", Every: node.Period(libdur.Duration(10 * time.Millisecond))}}

			var impl node.Node[string] = n
			Expect(impl.ID()).To(Equal("worker"))

			Expect(impl.Start(context.Background())).To(Succeed())
			Expect(impl.Update(context.Background())).To(Succeed())
			Expect(impl.Update(context.Background())).To(Succeed())
			Expect(impl.Shutdown(context.Background())).To(Succeed())

			Expect(n.starts).To(Equal(1))
			Expect(n.updates).To(Equal(2))
			Expect(n.shutdowns).To(Equal(1))
		})
	})
})
