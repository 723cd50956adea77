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

package tcp_test

import (
	"github.com/nabbar/ncomm/endpoint/tcp"
	"github.com/nabbar/ncomm/errs"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client / Server", func() {
	It("round-trips a request and response for a registered client", func() {
		srv, err := tcp.NewServer[*msg, *msg, string]("127.0.0.1:0", nil, newMsg, 4)
		Expect(err).NotTo(HaveOccurred())
		defer srv.Close()

		cli, err := tcp.NewClient[*msg, *msg](srv.LocalAddr(), newMsg, newMsg, 4)
		Expect(err).NotTo(HaveOccurred())
		defer cli.Close()

		Expect(srv.RegisterClient("alice", cli.LocalAddr())).To(Succeed())
		Expect(cli.SendRequest(&msg{V: 7})).To(Succeed())

		var req *msg
		Eventually(func() bool {
			got := srv.PollRequests()
			if len(got) != 1 || got[0].Key != "alice" || got[0].Req.V != 7 {
				return false
			}
			req = got[0].Req
			return true
		}).Should(BeTrue())

		Expect(srv.SendResponse("alice", req, &msg{V: 8})).To(Succeed())

		Eventually(func() bool {
			for _, p := range cli.PollResponses() {
				if p.Res.V == 8 {
					return true
				}
			}
			return false
		}).Should(BeTrue())
	})

	It("reports UnknownClient when addressing an unregistered key", func() {
		srv, err := tcp.NewServer[*msg, *msg, string]("127.0.0.1:0", nil, newMsg, 4)
		Expect(err).NotTo(HaveOccurred())
		defer srv.Close()

		err = srv.SendResponse("nobody", &msg{V: 1}, &msg{V: 1})
		Expect(err).To(HaveOccurred())
		e := errs.Get(err)
		Expect(e).NotTo(BeNil())
		Expect(e.IsCode(errs.CodeUnknownClient)).To(BeTrue())
	})
})
