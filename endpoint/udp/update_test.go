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

package udp_test

import (
	"github.com/nabbar/ncomm/endpoint/udp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UpdateClient / UpdateServer", func() {
	It("delivers both a response and a pushed update to the same client", func() {
		srv, err := udp.NewUpdateServer[*msg, *msg, *msg, string]("127.0.0.1:0", newMsg, 4)
		Expect(err).NotTo(HaveOccurred())
		defer srv.Close()

		cli, err := udp.NewUpdateClient[*msg, *msg, *msg](srv.LocalAddr(), "127.0.0.1:0", newMsg, newMsg, newMsg, 4)
		Expect(err).NotTo(HaveOccurred())
		defer cli.Close()

		Expect(srv.RegisterClient("bob", cli.LocalAddr())).To(Succeed())
		Expect(srv.RegisterUpdatePeer("bob", cli.UpdateAddr())).To(Succeed())

		Expect(cli.SendRequest(&msg{V: 1})).To(Succeed())

		var req *msg
		Eventually(func() bool {
			got := srv.PollRequests()
			if len(got) != 1 || got[0].Key != "bob" {
				return false
			}
			req = got[0].Req
			return true
		}).Should(BeTrue())

		Expect(srv.SendResponse("bob", req, &msg{V: 2})).To(Succeed())
		Eventually(func() bool {
			for _, p := range cli.PollResponses() {
				if p.Res.V == 2 {
					return true
				}
			}
			return false
		}).Should(BeTrue())

		Expect(srv.SendUpdate("bob", req, &msg{V: 3})).To(Succeed())
		Eventually(func() bool {
			for _, p := range cli.PollUpdates() {
				if p.Res.V == 3 {
					return true
				}
			}
			return false
		}).Should(BeTrue())
	})

	It("reports UnknownClient when pushing an update to an unregistered peer", func() {
		srv, err := udp.NewUpdateServer[*msg, *msg, *msg, string]("127.0.0.1:0", newMsg, 4)
		Expect(err).NotTo(HaveOccurred())
		defer srv.Close()

		err = srv.SendUpdate("ghost", &msg{V: 1}, &msg{V: 1})
		Expect(err).To(HaveOccurred())
	})
})
