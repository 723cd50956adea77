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

package packing_test

import (
	"encoding/binary"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/packing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// fixedU32 is a minimal Packable: a single big-endian uint32.
type fixedU32 struct {
	V uint32
}

func (f *fixedU32) Len() int { return 4 }

func (f *fixedU32) Encode(dst []byte) error {
	if len(dst) < f.Len() {
		return packing.InvalidBufferSize(len(dst), f.Len())
	}
	binary.BigEndian.PutUint32(dst, f.V)
	return nil
}

func (f *fixedU32) Decode(src []byte) error {
	if len(src) < f.Len() {
		return packing.InvalidBufferSize(len(src), f.Len())
	}
	f.V = binary.BigEndian.Uint32(src)
	return nil
}

var _ = Describe("packing", func() {
	Context("Encode/Decode round trip", func() {
		It("recovers the original value", func() {
			in := &fixedU32{V: 0xdeadbeef}

			buf, err := packing.Encode(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf).To(HaveLen(4))

			out := &fixedU32{}
			Expect(packing.Decode(buf, out)).To(Succeed())
			Expect(out.V).To(Equal(in.V))
		})
	})

	Context("a buffer shorter than Len()", func() {
		It("fails Encode with an InvalidBufferSize packing error", func() {
			in := &fixedU32{V: 1}
			err := in.Encode(make([]byte, 2))

			Expect(err).To(HaveOccurred())
			e := errs.Get(err)
			Expect(e).NotTo(BeNil())
			Expect(e.IsCode(errs.CodePacking)).To(BeTrue())
		})

		It("fails Decode with an InvalidBufferSize packing error", func() {
			out := &fixedU32{}
			err := out.Decode(make([]byte, 1))

			Expect(err).To(HaveOccurred())
			e := errs.Get(err)
			Expect(e).NotTo(BeNil())
			Expect(e.IsCode(errs.CodePacking)).To(BeTrue())
		})
	})

	Context("a buffer longer than Len()", func() {
		It("only touches the first Len() bytes on Encode", func() {
			in := &fixedU32{V: 7}
			dst := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

			Expect(in.Encode(dst)).To(Succeed())
			Expect(dst[4:]).To(Equal([]byte{0xff, 0xff}))

			out := &fixedU32{}
			Expect(out.Decode(dst[:4])).To(Succeed())
			Expect(out.V).To(Equal(in.V))
		})
	})
})
