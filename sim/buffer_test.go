package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Buffer", func() {
	ginkgo.It("should push and pop in FIFO order", func() {
		b := NewBuffer("Buf", 4)

		b.Push(1)
		b.Push(2)
		b.Push(3)

		Expect(b.Size()).To(Equal(3))
		Expect(b.Peek()).To(Equal(1))
		Expect(b.Pop()).To(Equal(1))
		Expect(b.Pop()).To(Equal(2))
		Expect(b.Pop()).To(Equal(3))
		Expect(b.Pop()).To(BeNil())
	})

	ginkgo.It("should refuse pushes beyond capacity", func() {
		b := NewBuffer("Buf", 1)

		b.Push(1)
		Expect(b.CanPush()).To(BeFalse())
		Expect(func() { b.Push(2) }).To(Panic())
	})

	ginkgo.It("should never fill when unbounded", func() {
		b := NewBuffer("Buf", 0)

		for i := 0; i < 1000; i++ {
			Expect(b.CanPush()).To(BeTrue())
			b.Push(i)
		}

		Expect(b.Size()).To(Equal(1000))
	})

	ginkgo.It("should clear", func() {
		b := NewBuffer("Buf", 4)
		b.Push(1)
		b.Clear()
		Expect(b.Size()).To(Equal(0))
	})
})
