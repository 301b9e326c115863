package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("IDGenerator", func() {
	ginkgo.It("should count up sequentially", func() {
		g := &sequentialIDGenerator{}

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
		Expect(g.Generate()).To(Equal("3"))
	})

	ginkgo.It("should generate distinct xid IDs", func() {
		g := xidIDGenerator{}

		id1 := g.Generate()
		id2 := g.Generate()

		Expect(id1).NotTo(BeEmpty())
		Expect(id1).NotTo(Equal(id2))
	})

	ginkgo.It("should hand out one shared generator", func() {
		Expect(GetIDGenerator()).To(BeIdenticalTo(GetIDGenerator()))
	})

	ginkgo.It("should refuse to switch generators after IDs were generated", func() {
		GetIDGenerator().Generate()

		Expect(func() { UseSequentialIDs() }).To(Panic())
	})
})
