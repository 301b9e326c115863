package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Timescale", func() {
	ginkgo.It("should convert durations to ticks with rounding", func() {
		Expect(NS.Ticks(15e-9)).To(Equal(SimTime(15)))
		Expect(NS.Ticks(1.5e-6)).To(Equal(SimTime(1500)))
		Expect(PS.Ticks(1e-9)).To(Equal(SimTime(1000)))
	})

	ginkgo.It("should convert ticks back to seconds", func() {
		Expect(NS.Seconds(1500)).To(BeNumerically("~", 1.5e-6, 1e-18))
	})

	ginkgo.It("should parse timescale strings", func() {
		ts, err := ParseTimescale("1ns")
		Expect(err).NotTo(HaveOccurred())
		Expect(ts).To(Equal(NS))

		ts, err = ParseTimescale("10 ps")
		Expect(err).NotTo(HaveOccurred())
		Expect(ts).To(Equal(10 * PS))

		_, err = ParseTimescale("fortnight")
		Expect(err).To(HaveOccurred())
	})

	ginkgo.It("should format ticks in a natural unit", func() {
		Expect(NS.Format(15)).To(Equal("15ns"))
		Expect(NS.Format(1500)).To(Equal("1.5us"))
	})

	ginkgo.It("should panic on a zero timescale", func() {
		Expect(func() { Timescale(0).Ticks(1) }).To(Panic())
	})
})
