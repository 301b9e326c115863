package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hdlab/svsim/sim"
)

var _ = Describe("BufferAnalyzer", func() {
	var (
		logger   *capturePerfLogger
		tt       *stubTimeTeller
		buf      sim.Buffer
		analyzer *BufferAnalyzer
	)

	BeforeEach(func() {
		logger = &capturePerfLogger{}
		tt = &stubTimeTeller{}
		buf = sim.NewBuffer("Buf", 4)

		analyzer = MakeBufferAnalyzerBuilder().
			WithPerfLogger(logger).
			WithTimeTeller(tt).
			WithBuffer(buf).
			WithPeriod(10).
			Build()
		buf.AcceptHook(analyzer)
	})

	It("should report the time-weighted average level per period", func() {
		tt.now = 0
		buf.Push(1)

		tt.now = 5
		buf.Push(2)

		// Crossing into the next period triggers a summary of [0, 10):
		// level 0 for 0 ticks, level 1 for 5 ticks, level 2 for 5 ticks.
		tt.now = 12
		buf.Push(3)

		entries := logger.entriesOfType("Buffer")
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Where).To(Equal("Buf"))
		Expect(entries[0].Value).To(BeNumerically("~", 1.5, 1e-9))
	})

	It("should not report all-idle periods", func() {
		tt.now = 25
		buf.Push(1)

		for _, e := range logger.entries {
			Expect(e.Value).NotTo(BeZero())
		}
	})
})
