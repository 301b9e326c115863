package analysis

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hdlab/svsim/logic"
	"github.com/hdlab/svsim/sim"
)

var _ = Describe("RegionAnalyzer", func() {
	It("should count handled events per region", func() {
		kernel := sim.NewKernel()
		logger := &capturePerfLogger{}

		analyzer := MakeRegionAnalyzerBuilder().
			WithPerfLogger(logger).
			WithTimeTeller(kernel).
			Build()
		kernel.AcceptHook(analyzer)

		sig := sim.NewSignal(kernel, "Sig", 1)
		sim.Initial(kernel, "Driver", func(ctx *sim.Context) {
			ctx.Delay(5)
			ctx.WriteNBA(sig, logic.FromUint64(1, 1))
			ctx.Delay(1)
		})

		Expect(kernel.Run()).To(Succeed())

		analyzer.summarize(kernel.CurrentTime())

		entries := logger.entriesOfType("Region")
		Expect(entries).NotTo(BeEmpty())

		byRegion := map[string]float64{}
		for _, e := range entries {
			byRegion[e.What] += e.Value
		}

		Expect(byRegion[sim.RegionActive.String()]).To(BeNumerically(">", 0))
		Expect(byRegion[sim.RegionNBA.String()]).To(BeNumerically(">", 0))
	})

	It("should split counts into periods", func() {
		kernel := sim.NewKernel()
		logger := &capturePerfLogger{}

		analyzer := MakeRegionAnalyzerBuilder().
			WithPerfLogger(logger).
			WithTimeTeller(kernel).
			WithPeriod(10).
			Build()
		kernel.AcceptHook(analyzer)

		sim.Initial(kernel, "Driver", func(ctx *sim.Context) {
			ctx.Delay(5)
			ctx.Delay(20)
		})

		Expect(kernel.Run()).To(Succeed())
		analyzer.summarize(kernel.CurrentTime())

		entries := logger.entriesOfType("Region")
		Expect(len(entries)).To(BeNumerically(">=", 2))
	})
})
