package analysis

import (
	"github.com/tebeka/atexit"

	"github.com/hdlab/svsim/sim"
)

// RegionAnalyzer counts the events handled in each scheduling region,
// reporting one entry per region per sampling period.
type RegionAnalyzer struct {
	PerfLogger
	sim.TimeTeller

	usePeriod bool
	period    sim.SimTime

	periodStart sim.SimTime
	counts      map[sim.Region]uint64
}

// Func counts one handled event.
func (a *RegionAnalyzer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	evt := ctx.Item.(sim.Event)
	now := a.CurrentTime()

	if a.usePeriod && now >= a.periodStart+a.period {
		a.summarize(now)
	}

	a.counts[evt.Region()]++
}

func (a *RegionAnalyzer) summarize(now sim.SimTime) {
	end := a.periodStart + a.period
	if !a.usePeriod || end > now {
		end = now
	}

	a.report(a.periodStart, end)

	if a.usePeriod {
		a.counts = make(map[sim.Region]uint64)
		a.periodStart = now / a.period * a.period
	}
}

func (a *RegionAnalyzer) report(start, end sim.SimTime) {
	for _, region := range []sim.Region{
		sim.RegionActive, sim.RegionInactive, sim.RegionNBA,
	} {
		count := a.counts[region]
		if count == 0 {
			continue
		}

		a.PerfLogger.AddDataEntry(PerfAnalyzerEntry{
			Start:     start,
			End:       end,
			Where:     "Kernel",
			What:      region.String(),
			EntryType: "Region",
			Value:     float64(count),
			Unit:      "events",
		})
	}
}

// RegionAnalyzerBuilder can build a RegionAnalyzer.
type RegionAnalyzerBuilder struct {
	perfLogger PerfLogger
	timeTeller sim.TimeTeller
	usePeriod  bool
	period     sim.SimTime
}

// MakeRegionAnalyzerBuilder creates a RegionAnalyzerBuilder.
func MakeRegionAnalyzerBuilder() RegionAnalyzerBuilder {
	return RegionAnalyzerBuilder{}
}

// WithPerfLogger sets the PerfLogger to use.
func (b RegionAnalyzerBuilder) WithPerfLogger(
	perfLogger PerfLogger,
) RegionAnalyzerBuilder {
	b.perfLogger = perfLogger
	return b
}

// WithTimeTeller sets the TimeTeller to use.
func (b RegionAnalyzerBuilder) WithTimeTeller(
	timeTeller sim.TimeTeller,
) RegionAnalyzerBuilder {
	b.timeTeller = timeTeller
	return b
}

// WithPeriod sets the sampling period, in ticks.
func (b RegionAnalyzerBuilder) WithPeriod(
	period sim.SimTime,
) RegionAnalyzerBuilder {
	b.usePeriod = true
	b.period = period
	return b
}

// Build creates a RegionAnalyzer.
func (b RegionAnalyzerBuilder) Build() *RegionAnalyzer {
	if b.perfLogger == nil {
		panic("perfLogger is not set")
	}

	if b.timeTeller == nil {
		panic("timeTeller is not set")
	}

	analyzer := &RegionAnalyzer{
		PerfLogger: b.perfLogger,
		TimeTeller: b.timeTeller,
		usePeriod:  b.usePeriod,
		period:     b.period,
		counts:     make(map[sim.Region]uint64),
	}

	atexit.Register(func() {
		analyzer.summarize(analyzer.CurrentTime())
	})

	return analyzer
}
