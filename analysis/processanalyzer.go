package analysis

import (
	"sort"

	"github.com/tebeka/atexit"

	"github.com/hdlab/svsim/sim"
)

// ProcessAnalyzer records, per process and per sampling period, how often
// the process woke up and how many ticks its activations spanned.
type ProcessAnalyzer struct {
	PerfLogger
	sim.TimeTeller

	usePeriod bool
	period    sim.SimTime

	periodStart sim.SimTime
	wakes       map[string]uint64
	runTicks    map[string]uint64
	activeSince map[string]sim.SimTime
}

// Func observes process lifecycle hooks.
func (a *ProcessAnalyzer) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosProcessStart, sim.HookPosProcessResume:
		p := ctx.Item.(*sim.Process)
		now := a.CurrentTime()

		a.rollover(now)
		a.wakes[p.Name()]++
		a.activeSince[p.Name()] = now
	case sim.HookPosProcessSuspend, sim.HookPosProcessFinish:
		p := ctx.Item.(*sim.Process)
		now := a.CurrentTime()

		since, ok := a.activeSince[p.Name()]
		if !ok {
			return
		}

		a.runTicks[p.Name()] += uint64(now - since)
		delete(a.activeSince, p.Name())
	}
}

func (a *ProcessAnalyzer) rollover(now sim.SimTime) {
	if !a.usePeriod || now < a.periodStart+a.period {
		return
	}

	a.report(a.periodStart, a.periodStart+a.period)

	a.wakes = make(map[string]uint64)
	a.runTicks = make(map[string]uint64)
	a.periodStart = now / a.period * a.period
}

func (a *ProcessAnalyzer) summarize() {
	a.report(a.periodStart, a.CurrentTime())
}

func (a *ProcessAnalyzer) report(start, end sim.SimTime) {
	names := make([]string, 0, len(a.wakes))
	for name := range a.wakes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		a.PerfLogger.AddDataEntry(PerfAnalyzerEntry{
			Start:     start,
			End:       end,
			Where:     name,
			What:      "Wakes",
			EntryType: "Process",
			Value:     float64(a.wakes[name]),
			Unit:      "activations",
		})

		if a.runTicks[name] > 0 {
			a.PerfLogger.AddDataEntry(PerfAnalyzerEntry{
				Start:     start,
				End:       end,
				Where:     name,
				What:      "RunSpan",
				EntryType: "Process",
				Value:     float64(a.runTicks[name]),
				Unit:      "ticks",
			})
		}
	}
}

// ProcessAnalyzerBuilder can build a ProcessAnalyzer.
type ProcessAnalyzerBuilder struct {
	perfLogger PerfLogger
	timeTeller sim.TimeTeller
	usePeriod  bool
	period     sim.SimTime
}

// MakeProcessAnalyzerBuilder creates a ProcessAnalyzerBuilder.
func MakeProcessAnalyzerBuilder() ProcessAnalyzerBuilder {
	return ProcessAnalyzerBuilder{}
}

// WithPerfLogger sets the PerfLogger to use.
func (b ProcessAnalyzerBuilder) WithPerfLogger(
	perfLogger PerfLogger,
) ProcessAnalyzerBuilder {
	b.perfLogger = perfLogger
	return b
}

// WithTimeTeller sets the TimeTeller to use.
func (b ProcessAnalyzerBuilder) WithTimeTeller(
	timeTeller sim.TimeTeller,
) ProcessAnalyzerBuilder {
	b.timeTeller = timeTeller
	return b
}

// WithPeriod sets the sampling period, in ticks.
func (b ProcessAnalyzerBuilder) WithPeriod(
	period sim.SimTime,
) ProcessAnalyzerBuilder {
	b.usePeriod = true
	b.period = period
	return b
}

// Build creates a ProcessAnalyzer.
func (b ProcessAnalyzerBuilder) Build() *ProcessAnalyzer {
	if b.perfLogger == nil {
		panic("perfLogger is not set")
	}

	if b.timeTeller == nil {
		panic("timeTeller is not set")
	}

	analyzer := &ProcessAnalyzer{
		PerfLogger:  b.perfLogger,
		TimeTeller:  b.timeTeller,
		usePeriod:   b.usePeriod,
		period:      b.period,
		wakes:       make(map[string]uint64),
		runTicks:    make(map[string]uint64),
		activeSince: make(map[string]sim.SimTime),
	}

	atexit.Register(func() {
		analyzer.summarize()
	})

	return analyzer
}
