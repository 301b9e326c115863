// Package analysis samples performance metrics of a running simulation,
// such as events handled per region, process wake counts, and buffer
// levels, and stores them in CSV files or SQLite databases.
package analysis

import (
	"github.com/hdlab/svsim/sim"
)

// PerfAnalyzerEntry is a single entry in the performance database.
type PerfAnalyzerEntry struct {
	Start     sim.SimTime
	End       sim.SimTime
	Where     string
	What      string
	EntryType string
	Value     float64
	Unit      string
}

// PerfLogger is the interface that provides the service that can record
// performance data entries.
type PerfLogger interface {
	AddDataEntry(entry PerfAnalyzerEntry)
}

// PerfAnalyzer can report performance metrics during simulation.
type PerfAnalyzer struct {
	usePeriod bool
	period    sim.SimTime
	kernel    *sim.Kernel
	backend   PerfAnalyzerBackend
}

// RegisterKernel attaches region and process analyzers to the kernel.
func (p *PerfAnalyzer) RegisterKernel(k *sim.Kernel) {
	p.kernel = k

	regionAnalyzerBuilder := MakeRegionAnalyzerBuilder().
		WithTimeTeller(k).
		WithPerfLogger(p)
	processAnalyzerBuilder := MakeProcessAnalyzerBuilder().
		WithTimeTeller(k).
		WithPerfLogger(p)

	if p.usePeriod {
		regionAnalyzerBuilder = regionAnalyzerBuilder.WithPeriod(p.period)
		processAnalyzerBuilder = processAnalyzerBuilder.WithPeriod(p.period)
	}

	k.AcceptHook(regionAnalyzerBuilder.Build())
	k.AcceptHook(processAnalyzerBuilder.Build())
}

// RegisterBuffer attaches a buffer level analyzer to a buffer.
func (p *PerfAnalyzer) RegisterBuffer(buf sim.Buffer) {
	bufferAnalyzerBuilder := MakeBufferAnalyzerBuilder().
		WithTimeTeller(p.kernel).
		WithPerfLogger(p).
		WithBuffer(buf)

	if p.usePeriod {
		bufferAnalyzerBuilder = bufferAnalyzerBuilder.WithPeriod(p.period)
	}

	buf.AcceptHook(bufferAnalyzerBuilder.Build())
}

// AddDataEntry adds a data entry to the backend.
func (p *PerfAnalyzer) AddDataEntry(entry PerfAnalyzerEntry) {
	p.backend.AddDataEntry(entry)
}

// Flush flushes the backend.
func (p *PerfAnalyzer) Flush() {
	p.backend.Flush()
}

// PerfAnalyzerBuilder is a builder that can build a PerfAnalyzer.
type PerfAnalyzerBuilder struct {
	usePeriod   bool
	period      sim.SimTime
	backendType string
	dbFilename  string
}

// MakePerfAnalyzerBuilder creates a new PerfAnalyzerBuilder.
func MakePerfAnalyzerBuilder() PerfAnalyzerBuilder {
	return PerfAnalyzerBuilder{
		backendType: "csv",
		dbFilename:  "perf",
	}
}

// WithPeriod sets the sampling period of the PerfAnalyzer, in ticks.
func (b PerfAnalyzerBuilder) WithPeriod(
	period sim.SimTime,
) PerfAnalyzerBuilder {
	b.usePeriod = true
	b.period = period
	return b
}

// WithSQLiteBackend sets the backend of the PerfAnalyzer to be SQLite.
func (b PerfAnalyzerBuilder) WithSQLiteBackend() PerfAnalyzerBuilder {
	b.backendType = "sqlite"
	return b
}

// WithDBFilename sets the filename of the output file.
func (b PerfAnalyzerBuilder) WithDBFilename(
	filename string,
) PerfAnalyzerBuilder {
	b.dbFilename = filename
	return b
}

// Build creates a PerfAnalyzer.
func (b PerfAnalyzerBuilder) Build() *PerfAnalyzer {
	var backend PerfAnalyzerBackend

	switch b.backendType {
	case "csv":
		backend = NewCSVPerfAnalyzerBackend(b.dbFilename)
	case "sqlite":
		backend = NewSQLitePerfAnalyzerBackend(b.dbFilename)
	default:
		panic("unknown backend type " + b.backendType)
	}

	return &PerfAnalyzer{
		usePeriod: b.usePeriod,
		period:    b.period,
		backend:   backend,
	}
}
