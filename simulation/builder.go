package simulation

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/xid"

	"github.com/hdlab/svsim/datarecording"
	"github.com/hdlab/svsim/monitoring"
	"github.com/hdlab/svsim/sim"
	"github.com/hdlab/svsim/tracing"
)

// Builder can be used to build a simulation.
//
// Defaults can also come from the environment (optionally through a .env
// file): SVSIM_MONITOR_PORT, SVSIM_OUTPUT, SVSIM_STRICT, SVSIM_SHUFFLE_SEED,
// and SVSIM_TIMESCALE. Explicit With* calls win over the environment.
type Builder struct {
	monitorOn       bool
	monitorPort     int
	dataRecordingOn bool
	outputFileName  string
	strictChecks    bool
	shuffleSeed     int64
	shuffleOn       bool
	timescale       sim.Timescale
}

// MakeBuilder creates a new builder with defaults taken from the environment.
func MakeBuilder() Builder {
	// Missing .env files are fine, the process environment still applies.
	_ = godotenv.Load()

	b := Builder{
		dataRecordingOn: true,
		timescale:       sim.NS,
	}

	if port := os.Getenv("SVSIM_MONITOR_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			log.Panicf("SVSIM_MONITOR_PORT %q is not a number", port)
		}

		b.monitorOn = true
		b.monitorPort = p
	}

	if out := os.Getenv("SVSIM_OUTPUT"); out != "" {
		b.outputFileName = out
	}

	if strict := os.Getenv("SVSIM_STRICT"); strict != "" {
		v, err := strconv.ParseBool(strict)
		if err != nil {
			log.Panicf("SVSIM_STRICT %q is not a boolean", strict)
		}

		b.strictChecks = v
	}

	if seed := os.Getenv("SVSIM_SHUFFLE_SEED"); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			log.Panicf("SVSIM_SHUFFLE_SEED %q is not a number", seed)
		}

		b.shuffleOn = true
		b.shuffleSeed = v
	}

	if ts := os.Getenv("SVSIM_TIMESCALE"); ts != "" {
		v, err := sim.ParseTimescale(ts)
		if err != nil {
			log.Panicf("SVSIM_TIMESCALE %q is not a timescale", ts)
		}

		b.timescale = v
	}

	return b
}

// WithMonitoring turns the monitoring server on, listening on the given port.
// Port 0 picks a random free port.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port
	return b
}

// WithoutMonitoring turns the monitoring server off.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	b.monitorPort = 0
	return b
}

// WithoutDataRecording disables the SQLite output database. Process tracing
// is disabled with it.
func (b Builder) WithoutDataRecording() Builder {
	b.dataRecordingOn = false
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithStrictChecks turns on diagnostics for legal-but-suspicious testbench
// behavior.
func (b Builder) WithStrictChecks() Builder {
	b.strictChecks = true
	return b
}

// WithShuffleSeed randomizes the handling order of same-tick, same-region
// slots with the given seed, surfacing order-dependent testbench bugs.
func (b Builder) WithShuffleSeed(seed int64) Builder {
	b.shuffleOn = true
	b.shuffleSeed = seed
	return b
}

// WithTimescale sets the real-time duration of one tick.
func (b Builder) WithTimescale(ts sim.Timescale) Builder {
	b.timescale = ts
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.dataRecordingOn && b.outputFileName != "" {
		panic("output file name cannot be set when data recording is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		timescale:  b.timescale,
		symbols:    make(map[string]string),
		signals:    make(map[string]*sim.Signal),
		processes:  make(map[string]*sim.Process),
		semaphores: make(map[string]*sim.Semaphore),
		mailboxes:  make(map[string]*sim.Mailbox),
		events:     make(map[string]*sim.NamedEvent),
	}

	s.id = xid.New().String()

	s.kernel = sim.NewKernel()
	if b.strictChecks {
		s.kernel.UseStrictChecks()
	}
	if b.shuffleOn {
		s.kernel.UseShuffledSlots(b.shuffleSeed)
	}

	tracing.TraceProcesses(s.kernel)

	s.busyTracer = tracing.NewBusyTimeTracer(s.kernel,
		func(t tracing.Task) bool { return t.Kind == "process" })
	tracing.CollectTrace(s.kernel, s.busyTracer)

	if b.dataRecordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "svsim_sim_" + s.id
		}
		s.dataRecorder = datarecording.New(outputPath)

		s.visTracer = tracing.NewDBTracer(s.kernel, s.dataRecorder)
		tracing.CollectTrace(s.kernel, s.visTracer)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterKernel(s.kernel)
		s.monitor.StartServer()
	}

	return s
}
