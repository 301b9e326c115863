// Package simulation assembles a kernel with recording, tracing, and
// monitoring, and provides the module-scoped symbol table through which
// testbenches declare signals, processes, and synchronization primitives.
package simulation

import (
	"log"

	"github.com/hdlab/svsim/datarecording"
	"github.com/hdlab/svsim/logic"
	"github.com/hdlab/svsim/monitoring"
	"github.com/hdlab/svsim/sim"
	"github.com/hdlab/svsim/tracing"
)

// A Simulation owns everything that belongs to one simulation run.
type Simulation struct {
	id        string
	kernel    *sim.Kernel
	timescale sim.Timescale

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	visTracer    *tracing.DBTracer
	busyTracer   *tracing.BusyTimeTracer

	symbols    map[string]string
	signals    map[string]*sim.Signal
	processes  map[string]*sim.Process
	semaphores map[string]*sim.Semaphore
	mailboxes  map[string]*sim.Mailbox
	events     map[string]*sim.NamedEvent
}

// ID returns the unique ID of the run.
func (s *Simulation) ID() string {
	return s.id
}

// Kernel returns the kernel that drives the simulation.
func (s *Simulation) Kernel() *sim.Kernel {
	return s.kernel
}

// Timescale returns the real-time duration of one tick.
func (s *Simulation) Timescale() sim.Timescale {
	return s.timescale
}

// DataRecorder returns the data recorder used in the simulation, nil when
// recording is disabled.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor used in the simulation, nil when monitoring is
// disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// VisTracer returns the tracer that records process activity, nil when
// recording is disabled.
func (s *Simulation) VisTracer() *tracing.DBTracer {
	return s.visTracer
}

// ProcessBusyTime returns the number of ticks during which at least one
// process task was running, overlaps counted once.
func (s *Simulation) ProcessBusyTime() sim.SimTime {
	return s.busyTracer.BusyTime()
}

// declareSymbol rejects duplicate top-level identifiers across all symbol
// kinds.
func (s *Simulation) declareSymbol(name, kind string) {
	if existing, ok := s.symbols[name]; ok {
		log.Panicf("identifier %s already declared as a %s", name, existing)
	}

	s.symbols[name] = kind
}

// DeclareSignal declares a named signal of the given width, initially all X.
func (s *Simulation) DeclareSignal(name string, width int) *sim.Signal {
	s.declareSymbol(name, "signal")

	sig := sim.NewSignal(s.kernel, name, width)
	s.signals[name] = sig

	if s.monitor != nil {
		s.monitor.RegisterSignal(sig)
	}

	return sig
}

// AddProcess adds a one-shot process that starts at the current tick.
func (s *Simulation) AddProcess(name string, body sim.ProcessFunc) *sim.Process {
	s.declareSymbol(name, "process")

	p := sim.Initial(s.kernel, name, body)
	s.processes[name] = p

	return p
}

// AddAlways adds an edge-sensitive process that re-runs its body forever.
func (s *Simulation) AddAlways(
	name string,
	sensitivity []sim.EdgeSpec,
	body sim.ProcessFunc,
) *sim.Process {
	s.declareSymbol(name, "process")

	p := sim.Always(s.kernel, name, sensitivity, body)
	s.processes[name] = p

	return p
}

// NewSemaphore declares a counting semaphore with n initial keys.
func (s *Simulation) NewSemaphore(name string, n int) *sim.Semaphore {
	s.declareSymbol(name, "semaphore")

	sem := sim.NewSemaphore(s.kernel, name, n)
	s.semaphores[name] = sem

	if s.monitor != nil {
		s.monitor.RegisterSemaphore(sem)
	}

	return sem
}

// NewMailbox declares a mailbox. Capacity 0 means unbounded.
func (s *Simulation) NewMailbox(name string, capacity int) *sim.Mailbox {
	s.declareSymbol(name, "mailbox")

	mb := sim.NewMailbox(s.kernel, name, capacity)
	s.mailboxes[name] = mb

	if s.monitor != nil {
		s.monitor.RegisterMailbox(mb)
	}

	return mb
}

// NewEvent declares a named event.
func (s *Simulation) NewEvent(name string) *sim.NamedEvent {
	s.declareSymbol(name, "event")

	e := sim.NewNamedEvent(s.kernel, name)
	s.events[name] = e

	if s.monitor != nil {
		s.monitor.RegisterEvent(e)
	}

	return e
}

// SignalByName looks a signal up in the symbol table.
func (s *Simulation) SignalByName(name string) *sim.Signal {
	return s.signals[name]
}

// ProcessByName looks a process up in the symbol table.
func (s *Simulation) ProcessByName(name string) *sim.Process {
	return s.processes[name]
}

// SemaphoreByName looks a semaphore up in the symbol table.
func (s *Simulation) SemaphoreByName(name string) *sim.Semaphore {
	return s.semaphores[name]
}

// MailboxByName looks a mailbox up in the symbol table.
func (s *Simulation) MailboxByName(name string) *sim.Mailbox {
	return s.mailboxes[name]
}

// EventByName looks a named event up in the symbol table.
func (s *Simulation) EventByName(name string) *sim.NamedEvent {
	return s.events[name]
}

// ReadSignal returns the current value of a named signal.
func (s *Simulation) ReadSignal(name string) logic.Vector {
	sig := s.signals[name]
	if sig == nil {
		log.Panicf("signal %s is not declared", name)
	}

	return sig.Value()
}

// Run runs the simulation until the given tick, or to quiescence when until
// is zero.
func (s *Simulation) Run(until sim.SimTime) error {
	if until > 0 {
		return s.kernel.RunUntil(until)
	}

	return s.kernel.Run()
}

// Terminate flushes and closes everything the simulation owns.
func (s *Simulation) Terminate() {
	s.kernel.Finished()

	if s.visTracer != nil {
		s.visTracer.Terminate()
	}

	if s.dataRecorder != nil {
		s.dataRecorder.Close()
	}
}
