package sim

import (
	"log"

	"github.com/hdlab/svsim/logic"
)

// A Signal holds a 4-state value and the sensitivity registrations of the
// processes waiting on it. Every bit starts as X, the state of an
// uninitialized variable.
//
// A blocking write commits immediately and wakes matching edge waiters in
// the same region pass. A nonblocking write computes the value now but
// carries it in an NBA-region event; readers observe the old value until the
// whole batch for the instant applies.
type Signal struct {
	id     string
	name   string
	width  int
	kernel *Kernel

	value logic.Vector

	edgeWaiters []*edgeWaiter

	// batchOld holds the pre-batch value while an NBA batch is being
	// applied, nil outside a batch.
	batchOld *logic.Vector
}

type edgeWaiter struct {
	proc *Process
	edge logic.Edge
	gen  uint64
}

// NewSignal declares a signal of the given width on the kernel. The name
// must be unique among whatever registry the caller keeps; the kernel itself
// does not index signals.
func NewSignal(k *Kernel, name string, width int) *Signal {
	NameMustBeValid(name)

	if width <= 0 {
		log.Panicf("signal %s must have positive width, got %d", name, width)
	}

	return &Signal{
		id:     GetIDGenerator().Generate(),
		name:   name,
		width:  width,
		kernel: k,
		value:  logic.NewVector(width),
	}
}

// ID returns the unique ID of the signal.
func (s *Signal) ID() string {
	return s.id
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Width returns the number of bits of the signal.
func (s *Signal) Width() int {
	return s.width
}

// Value returns the current committed value. Pending NBA updates are not
// visible.
func (s *Signal) Value() logic.Vector {
	return s.value
}

// Write commits a value from outside any process, typically testbench setup
// before the run starts. Inside a process body use Context.Write so that the
// no-self-trigger rule can attribute the writer.
func (s *Signal) Write(v logic.Vector) {
	s.commit(nil, v)
}

// commit applies a blocking write. The value changes immediately; edge
// waiters other than the writer wake in the active region of the current
// instant; level waiters are re-checked once the running process yields.
func (s *Signal) commit(writer *Process, v logic.Vector) {
	v = v.Resize(s.width)

	old := s.value
	if old.Eq(v) {
		return
	}

	s.value = v
	s.noteChange(v)
	s.wakeEdgeWaiters(old, v, writer)
}

func (s *Signal) noteChange(v logic.Vector) {
	k := s.kernel
	k.markLevelDirty()

	if k.NumHooks() > 0 {
		k.InvokeHook(HookCtx{
			Domain: k,
			Pos:    HookPosSignalUpdate,
			Item:   s,
			Detail: v,
		})
	}
}

// registerEdgeWaiter arms a one-shot edge registration for the process's
// current wait generation.
func (s *Signal) registerEdgeWaiter(p *Process, edge logic.Edge) {
	s.edgeWaiters = append(s.edgeWaiters, &edgeWaiter{
		proc: p,
		edge: edge,
		gen:  p.waitGen,
	})
}

// wakeEdgeWaiters wakes every registration that matches the transition from
// old to new. Posedge and negedge follow the LSB; AnyEdge fires on any bit
// difference. The writer of a blocking assignment is excluded so a process
// that reads and writes the same signal in one pass does not re-enter
// itself.
func (s *Signal) wakeEdgeWaiters(old, new logic.Vector, exclude *Process) {
	kept := s.edgeWaiters[:0]
	for _, w := range s.edgeWaiters {
		if w.proc.state != ProcessSuspended || w.proc.waitGen != w.gen {
			continue
		}

		if w.proc == exclude {
			kept = append(kept, w)
			continue
		}

		if s.edgeMatches(w.edge, old, new) {
			s.kernel.wake(w.proc, w.gen)
			continue
		}

		kept = append(kept, w)
	}
	s.edgeWaiters = kept
}

func (s *Signal) edgeMatches(e logic.Edge, old, new logic.Vector) bool {
	if e == logic.AnyEdge {
		return !old.Eq(new)
	}

	return e.Matches(old.Lsb(), new.Lsb())
}

// nbaUpdateEvent carries one nonblocking write. The value was computed at
// schedule time; the event only commits it.
type nbaUpdateEvent struct {
	EventBase
	value logic.Vector
}

// scheduleNBA schedules a nonblocking write to apply in the NBA region at
// now+delay.
func (s *Signal) scheduleNBA(v logic.Vector, delay SimTime) {
	evt := &nbaUpdateEvent{
		EventBase: MakeEventBase(
			s.kernel.readNow()+delay, RegionNBA, s),
		value: v.Resize(s.width),
	}
	s.kernel.Schedule(evt)
}

// Handle commits one NBA update. Events arrive in sequence order, so the
// last write in program order wins. Notification is deferred until the whole
// batch has committed; the kernel calls flushBatch afterwards.
func (s *Signal) Handle(e Event) error {
	evt, ok := e.(*nbaUpdateEvent)
	if !ok {
		log.Panicf("signal %s cannot handle event %T", s.name, e)
	}

	if s.batchOld == nil {
		old := s.value
		s.batchOld = &old
		s.kernel.deferNotify(s.flushBatch)
	}

	s.value = evt.value

	return nil
}

func (s *Signal) flushBatch() {
	old := *s.batchOld
	s.batchOld = nil

	if old.Eq(s.value) {
		return
	}

	s.noteChange(s.value)
	// No writer exclusion here: no process is mid-pass when a batch
	// flushes.
	s.wakeEdgeWaiters(old, s.value, nil)
}
