package sim

import "log"

// A NamedEvent is the zero-payload coordination object of the source domain.
// Triggering it wakes every process currently waiting on it and raises a
// pulse flag that stays readable for the rest of the instant, then clears
// when time advances. Handles alias by pointer: assigning a *NamedEvent
// shares the one underlying record, it never copies it.
type NamedEvent struct {
	name   string
	kernel *Kernel

	pulsed  bool
	waiters []*eventWaiter
}

type eventWaiter struct {
	proc *Process
	gen  uint64
}

// NewNamedEvent creates a named event on the kernel.
func NewNamedEvent(k *Kernel, name string) *NamedEvent {
	NameMustBeValid(name)

	return &NamedEvent{name: name, kernel: k}
}

// Name returns the name of the event.
func (e *NamedEvent) Name() string {
	return e.name
}

// Triggered reports whether the event has pulsed at the current instant.
// The flag is maintained by the scheduler, not polled from a variable, so a
// check at the trigger's own instant reliably sees it and a check one time
// step later reliably does not.
func (e *NamedEvent) Triggered() bool {
	return e.pulsed
}

// Trigger pulses the event now, waking every waiter in the active region of
// the current instant.
func (e *NamedEvent) Trigger() {
	e.pulse()
	e.fireWaiters()
}

// TriggerLater defers the trigger to the NBA region of the current instant,
// the nonblocking ->> form.
func (e *NamedEvent) TriggerLater() {
	e.kernel.Schedule(&eventTriggerEvent{
		EventBase: MakeEventBase(e.kernel.readNow(), RegionNBA, e),
	})
}

func (e *NamedEvent) pulse() {
	if !e.pulsed {
		e.pulsed = true
		e.kernel.notePulse(e)
	}
}

func (e *NamedEvent) fireWaiters() {
	waiters := e.waiters
	e.waiters = nil

	for _, w := range waiters {
		if w.proc.state != ProcessSuspended || w.proc.waitGen != w.gen {
			continue
		}

		e.kernel.wake(w.proc, w.gen)
	}
}

func (e *NamedEvent) registerWaiter(p *Process) {
	e.waiters = append(e.waiters, &eventWaiter{proc: p, gen: p.waitGen})
}

func (e *NamedEvent) clearPulse() {
	e.pulsed = false
}

// eventTriggerEvent carries a deferred trigger into the NBA region.
type eventTriggerEvent struct {
	EventBase
}

// Handle raises the pulse with the NBA batch; waking the waiters is deferred
// until the whole batch has committed, like any other NBA notification.
func (e *NamedEvent) Handle(evt Event) error {
	if _, ok := evt.(*eventTriggerEvent); !ok {
		log.Panicf("named event %s cannot handle event %T", e.name, evt)
	}

	e.pulse()
	e.kernel.deferNotify(e.fireWaiters)

	return nil
}
