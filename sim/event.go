package sim

// SimTime is the simulated time expressed in integer ticks. It never
// decreases over the lifetime of a run. Timescale converts ticks to and from
// real-world units.
type SimTime uint64

// Region identifies the scheduling phase within one simulation instant.
// Events at the same instant drain strictly in region order.
type Region int

// The scheduling regions of one simulation instant.
const (
	// RegionActive holds process resumptions and evaluation events. It is
	// drained to a fixpoint before the later regions run.
	RegionActive Region = iota

	// RegionInactive holds zero-delay deferred events (#0 semantics). Each
	// inactive event handled re-enters the active fixpoint.
	RegionInactive

	// RegionNBA holds nonblocking-assignment updates. The whole batch at one
	// instant is applied atomically.
	RegionNBA
)

func (r Region) String() string {
	switch r {
	case RegionActive:
		return "Active"
	case RegionInactive:
		return "Inactive"
	case RegionNBA:
		return "NBA"
	}

	return "Unknown"
}

// An Event is something going to happen in the future.
type Event interface {
	// Time returns the tick at which the event should happen.
	Time() SimTime

	// Region returns the scheduling region the event belongs to.
	Region() Region

	// Handler returns the handler that should handle the event.
	Handler() Handler

	// Sequence is the schedule-order tie-breaker among same-time,
	// same-region events. It is assigned by the kernel at schedule time and
	// preserves program order within one process body.
	Sequence() uint64
	setSequence(seq uint64)
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	ID     string
	time   SimTime
	region Region
	hdl    Handler
	seq    uint64
}

// MakeEventBase creates an EventBase value.
func MakeEventBase(t SimTime, r Region, handler Handler) EventBase {
	return EventBase{
		ID:     GetIDGenerator().Generate(),
		time:   t,
		region: r,
		hdl:    handler,
	}
}

// Time returns the tick at which the event is going to happen.
func (e *EventBase) Time() SimTime {
	return e.time
}

// Region returns the scheduling region of the event.
func (e *EventBase) Region() Region {
	return e.region
}

// Handler returns the handler to handle the event.
func (e *EventBase) Handler() Handler {
	return e.hdl
}

// Sequence returns the schedule-order tie-breaker assigned by the kernel.
func (e *EventBase) Sequence() uint64 {
	return e.seq
}

func (e *EventBase) setSequence(seq uint64) {
	e.seq = seq
}

// A Handler defines a domain for the events.
//
// One event is always constrained to one Handler, which means the event can
// only be scheduled by one handler and can only directly modify that handler.
type Handler interface {
	Handle(e Event) error
}
