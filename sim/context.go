package sim

import (
	"fmt"

	"github.com/hdlab/svsim/logic"
)

// A Context is the handle a process body uses to interact with the kernel.
// Every blocking operation on it is a suspension point: the process yields
// and the kernel decides when it runs again. A Context is bound to one
// process and must not escape to another goroutine.
type Context struct {
	proc   *Process
	kernel *Kernel
}

// Process returns the process the context is bound to.
func (c *Context) Process() *Process {
	return c.proc
}

// Now returns the current simulation tick.
func (c *Context) Now() SimTime {
	return c.kernel.readNow()
}

// Delay suspends the process for d ticks. A zero delay defers the process to
// the inactive region of the current instant, the #0 idiom.
func (c *Context) Delay(d SimTime) {
	p := c.proc
	p.prepareWait(fmt.Sprintf("#%d", d))

	region := RegionActive
	if d == 0 {
		region = RegionInactive
	}

	c.kernel.Schedule(&resumeEvent{
		EventBase: MakeEventBase(c.kernel.readNow()+d, region, p),
		gen:       p.waitGen,
	})

	p.park()
}

// WaitEdge suspends the process until the signal sees the given edge.
// Posedge and negedge follow the least significant bit.
func (c *Context) WaitEdge(s *Signal, edge logic.Edge) {
	p := c.proc
	p.prepareWait("@" + edge.String() + " " + s.Name())
	s.registerEdgeWaiter(p, edge)
	p.park()
}

// WaitAnyEdge suspends the process until any of the signals changes value.
func (c *Context) WaitAnyEdge(signals ...*Signal) {
	p := c.proc

	names := ""
	for i, s := range signals {
		if i > 0 {
			names += ","
		}
		names += s.Name()
	}
	p.prepareWait("@(" + names + ")")

	for _, s := range signals {
		s.registerEdgeWaiter(p, logic.AnyEdge)
	}

	p.park()
}

// waitSpecs suspends on a full sensitivity list. Used by always-style
// processes between body iterations.
func (c *Context) waitSpecs(specs []EdgeSpec) {
	p := c.proc

	desc := "@("
	for i, spec := range specs {
		if i > 0 {
			desc += " or "
		}
		desc += spec.String()
	}
	p.prepareWait(desc + ")")

	for _, spec := range specs {
		spec.Signal.registerEdgeWaiter(p, spec.Edge)
	}

	p.park()
}

// WaitUntil suspends the process until the predicate over current values
// holds. If it already holds, WaitUntil returns without suspending. The
// predicate is evaluated only after updates have committed, never mid-write,
// so it cannot race a simultaneous assignment.
func (c *Context) WaitUntil(pred func() bool) {
	if pred() {
		return
	}

	p := c.proc
	p.prepareWait("wait(condition)")
	c.kernel.waitLevel(p, pred)
	p.park()
}

// WaitEvent suspends the process until the named event is next triggered.
// A trigger earlier in the same instant does not count; use WaitTriggered
// for the level form.
func (c *Context) WaitEvent(e *NamedEvent) {
	p := c.proc
	p.prepareWaitSync("@" + e.Name())
	e.registerWaiter(p)
	p.park()
}

// WaitTriggered returns immediately if the event has already pulsed at the
// current instant, otherwise it waits for the next trigger. This is the
// wait(e.triggered) form that closes the race between a wait and a trigger
// landing at the same instant.
func (c *Context) WaitTriggered(e *NamedEvent) {
	if e.Triggered() {
		return
	}

	c.WaitEvent(e)
}

// Fork spawns one child process per body. Children start at the current
// tick, so their delays are naturally relative to the fork's entry time.
// The returned handle joins the group; regardless of join mode the children
// are owned by the kernel's process table.
func (c *Context) Fork(bodies ...ProcessFunc) *ForkHandle {
	p := c.proc
	h := &ForkHandle{parent: p}

	for _, body := range bodies {
		name := fmt.Sprintf("%s.Fork[%d]", p.name, p.forkCount)
		p.forkCount++

		child := spawnProcess(c.kernel, name, body, nil)
		child.handle = h
		h.children = append(h.children, child)
	}

	p.childHandles = append(p.childHandles, h)

	return h
}

// DisableFork tears down every outstanding child this process has forked,
// recursively, as whole groups.
func (c *Context) DisableFork() {
	for _, h := range c.proc.childHandles {
		h.disable()
	}
}

// Read returns the current committed value of the signal.
func (c *Context) Read(s *Signal) logic.Vector {
	return s.Value()
}

// Write performs a blocking assignment: the value commits immediately and
// dependents wake within the current region pass. The writing process never
// re-triggers itself through its own write.
func (c *Context) Write(s *Signal, v logic.Vector) {
	s.commit(c.proc, v)
}

// WriteNBA performs a nonblocking assignment: the value is computed now and
// applied with the rest of the instant's NBA batch.
func (c *Context) WriteNBA(s *Signal, v logic.Vector) {
	s.scheduleNBA(v, 0)
}

// WriteNBADelay performs a nonblocking assignment that applies in the NBA
// region d ticks from now.
func (c *Context) WriteNBADelay(s *Signal, v logic.Vector, d SimTime) {
	s.scheduleNBA(v, d)
}

// Finish requests the end of the simulation. The request takes effect when
// the calling process next yields; nothing after that runs.
func (c *Context) Finish() {
	c.kernel.RequestFinish()
}
