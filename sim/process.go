package sim

import (
	"fmt"
	"log"
	"strings"

	"github.com/hdlab/svsim/logic"
)

// ProcessState tracks where a process is in its lifecycle.
type ProcessState int

// The process lifecycle states.
const (
	// ProcessCreated means the process is registered but its body has not
	// started yet.
	ProcessCreated ProcessState = iota

	// ProcessRunnable means the process is executing or scheduled to
	// execute at the current instant.
	ProcessRunnable

	// ProcessSuspended means the process yielded at a suspension point and
	// waits for its condition.
	ProcessSuspended

	// ProcessFinished means the process body returned or the process was
	// torn down with its fork group.
	ProcessFinished
)

func (s ProcessState) String() string {
	switch s {
	case ProcessCreated:
		return "Created"
	case ProcessRunnable:
		return "Runnable"
	case ProcessSuspended:
		return "Suspended"
	case ProcessFinished:
		return "Finished"
	}

	return "Unknown"
}

// A ProcessFunc is the body of a process. It runs in lexical order and may
// only block through the Context it is given.
type ProcessFunc func(ctx *Context)

// An EdgeSpec names one entry of a sensitivity list.
type EdgeSpec struct {
	Signal *Signal
	Edge   logic.Edge
}

func (s EdgeSpec) String() string {
	return s.Edge.String() + " " + s.Signal.Name()
}

// errProcessKilled unwinds a process goroutine that is torn down as part of
// its fork group.
var errProcessKilled = fmt.Errorf("process killed")

// A Process is a cooperatively scheduled unit of execution, the kernel-side
// model of an initial or always block. Each process owns a goroutine, but
// the goroutine runs only while the kernel is parked waiting for it to
// yield, so processes never truly run concurrently.
type Process struct {
	id     string
	name   string
	kernel *Kernel
	body   ProcessFunc

	// sensitivity, when non-empty, makes the process re-arm the list and
	// re-run its body forever, the always-block shape. One-shot processes
	// leave it empty.
	sensitivity []EdgeSpec

	state    ProcessState
	waitGen  uint64
	waitDesc string
	waitSync bool

	resumeCh chan struct{}
	yieldCh  chan struct{}
	killed   bool

	// handle is the fork group the process was spawned into, nil for
	// top-level processes.
	handle    *ForkHandle
	forkCount int

	// childHandles are the fork groups this process has spawned, the unit
	// of teardown for DisableFork.
	childHandles []*ForkHandle
}

func newProcess(
	k *Kernel,
	name string,
	body ProcessFunc,
	sensitivity []EdgeSpec,
) *Process {
	NameMustBeValid(name)

	p := &Process{
		id:          GetIDGenerator().Generate(),
		name:        name,
		kernel:      k,
		body:        body,
		sensitivity: sensitivity,
		resumeCh:    make(chan struct{}),
		yieldCh:     make(chan struct{}),
	}

	k.registerProcess(p)

	return p
}

// spawnProcess registers a process and schedules its first activation at the
// current tick.
func spawnProcess(
	k *Kernel,
	name string,
	body ProcessFunc,
	sensitivity []EdgeSpec,
) *Process {
	p := newProcess(k, name, body, sensitivity)
	k.Schedule(&startEvent{
		EventBase: MakeEventBase(k.readNow(), RegionActive, p),
	})

	return p
}

// Initial spawns a one-shot process that runs its body once, starting at the
// current tick.
func Initial(k *Kernel, name string, body ProcessFunc) *Process {
	return spawnProcess(k, name, body, nil)
}

// Always spawns an edge-sensitive process that re-arms its sensitivity list
// and re-runs its body forever.
func Always(
	k *Kernel,
	name string,
	sensitivity []EdgeSpec,
	body ProcessFunc,
) *Process {
	if len(sensitivity) == 0 {
		log.Panicf("always process %s needs a sensitivity list", name)
	}

	return spawnProcess(k, name, body, sensitivity)
}

// ID returns the unique ID of the process.
func (p *Process) ID() string {
	return p.id
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// State returns the lifecycle state of the process.
func (p *Process) State() ProcessState {
	return p.state
}

// WaitingOn describes the suspension condition of the process, or an empty
// string when the process is not suspended.
func (p *Process) WaitingOn() string {
	if p.state != ProcessSuspended {
		return ""
	}

	return p.waitDesc
}

// startEvent carries the first activation of a process.
type startEvent struct {
	EventBase
}

// resumeEvent wakes a suspended process. It carries the wait generation it
// was issued for; a resume that arrives after the process has moved on is
// stale and dropped.
type resumeEvent struct {
	EventBase
	gen uint64
}

// Handle runs the process in response to its start and resume events.
func (p *Process) Handle(e Event) error {
	switch evt := e.(type) {
	case *startEvent:
		if p.state != ProcessCreated {
			return nil
		}
		p.start()
	case *resumeEvent:
		if p.state != ProcessSuspended || evt.gen != p.waitGen {
			return nil
		}
		p.runSlice()
	default:
		log.Panicf("process %s cannot handle event %T", p.name, e)
	}

	return nil
}

func (p *Process) start() {
	p.state = ProcessRunnable

	k := p.kernel
	if k.NumHooks() > 0 {
		k.InvokeHook(HookCtx{Domain: k, Pos: HookPosProcessStart, Item: p})
	}

	go p.main()
	p.runSlice()
}

// runSlice hands control to the process goroutine and blocks until it yields
// back, either suspended or finished. This handshake is the global run lock
// of the cooperative model.
func (p *Process) runSlice() {
	p.resumeCh <- struct{}{}
	<-p.yieldCh
}

func (p *Process) main() {
	defer p.finish()

	<-p.resumeCh
	if p.killed {
		panic(errProcessKilled)
	}

	ctx := &Context{proc: p, kernel: p.kernel}

	if len(p.sensitivity) > 0 {
		for {
			ctx.waitSpecs(p.sensitivity)
			p.body(ctx)
		}
	} else {
		p.body(ctx)
	}
}

func (p *Process) finish() {
	if r := recover(); r != nil && r != errProcessKilled {
		// A panic in user code is a scheduler-level fatal; re-raising it
		// here tears the run down instead of silently losing the process.
		panic(r)
	}

	p.state = ProcessFinished
	p.waitDesc = ""

	k := p.kernel
	if k.NumHooks() > 0 {
		k.InvokeHook(HookCtx{Domain: k, Pos: HookPosProcessFinish, Item: p})
	}

	if p.handle != nil {
		p.handle.childFinished()
	}

	p.yieldCh <- struct{}{}
}

// prepareWait opens a new wait generation. Wakers registered after
// prepareWait and before park target exactly this suspension.
func (p *Process) prepareWait(desc string) {
	p.waitGen++
	p.waitDesc = desc
	p.waitSync = false
}

// prepareWaitSync is prepareWait for suspensions inside synchronization
// primitives and joins. A run that drains its queue while such a wait is
// outstanding is a starvation deadlock; parking on an edge that never comes
// is just quiescence.
func (p *Process) prepareWaitSync(desc string) {
	p.prepareWait(desc)
	p.waitSync = true
}

// park yields control back to the kernel until a matching resume arrives.
// Must be called from the process goroutine.
func (p *Process) park() {
	p.state = ProcessSuspended

	k := p.kernel
	if k.NumHooks() > 0 {
		k.InvokeHook(HookCtx{
			Domain: k,
			Pos:    HookPosProcessSuspend,
			Item:   p,
			Detail: p.waitDesc,
		})
	}

	p.yieldCh <- struct{}{}
	<-p.resumeCh

	if p.killed {
		panic(errProcessKilled)
	}

	p.state = ProcessRunnable
	p.waitDesc = ""

	if k.NumHooks() > 0 {
		k.InvokeHook(HookCtx{Domain: k, Pos: HookPosProcessResume, Item: p})
	}
}

// kill tears the process down as part of its fork group. The caller must not
// be p itself. Descendant fork groups go first so that a whole subtree
// disappears as a unit.
func (p *Process) kill() {
	for _, h := range p.childHandles {
		h.disable()
	}

	switch p.state {
	case ProcessFinished:
		return
	case ProcessCreated:
		// Never started; there is no goroutine to unwind.
		p.killed = true
		p.state = ProcessFinished
		if p.handle != nil {
			p.handle.childFinished()
		}
	case ProcessSuspended:
		p.killed = true
		p.runSlice()
	case ProcessRunnable:
		log.Panicf("cannot kill running process %s", p.name)
	}
}

// joinMode selects how a fork handle blocks its parent.
type joinMode int

const (
	joinNone joinMode = iota
	joinAny
	joinAll
)

// A ForkHandle tracks the children spawned by one Fork call. The parent can
// block on it with JoinAll or JoinAny, or walk away with JoinNone; either
// way the children are owned by the kernel's process table, not the parent.
type ForkHandle struct {
	parent   *Process
	children []*Process

	finished int
	waiting  joinMode
	waitGen  uint64
}

// Children returns the processes spawned by the fork.
func (h *ForkHandle) Children() []*Process {
	return h.children
}

func (h *ForkHandle) childFinished() {
	h.finished++

	satisfied := (h.waiting == joinAll && h.finished == len(h.children)) ||
		(h.waiting == joinAny && h.finished >= 1)
	if !satisfied {
		return
	}

	h.waiting = joinNone
	h.parent.kernel.wake(h.parent, h.waitGen)
}

// JoinAll blocks the parent until every child has finished. Must be called
// from the forking process.
func (h *ForkHandle) JoinAll() {
	if h.finished == len(h.children) {
		return
	}

	h.parent.prepareWaitSync("join all of " + h.childNames())
	h.waiting = joinAll
	h.waitGen = h.parent.waitGen
	h.parent.park()
}

// JoinAny blocks the parent until the first child finishes. The remaining
// children keep running detached.
func (h *ForkHandle) JoinAny() {
	if h.finished > 0 {
		return
	}

	h.parent.prepareWaitSync("join any of " + h.childNames())
	h.waiting = joinAny
	h.waitGen = h.parent.waitGen
	h.parent.park()
}

// JoinNone returns immediately; the children run independently.
func (h *ForkHandle) JoinNone() {}

func (h *ForkHandle) childNames() string {
	names := make([]string, len(h.children))
	for i, c := range h.children {
		names[i] = c.Name()
	}

	return strings.Join(names, ",")
}

// disable kills every child of the handle that has not finished,
// descendants first.
func (h *ForkHandle) disable() {
	for _, c := range h.children {
		c.kill()
	}
}
