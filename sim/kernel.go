package sim

import (
	"log"
	"math/rand"
	"reflect"
	"sync"
	"sync/atomic"
)

// A DeadlockReport describes a run that drained its event queue while
// processes were still suspended. It is a diagnostic, not a failure: the run
// still ends quiescently.
type DeadlockReport struct {
	Time    SimTime
	Waiting []WaitingProcess
}

// WaitingProcess names one suspended process and the condition it was
// blocked on when the queue ran dry.
type WaitingProcess struct {
	Process string
	Wait    string
}

// A Kernel is an Engine that drives the region-ordered event loop. It is
// single-threaded: although every process owns a goroutine, the kernel and
// the processes hand control back and forth so that exactly one of them runs
// at any moment.
type Kernel struct {
	HookableBase

	timeLock sync.RWMutex
	time     SimTime

	queue   EventQueue
	nextSeq uint64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	finishRequested int32

	processes    []*Process
	levelWaiters []*levelWaiter
	levelDirty   bool
	pulsed       []*NamedEvent
	deferred     []func()

	strict   bool
	shuffler *rand.Rand

	deadlock *DeadlockReport

	simulationEndHandlers []SimulationEndHandler
}

var _ Engine = (*Kernel)(nil)

type levelWaiter struct {
	proc *Process
	pred func() bool
	gen  uint64
}

// NewKernel creates a Kernel with an empty event queue at time zero.
func NewKernel() *Kernel {
	k := new(Kernel)
	k.queue = NewEventQueue()

	return k
}

// Name returns the kernel's name when it acts as a hook domain.
func (k *Kernel) Name() string {
	return "Kernel"
}

// UseStrictChecks turns on diagnostics for legal-but-suspicious behavior,
// such as releasing a semaphore beyond its initial count.
func (k *Kernel) UseStrictChecks() {
	k.strict = true
}

// StrictChecks reports whether strict diagnostics are on.
func (k *Kernel) StrictChecks() bool {
	return k.strict
}

// UseShuffledSlots randomizes the handling order of same-time, same-region
// events with the given seed. Inter-process order within a region is a
// documented don't-care; shuffling surfaces testbenches that accidentally
// depend on one arbitrary order. Region boundaries and the atomicity of the
// NBA batch are preserved.
func (k *Kernel) UseShuffledSlots(seed int64) {
	k.shuffler = rand.New(rand.NewSource(seed))
}

// Schedule registers an event to happen in the future.
func (k *Kernel) Schedule(evt Event) {
	now := k.readNow()
	if evt.Time() < now {
		log.Panicf(
			"scheduling an event earlier than current time, evt %s @ %d, now %d",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	if evt.Region() < RegionActive || evt.Region() > RegionNBA {
		log.Panicf("event %s carries unknown region %d",
			reflect.TypeOf(evt), evt.Region())
	}

	evt.setSequence(atomic.AddUint64(&k.nextSeq, 1))
	k.queue.Push(evt)
}

func (k *Kernel) readNow() SimTime {
	k.timeLock.RLock()
	t := k.time
	k.timeLock.RUnlock()
	return t
}

func (k *Kernel) writeNow(t SimTime) {
	k.timeLock.Lock()
	k.time = t
	k.timeLock.Unlock()
}

// CurrentTime returns the tick the kernel is currently at.
func (k *Kernel) CurrentTime() SimTime {
	return k.readNow()
}

// RequestFinish asks the kernel to stop handling events, the $finish
// equivalent. The current event completes; nothing after it runs.
func (k *Kernel) RequestFinish() {
	atomic.StoreInt32(&k.finishRequested, 1)
}

func (k *Kernel) finishPending() bool {
	return atomic.LoadInt32(&k.finishRequested) != 0
}

// Deadlock returns the report of the last run if it ended with suspended
// processes and an empty queue, or nil.
func (k *Kernel) Deadlock() *DeadlockReport {
	return k.deadlock
}

// Run processes all the events scheduled in the Kernel until the queue is
// exhausted or a finish is requested.
func (k *Kernel) Run() error {
	return k.run(0, false)
}

// RunUntil processes events up to and including the given tick.
func (k *Kernel) RunUntil(t SimTime) error {
	return k.run(t, true)
}

func (k *Kernel) run(horizon SimTime, hasHorizon bool) error {
	k.singleRunLock.Lock()
	defer k.singleRunLock.Unlock()

	k.deadlock = nil

	for {
		if k.finishPending() {
			return nil
		}

		if k.queue.Len() == 0 {
			k.detectDeadlock()
			return nil
		}

		next := k.queue.Peek().Time()
		if hasHorizon && next > horizon {
			k.advanceTo(horizon)
			return nil
		}

		k.pauseLock.Lock()
		k.advanceTo(next)
		k.drainInstant(next)
		k.pauseLock.Unlock()
	}
}

// advanceTo moves the clock to t. Crossing into a new instant clears every
// named-event pulse raised at the previous one.
func (k *Kernel) advanceTo(t SimTime) {
	now := k.readNow()
	if t == now {
		return
	}

	if t < now {
		log.Panicf("cannot advance time backwards, %d -> %d", now, t)
	}

	for _, e := range k.pulsed {
		e.clearPulse()
	}
	k.pulsed = nil

	k.writeNow(t)

	if k.NumHooks() > 0 {
		k.InvokeHook(HookCtx{Domain: k, Pos: HookPosTimeAdvance, Item: t})
	}
}

// drainInstant handles every event at tick t, region by region. The active
// region runs to a fixpoint; each inactive event re-enters that fixpoint;
// the NBA batch applies atomically and may awaken more same-instant work.
func (k *Kernel) drainInstant(t SimTime) {
	for k.queue.Len() > 0 && !k.finishPending() {
		front := k.queue.Peek()
		if front.Time() != t {
			return
		}

		switch front.Region() {
		case RegionActive:
			k.drainActive(t)
		case RegionInactive:
			k.handleEvent(k.queue.Pop())
			k.checkLevelWaiters()
		case RegionNBA:
			k.applyNBABatch(t)
		}
	}
}

func (k *Kernel) drainActive(t SimTime) {
	for !k.finishPending() {
		batch := k.queue.PopSlot(t, RegionActive)
		if len(batch) == 0 {
			return
		}

		if k.shuffler != nil {
			k.shuffler.Shuffle(len(batch), func(i, j int) {
				batch[i], batch[j] = batch[j], batch[i]
			})
		}

		for _, evt := range batch {
			if k.finishPending() {
				return
			}

			k.handleEvent(evt)
			k.checkLevelWaiters()
		}
	}
}

// applyNBABatch pops every NBA event at tick t and applies it in two phases.
// Phase one commits all the values; phase two runs the deferred sensitivity
// notifications. No process observes a half-applied batch, so a classic A/B
// swap through nonblocking writes resolves to swapped values.
func (k *Kernel) applyNBABatch(t SimTime) {
	batch := k.queue.PopSlot(t, RegionNBA)

	for _, evt := range batch {
		k.handleEvent(evt)
	}

	deferred := k.deferred
	k.deferred = nil
	for _, fn := range deferred {
		fn()
	}

	k.checkLevelWaiters()
}

// deferNotify queues a callback to run after the current NBA batch has fully
// committed.
func (k *Kernel) deferNotify(fn func()) {
	k.deferred = append(k.deferred, fn)
}

func (k *Kernel) handleEvent(evt Event) {
	hookCtx := HookCtx{
		Domain: k,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	k.InvokeHook(hookCtx)

	handler := evt.Handler()
	_ = handler.Handle(evt)

	hookCtx.Pos = HookPosAfterEvent
	k.InvokeHook(hookCtx)
}

// registerProcess adds a process to the kernel's process table. Ownership of
// the process stays with the table for the rest of the run.
func (k *Kernel) registerProcess(p *Process) {
	k.processes = append(k.processes, p)
}

// Processes returns the kernel's process table.
func (k *Kernel) Processes() []*Process {
	return k.processes
}

// waitLevel suspends bookkeeping for a level-triggered wait. The predicate
// is evaluated only between events, after updates have committed, so a
// level wait never races a simultaneous write.
func (k *Kernel) waitLevel(p *Process, pred func() bool) {
	k.levelWaiters = append(k.levelWaiters, &levelWaiter{
		proc: p,
		pred: pred,
		gen:  p.waitGen,
	})
}

func (k *Kernel) markLevelDirty() {
	k.levelDirty = true
}

func (k *Kernel) checkLevelWaiters() {
	if !k.levelDirty {
		return
	}
	k.levelDirty = false

	kept := k.levelWaiters[:0]
	for _, w := range k.levelWaiters {
		if w.proc.state != ProcessSuspended || w.proc.waitGen != w.gen {
			continue
		}

		if w.pred() {
			k.wake(w.proc, w.gen)
			continue
		}

		kept = append(kept, w)
	}
	k.levelWaiters = kept
}

// wake schedules a resume of a suspended process at the current tick in the
// active region. A resume carries the wait generation it was issued for;
// stale resumes are dropped when handled.
func (k *Kernel) wake(p *Process, gen uint64) {
	evt := &resumeEvent{
		EventBase: MakeEventBase(k.readNow(), RegionActive, p),
		gen:       gen,
	}
	k.Schedule(evt)
}

// notePulse remembers a named event whose pulse flag must clear when time
// advances.
func (k *Kernel) notePulse(e *NamedEvent) {
	k.pulsed = append(k.pulsed, e)
}

// detectDeadlock reports starvation: the queue is dry while some process is
// still blocked inside a synchronization primitive or a join. Processes
// parked on edges or level conditions do not count; a sensitivity list that
// never fires again is ordinary quiescence.
func (k *Kernel) detectDeadlock() {
	starved := false

	var waiting []WaitingProcess
	for _, p := range k.processes {
		if p.state != ProcessSuspended {
			continue
		}

		waiting = append(waiting, WaitingProcess{
			Process: p.Name(),
			Wait:    p.waitDesc,
		})

		if p.waitSync {
			starved = true
		}
	}

	if !starved {
		return
	}

	report := &DeadlockReport{Time: k.readNow(), Waiting: waiting}
	k.deadlock = report

	log.Printf("deadlock at %d: %d process(es) suspended with no future event",
		report.Time, len(waiting))
	for _, w := range waiting {
		log.Printf("  %s waiting on %s", w.Process, w.Wait)
	}

	k.InvokeHook(HookCtx{Domain: k, Pos: HookPosDeadlock, Item: report})
}

// Pause prevents the Kernel from triggering more events.
func (k *Kernel) Pause() {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	if k.isPaused {
		return
	}

	k.pauseLock.Lock()
	k.isPaused = true
}

// Continue allows the Kernel to trigger more events.
func (k *Kernel) Continue() {
	k.isPausedLock.Lock()
	defer k.isPausedLock.Unlock()

	if !k.isPaused {
		return
	}

	k.pauseLock.Unlock()
	k.isPaused = false
}

// RegisterSimulationEndHandler registers a handler to be called after the
// simulation ends.
func (k *Kernel) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	k.simulationEndHandlers = append(k.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. Processes that are
// still suspended are torn down, releasing their goroutines, and then all
// the registered SimulationEndHandlers run.
func (k *Kernel) Finished() {
	for _, p := range k.processes {
		p.kill()
	}

	now := k.readNow()
	for _, h := range k.simulationEndHandlers {
		h.Handle(now)
	}
}
