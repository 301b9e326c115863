package sim

import (
	"fmt"
	"log"
)

// A Semaphore is a counting resource pool with FIFO fairness among blocked
// requesters. A later request for fewer resources never jumps ahead of an
// earlier request for more, so large requesters cannot starve.
type Semaphore struct {
	name   string
	kernel *Kernel

	initial   int
	available int

	waiters []*semWaiter

	warnedOverrelease bool
}

type semWaiter struct {
	proc *Process
	n    int
	gen  uint64
}

// NewSemaphore creates a semaphore holding n keys.
func NewSemaphore(k *Kernel, name string, n int) *Semaphore {
	NameMustBeValid(name)

	if n < 0 {
		log.Panicf("semaphore %s cannot hold %d keys", name, n)
	}

	return &Semaphore{
		name:      name,
		kernel:    k,
		initial:   n,
		available: n,
	}
}

// Name returns the name of the semaphore.
func (s *Semaphore) Name() string {
	return s.name
}

// Available returns the number of keys currently free.
func (s *Semaphore) Available() int {
	return s.available
}

// NumWaiters returns the number of processes blocked in Get.
func (s *Semaphore) NumWaiters() int {
	return len(s.waiters)
}

// Get takes n keys, suspending the caller until they are available. Blocked
// callers are served strictly in arrival order.
func (s *Semaphore) Get(ctx *Context, n int) {
	if len(s.waiters) == 0 && s.available >= n {
		s.available -= n
		return
	}

	p := ctx.proc
	p.prepareWaitSync(fmt.Sprintf("%s.get(%d)", s.name, n))

	s.waiters = append(s.waiters, &semWaiter{
		proc: p,
		n:    n,
		gen:  p.waitGen,
	})

	// The matching Put deducts the keys before waking us, so there is
	// nothing to claim here.
	p.park()
}

// TryGet takes n keys without blocking. It returns n on success and 0
// without any state change on failure. It fails while earlier requesters
// are queued, even if enough keys happen to be free.
func (s *Semaphore) TryGet(n int) int {
	if len(s.waiters) == 0 && s.available >= n {
		s.available -= n
		return n
	}

	return 0
}

// Put returns n keys to the pool, then serves blocked requesters in FIFO
// order for as long as the head request fits. Returning more keys than the
// semaphore was created with is legal but flagged once under strict checks,
// since it usually indicates a design bug.
func (s *Semaphore) Put(n int) {
	s.available += n

	if s.kernel.StrictChecks() &&
		s.available > s.initial && !s.warnedOverrelease {
		s.warnedOverrelease = true
		log.Printf(
			"semaphore %s over-released: %d keys available, created with %d",
			s.name, s.available, s.initial)
	}

	s.serveWaiters()
}

func (s *Semaphore) serveWaiters() {
	for len(s.waiters) > 0 {
		w := s.waiters[0]

		// A waiter torn down with its fork group is dropped without
		// taking keys.
		if w.proc.state != ProcessSuspended || w.proc.waitGen != w.gen {
			s.waiters = s.waiters[1:]
			continue
		}

		if w.n > s.available {
			return
		}

		s.waiters = s.waiters[1:]
		s.available -= w.n
		s.kernel.wake(w.proc, w.gen)
	}
}
