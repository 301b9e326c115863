package sim

import (
	"log"
	"reflect"

	"github.com/pkg/errors"
)

// ErrMailboxTypeMismatch reports a put of a message whose shape is
// incompatible with the mailbox's declared element type. It is returned to
// the offending process; no other process is disturbed by it.
var ErrMailboxTypeMismatch = errors.New("mailbox message type mismatch")

// GetStatus is the three-way result of a non-blocking get or peek. The
// values echo the sign convention of the source domain: positive for a
// message, zero for empty, negative for a shape mismatch.
type GetStatus int

// The possible results of TryGet and TryPeek.
const (
	GetOK       GetStatus = 1
	GetEmpty    GetStatus = 0
	GetMismatch GetStatus = -1
)

// A Mailbox is a FIFO channel between processes. A bounded mailbox blocks
// putters while full; every mailbox blocks getters while empty. Messages
// come out in exactly the order they went in, across any number of blocked
// putters and getters: handoffs go through the waiter queues in arrival
// order, never by barging.
type Mailbox struct {
	name     string
	kernel   *Kernel
	capacity int

	queue    Buffer
	elemType reflect.Type

	putWaiters []*putWaiter
	getWaiters []*getWaiter
}

type putWaiter struct {
	proc *Process
	msg  interface{}
	gen  uint64
}

type getWaiter struct {
	proc *Process
	msg  interface{}
	gen  uint64
}

// NewMailbox creates a mailbox. Capacity 0 means unbounded: a put never
// blocks.
func NewMailbox(k *Kernel, name string, capacity int) *Mailbox {
	NameMustBeValid(name)

	if capacity < 0 {
		log.Panicf("mailbox %s cannot have capacity %d", name, capacity)
	}

	return &Mailbox{
		name:     name,
		kernel:   k,
		capacity: capacity,
		queue:    NewBuffer(name+".Queue", capacity),
	}
}

// WithElemType restricts the mailbox to messages assignable to t. Returns
// the mailbox for chaining at construction time.
func (m *Mailbox) WithElemType(t reflect.Type) *Mailbox {
	m.elemType = t
	return m
}

// Name returns the name of the mailbox.
func (m *Mailbox) Name() string {
	return m.name
}

// Capacity returns the capacity of the mailbox, 0 for unbounded.
func (m *Mailbox) Capacity() int {
	return m.capacity
}

// Num returns the number of messages currently queued.
func (m *Mailbox) Num() int {
	return m.queue.Size()
}

func (m *Mailbox) checkType(msg interface{}) error {
	if m.elemType == nil {
		return nil
	}

	t := reflect.TypeOf(msg)
	if t == nil || !t.AssignableTo(m.elemType) {
		return errors.Wrapf(ErrMailboxTypeMismatch,
			"mailbox %s expects %s, got %v", m.name, m.elemType, t)
	}

	return nil
}

// Put places a message in the mailbox, suspending the caller while a bounded
// mailbox is full. A shape mismatch is returned as an error without
// suspending and without touching the queue.
func (m *Mailbox) Put(ctx *Context, msg interface{}) error {
	if err := m.checkType(msg); err != nil {
		return err
	}

	if m.deliverToGetter(msg) {
		return nil
	}

	if m.hasRoom() {
		m.queue.Push(msg)
		return nil
	}

	p := ctx.proc
	p.prepareWaitSync(m.name + ".put")

	m.putWaiters = append(m.putWaiters, &putWaiter{
		proc: p,
		msg:  msg,
		gen:  p.waitGen,
	})

	// The message travels with the waiter record; the get side moves it
	// into the queue when space opens.
	p.park()

	return nil
}

// TryPut places a message without blocking. It reports false when the
// mailbox is full. A shape mismatch is returned as an error.
func (m *Mailbox) TryPut(msg interface{}) (bool, error) {
	if err := m.checkType(msg); err != nil {
		return false, err
	}

	if m.deliverToGetter(msg) {
		return true, nil
	}

	if m.hasRoom() {
		m.queue.Push(msg)
		return true, nil
	}

	return false, nil
}

func (m *Mailbox) hasRoom() bool {
	return m.capacity == 0 || m.queue.Size() < m.capacity
}

// deliverToGetter hands a message straight to the longest-waiting getter, if
// any. Getters only queue up while the mailbox is empty, so a direct handoff
// preserves FIFO order.
func (m *Mailbox) deliverToGetter(msg interface{}) bool {
	for len(m.getWaiters) > 0 {
		w := m.getWaiters[0]
		m.getWaiters = m.getWaiters[1:]

		if w.proc.state != ProcessSuspended || w.proc.waitGen != w.gen {
			continue
		}

		w.msg = msg
		m.kernel.wake(w.proc, w.gen)

		return true
	}

	return false
}

// Get removes the oldest message, suspending the caller while the mailbox is
// empty.
func (m *Mailbox) Get(ctx *Context) interface{} {
	if m.queue.Size() > 0 {
		msg := m.queue.Pop()
		m.refillFromPutter()
		return msg
	}

	p := ctx.proc
	p.prepareWaitSync(m.name + ".get")

	w := &getWaiter{proc: p, gen: p.waitGen}
	m.getWaiters = append(m.getWaiters, w)

	p.park()

	return w.msg
}

// refillFromPutter moves the longest-waiting putter's message into the queue
// after a get opens space, keeping global put order intact.
func (m *Mailbox) refillFromPutter() {
	for len(m.putWaiters) > 0 && m.hasRoom() {
		w := m.putWaiters[0]
		m.putWaiters = m.putWaiters[1:]

		if w.proc.state != ProcessSuspended || w.proc.waitGen != w.gen {
			continue
		}

		m.queue.Push(w.msg)
		m.kernel.wake(w.proc, w.gen)

		return
	}
}

// TryGet removes the oldest message without blocking, storing it through the
// pointer dst. The status follows the sign convention: GetOK on success,
// GetEmpty when nothing is queued, GetMismatch when the message does not fit
// dst, in which case it stays queued.
func (m *Mailbox) TryGet(dst interface{}) GetStatus {
	return m.takeInto(dst, true)
}

// TryPeek reads the oldest message without removing it.
func (m *Mailbox) TryPeek(dst interface{}) GetStatus {
	return m.takeInto(dst, false)
}

func (m *Mailbox) takeInto(dst interface{}, remove bool) GetStatus {
	if m.queue.Size() == 0 {
		return GetEmpty
	}

	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Ptr || dstVal.IsNil() {
		log.Panicf("mailbox %s: destination must be a non-nil pointer",
			m.name)
	}

	msg := m.queue.Peek()
	msgVal := reflect.ValueOf(msg)
	if !msgVal.Type().AssignableTo(dstVal.Elem().Type()) {
		return GetMismatch
	}

	dstVal.Elem().Set(msgVal)

	if remove {
		m.queue.Pop()
		m.refillFromPutter()
	}

	return GetOK
}
