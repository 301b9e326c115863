package sim

import (
	"container/heap"
	"container/list"
	"sync"
)

// EventQueue is a queue of events ordered by (time, region, sequence).
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event

	// PopSlot removes and returns, in sequence order, every event that
	// matches the given time and region. It is the batch primitive behind
	// the atomic NBA apply.
	PopSlot(t SimTime, r Region) []Event
}

func eventBefore(a, b Event) bool {
	if a.Time() != b.Time() {
		return a.Time() < b.Time()
	}

	if a.Region() != b.Region() {
		return a.Region() < b.Region()
	}

	return a.Sequence() < b.Sequence()
}

// EventQueueImpl provides a thread safe event queue.
type EventQueueImpl struct {
	sync.Mutex
	events eventHeap
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue() *EventQueueImpl {
	q := new(EventQueueImpl)
	q.events = make([]Event, 0)
	heap.Init(&q.events)
	return q
}

// Push adds an event to the event queue.
func (q *EventQueueImpl) Push(evt Event) {
	q.Lock()
	heap.Push(&q.events, evt)
	q.Unlock()
}

// Pop returns the next earliest event.
func (q *EventQueueImpl) Pop() Event {
	q.Lock()
	e := heap.Pop(&q.events).(Event)
	q.Unlock()
	return e
}

// Len returns the number of events in the queue.
func (q *EventQueueImpl) Len() int {
	q.Lock()
	l := q.events.Len()
	q.Unlock()
	return l
}

// Peek returns the event in front of the queue without removing it from the
// queue.
func (q *EventQueueImpl) Peek() Event {
	q.Lock()
	evt := q.events[0]
	q.Unlock()
	return evt
}

// PopSlot removes and returns all the events at the given time and region in
// sequence order. Events that sort before the slot are left in place.
func (q *EventQueueImpl) PopSlot(t SimTime, r Region) []Event {
	q.Lock()
	defer q.Unlock()

	var batch, earlier []Event
	for q.events.Len() > 0 {
		front := q.events[0]
		if front.Time() > t || (front.Time() == t && front.Region() > r) {
			break
		}

		evt := heap.Pop(&q.events).(Event)
		if evt.Time() == t && evt.Region() == r {
			batch = append(batch, evt)
		} else {
			earlier = append(earlier, evt)
		}
	}

	for _, evt := range earlier {
		heap.Push(&q.events, evt)
	}

	return batch
}

type eventHeap []Event

// Len returns the length of the event queue.
func (h eventHeap) Len() int {
	return len(h)
}

// Less determines the order between two events. Less returns true if the i-th
// event happens before the j-th event.
func (h eventHeap) Less(i, j int) bool {
	return eventBefore(h[i], h[j])
}

// Swap changes the position of two events in the event queue.
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push adds an event into the event queue.
func (h *eventHeap) Push(x interface{}) {
	event := x.(Event)
	*h = append(*h, event)
}

// Pop removes and returns the next event to happen.
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	event := old[n-1]
	*h = old[0 : n-1]
	return event
}

// InsertionQueue is a queue that is based on insertion sort.
type InsertionQueue struct {
	lock sync.RWMutex
	l    *list.List
}

// NewInsertionQueue returns a new InsertionQueue.
func NewInsertionQueue() *InsertionQueue {
	q := new(InsertionQueue)
	q.l = list.New()
	return q
}

// Push adds an event to the event queue.
func (q *InsertionQueue) Push(evt Event) {
	q.lock.Lock()

	var ele *list.Element
	for ele = q.l.Front(); ele != nil; ele = ele.Next() {
		if eventBefore(evt, ele.Value.(Event)) {
			break
		}
	}

	if ele != nil {
		q.l.InsertBefore(evt, ele)
	} else {
		q.l.PushBack(evt)
	}

	q.lock.Unlock()
}

// Pop returns the event with the smallest time, and removes it from the
// queue.
func (q *InsertionQueue) Pop() Event {
	q.lock.Lock()
	evt := q.l.Remove(q.l.Front())
	q.lock.Unlock()
	return evt.(Event)
}

// Len returns the number of events in the queue.
func (q *InsertionQueue) Len() int {
	q.lock.RLock()
	l := q.l.Len()
	q.lock.RUnlock()
	return l
}

// Peek returns the event at the front of the queue without removing it from
// the queue.
func (q *InsertionQueue) Peek() Event {
	q.lock.RLock()
	evt := q.l.Front().Value.(Event)
	q.lock.RUnlock()
	return evt
}

// PopSlot removes and returns all the events at the given time and region in
// sequence order. Events that sort before the slot are left in place.
func (q *InsertionQueue) PopSlot(t SimTime, r Region) []Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	var batch []Event
	ele := q.l.Front()
	for ele != nil {
		evt := ele.Value.(Event)
		if evt.Time() > t || (evt.Time() == t && evt.Region() > r) {
			break
		}

		next := ele.Next()
		if evt.Time() == t && evt.Region() == r {
			batch = append(batch, evt)
			q.l.Remove(ele)
		}
		ele = next
	}

	return batch
}
