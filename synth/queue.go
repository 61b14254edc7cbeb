package synth

import "sync/atomic"

type node struct {
	next atomic.Pointer[node]
	ev   Event
}

// Queue is an unbounded FIFO of events with any number of producers and a
// single consumer. Push and Pop never block; Pop never allocates.
//
// Producers swap themselves onto head, the consumer walks from tail. tail
// always points at an already consumed node (initially the stub).
type Queue struct {
	head atomic.Pointer[node]
	tail *node
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	stub := &node{}
	q := &Queue{tail: stub}
	q.head.Store(stub)
	return q
}

// Push appends an event. Safe to call from any goroutine.
func (q *Queue) Push(ev Event) {
	n := &node{ev: ev}
	prev := q.head.Swap(n)
	prev.next.Store(n)
}

// Pop removes the oldest event. It returns false when nothing is available
// right now; a push that is still linking in is picked up by a later Pop.
// Only the consumer goroutine may call Pop.
func (q *Queue) Pop() (Event, bool) {
	next := q.tail.next.Load()
	if next == nil {
		return Event{}, false
	}
	q.tail = next
	return next.ev, true
}
