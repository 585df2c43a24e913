package engine

import "sync"

// eventQueue is the unbounded FIFO between submitters and the Run loop.
// Any goroutine may push; only Run pops.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
	head    int // index of the oldest pending event
	closed  bool

	// notify holds at most one token, so a burst of pushes wakes Run once.
	// Closing the queue closes notify.
	notify chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{notify: make(chan struct{}, 1)}
}

// push appends ev. It reports false once the queue is closed.
func (q *eventQueue) push(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.pending = append(q.pending, ev)
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// pop removes the oldest event, if any.
func (q *eventQueue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.head == len(q.pending) {
		return Event{}, false
	}
	ev := q.pending[q.head]
	q.pending[q.head] = Event{} // release payload and reply channel
	q.head++
	if q.head == len(q.pending) {
		q.pending, q.head = q.pending[:0], 0
	} else if q.head > 64 && q.head*2 > len(q.pending) {
		n := copy(q.pending, q.pending[q.head:])
		clear(q.pending[n:])
		q.pending, q.head = q.pending[:n], 0
	}
	return ev, true
}

// drain removes and returns every pending event.
func (q *eventQueue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := append([]Event(nil), q.pending[q.head:]...)
	clear(q.pending)
	q.pending, q.head = q.pending[:0], 0
	return out
}

// ready fires after a push and stays readable forever once closed.
func (q *eventQueue) ready() <-chan struct{} {
	return q.notify
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) - q.head
}

// close rejects further pushes. Events already queued stay poppable.
func (q *eventQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.notify)
	}
}

func (q *eventQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
