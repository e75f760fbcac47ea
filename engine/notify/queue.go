package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue buffers notifications and delivers them to subscribers from its own
// goroutine. When the buffer is full the oldest pending entry is dropped, so
// Notify never waits on a slow subscriber.
type Queue struct {
	mu      sync.Mutex
	pending []Notification
	size    int
	subs    map[int]func(Notification)
	nextSub int
	closed  bool

	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

// NewQueue starts a queue holding at most size undelivered notifications.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	q := &Queue{
		size: size,
		subs: make(map[int]func(Notification)),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

func (q *Queue) Notify(_ context.Context, message string, severity Severity) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if len(q.pending) >= q.size {
		q.pending = q.pending[1:]
		q.dropped.Add(1)
	}
	q.pending = append(q.pending, newNotification(message, severity))
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Subscribe registers fn for every future delivery. The returned function
// removes the subscription.
func (q *Queue) Subscribe(fn func(Notification)) func() {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

// Dropped reports how many notifications were discarded on overflow.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Close delivers what is pending and stops the dispatcher.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.done)
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.wake:
			q.drain()
		case <-q.done:
			q.drain()
			return
		}
	}
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		n := q.pending[0]
		q.pending = q.pending[1:]
		subs := make([]func(Notification), 0, len(q.subs))
		for _, fn := range q.subs {
			subs = append(subs, fn)
		}
		q.mu.Unlock()
		for _, fn := range subs {
			fn(n)
		}
	}
}

// Recorder keeps every notification it receives. JSON command output uses
// it to report feedback alongside data.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, message string, severity Severity) {
	r.mu.Lock()
	r.items = append(r.items, newNotification(message, severity))
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Len returns the number of recorded notifications.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}
