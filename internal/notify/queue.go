package notify

import (
	"context"
	"sync"
)

// Queue buffers the notifications of one client until they are drained. When
// full, the oldest entry is dropped. Live subscribers receive every
// notification as it arrives; a subscriber that is not keeping up misses it.
type Queue struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	nextID   int
	subs     map[int]chan Notification
}

// NewQueue creates a queue holding at most capacity notifications.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{capacity: capacity, subs: make(map[int]chan Notification)}
}

// Notify implements Notifier.
func (q *Queue) Notify(_ context.Context, n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, n)

	for _, ch := range q.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Drain returns and clears the buffered notifications, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len returns the number of buffered notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Subscribe returns a channel receiving notifications as they arrive and a
// function that closes it.
func (q *Queue) Subscribe() (<-chan Notification, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	ch := make(chan Notification, q.capacity)
	q.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.subs, id)
			q.mu.Unlock()
			close(ch)
		})
	}
}
