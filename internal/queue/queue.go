// Package queue holds the scan intake FIFO used by the check-in
// processor. Scans arrive faster than lookups complete, so the queue is
// unbounded; it lives only for the duration of one session.
package queue

import "sync"

// FIFO is a thread-safe unbounded first-in-first-out queue of raw
// scanned inputs.
type FIFO struct {
	mu    sync.Mutex
	items []string
}

// NewFIFO creates an empty queue.
func NewFIFO() *FIFO {
	return &FIFO{}
}

// Push appends an item at the tail.
func (q *FIFO) Push(item string) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
}

// Pop removes and returns the head item; ok is false when empty.
func (q *FIFO) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Len reports the number of queued items.
func (q *FIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops all queued items.
func (q *FIFO) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}
