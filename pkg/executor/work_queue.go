package executor

import (
	"runtime"
	"sync/atomic"
)

// Key identifies an item in an array owned by the queue's user. Queues store
// keys only, so the items must outlive every queue operation on their keys.
type Key int32

// WorkQueue is a fixed-capacity lock-free ring of keys. Any number of
// goroutines may add and take keys concurrently.
//
// Writers reserve a slot by advancing write, fill it, then publish it by
// advancing committed in reservation order. Readers only see committed slots.
type WorkQueue struct {
	slots     []atomic.Int32
	read      atomic.Int64
	write     atomic.Int64
	committed atomic.Int64
}

// NewWorkQueue creates a queue holding up to capacity keys
func NewWorkQueue(capacity int) *WorkQueue {
	return &WorkQueue{slots: make([]atomic.Int32, capacity)}
}

// Cap returns the capacity of the queue
func (q *WorkQueue) Cap() int {
	return len(q.slots)
}

// Add appends a key. If the queue is full Add yields until a reader makes room.
func (q *WorkQueue) Add(key Key) {
	capacity := int64(len(q.slots))

	var slot int64
	for {
		slot = q.write.Load()
		if slot-q.read.Load() >= capacity {
			runtime.Gosched()
			continue
		}
		if q.write.CompareAndSwap(slot, slot+1) {
			break
		}
	}

	q.slots[slot%capacity].Store(int32(key))

	// Earlier reservations must be published first
	for !q.committed.CompareAndSwap(slot, slot+1) {
		runtime.Gosched()
	}
}

// Next removes and returns the oldest committed key, or false if there is none
func (q *WorkQueue) Next() (Key, bool) {
	capacity := int64(len(q.slots))

	for {
		slot := q.read.Load()
		if slot >= q.committed.Load() {
			return 0, false
		}

		key := q.slots[slot%capacity].Load()
		if q.read.CompareAndSwap(slot, slot+1) {
			return Key(key), true
		}
	}
}

// Len returns the number of committed keys not yet taken
func (q *WorkQueue) Len() int {
	return int(q.committed.Load() - q.read.Load())
}

// Reset empties the queue. It must not race with Add or Next.
func (q *WorkQueue) Reset() {
	q.read.Store(0)
	q.write.Store(0)
	q.committed.Store(0)
}
