// Package lockfree provides bounded data structures safe to share between
// an interrupt handler and the cooperative task executor without ever
// taking a lock an interrupt could preempt mid-hold. Every structure here
// is built out of fixed-size arrays and atomic operations; the operations
// an interrupt handler calls (Push, Pop, Empty, Wake) never touch the heap.
package lockfree

import "sync/atomic"

// RingQueue is a bounded single-producer/single-consumer queue backed by
// a fixed array. Pushing into a full queue fails rather than blocking or
// growing, which is what makes it safe to call from an interrupt
// handler: handlers must never allocate or wait.
//
// Multiple producers (or multiple consumers) may share a RingQueue only
// if they serialize among themselves before calling Push (or Pop); the
// queue itself only guarantees correctness for the single-producer,
// single-consumer case its head/tail cursors are built for.
type RingQueue[T any] struct {
	items [101]T // one slot always stays empty, leaving room for 100 entries
	head  uint32 // next slot Pop will read
	tail  uint32 // next slot Push will write
}

// NewRingQueue returns an empty queue with a fixed capacity of 100
// entries, the bound spec.md's task queue and scancode stream both use.
func NewRingQueue[T any]() *RingQueue[T] {
	return &RingQueue[T]{}
}

func (q *RingQueue[T]) cap() uint32 { return uint32(len(q.items)) }

// Push appends value to the queue, returning false if it is full.
func (q *RingQueue[T]) Push(value T) bool {
	head := atomic.LoadUint32(&q.head)
	tail := atomic.LoadUint32(&q.tail)
	next := (tail + 1) % q.cap()
	if next == head {
		return false
	}

	q.items[tail] = value
	atomic.StoreUint32(&q.tail, next)
	return true
}

// Pop removes and returns the oldest value in the queue. ok is false if
// the queue is empty.
func (q *RingQueue[T]) Pop() (value T, ok bool) {
	head := atomic.LoadUint32(&q.head)
	tail := atomic.LoadUint32(&q.tail)
	if head == tail {
		return value, false
	}

	value = q.items[head]
	atomic.StoreUint32(&q.head, (head+1)%q.cap())
	return value, true
}

// Empty reports whether the queue currently holds no items. Used by the
// executor's sleep-if-idle check.
func (q *RingQueue[T]) Empty() bool {
	return atomic.LoadUint32(&q.head) == atomic.LoadUint32(&q.tail)
}
