package task

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/lockfree"
)

var errTaskQueueFull = &kernel.Error{Module: "task", Message: "task queue full"}

// Waker pushes its task's ID back onto the executor's run queue. It
// holds the queue by pointer, matching the teacher's Rust design
// sharing one reference-counted ArrayQueue between the executor and
// every waker it hands out, so a Wake call from inside an interrupt
// handler touches the same queue the executor drains.
type Waker struct {
	id    ID
	queue *lockfree.RingQueue[ID]
}

// NewWaker builds a Waker for id backed by queue.
func NewWaker(id ID, queue *lockfree.RingQueue[ID]) *Waker {
	return &Waker{id: id, queue: queue}
}

// Wake re-enqueues the task's ID so the executor polls it again on its
// next runReadyTasks pass. Safe to call from an interrupt handler:
// RingQueue.Push never allocates or blocks. A full queue is
// unrecoverable and panics.
func (w *Waker) Wake() {
	if !w.queue.Push(w.id) {
		panicFn(errTaskQueueFull)
	}
}
