package lockfree

import "sync/atomic"

// Waker is satisfied by task.Waker; it is re-declared here rather than
// imported to avoid a dependency cycle between kernel/lockfree (used by
// kernel/irq handlers) and kernel/task (which imports kernel/lockfree
// for its own queue).
type Waker interface {
	Wake()
}

// AtomicWaker holds a single registered Waker in a slot an interrupt
// handler can swap out and fire without ever blocking. It is the
// kernel's equivalent of futures-util's AtomicWaker: a Context registers
// interest by calling Register, and a producer (here, the keyboard IRQ
// handler) calls Wake once new data is available.
type AtomicWaker struct {
	slot atomic.Pointer[Waker] // holds a *Waker; nil means unregistered
}

// Register stores w as the waker to notify on the next Wake call,
// replacing whatever waker was previously registered. Register is only
// ever called from mainline code (a task's Poll), so the allocation of
// the pointed-to Waker value is not happening in interrupt context.
func (a *AtomicWaker) Register(w Waker) {
	a.slot.Store(&w)
}

// Wake invokes the registered waker, if any, and clears the slot so a
// stale waker is never invoked twice for the same event. Wake runs from
// interrupt context, so it must never block or allocate: Swap compiles
// to a single atomic exchange instruction, not a lock.
func (a *AtomicWaker) Wake() {
	p := a.slot.Swap(nil)
	if p != nil && *p != nil {
		(*p).Wake()
	}
}
