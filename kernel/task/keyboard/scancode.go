// Package keyboard implements the async scancode stream the PS/2
// keyboard IRQ handler feeds and the PrintKeypresses task drains.
//
// Grounded on _examples/original_source/multitasking/src/task/keyboard.rs:
// a bounded queue the interrupt handler pushes into without allocating,
// paired with a single-slot AtomicWaker so a task blocked waiting for
// input is woken exactly when new input arrives rather than polled in a
// busy loop.
package keyboard

import (
	"sync/atomic"

	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/lockfree"
	"github.com/mithrao/gokernel/kernel/task"
)

var (
	scancodeQueue = lockfree.NewRingQueue[byte]()
	waker         lockfree.AtomicWaker

	errStreamAlreadyConstructed = &kernel.Error{Module: "task/keyboard", Message: "ScancodeStream constructed more than once"}

	panicFn = kernel.Panic

	droppedScancodes uint64
)

var streamConstructed bool

// ScancodeStream is the single async handle onto the scancode queue.
// Constructing more than one is a programming error: the queue and
// waker it reads are process-wide singletons, mirroring the single
// active instance kernel/hal.ActiveTerminal already enforces for the
// console, generalized here to an explicit construction guard since
// ScancodeStream has no natural zero value to default to.
type ScancodeStream struct{}

// NewScancodeStream returns the process-wide scancode stream. It panics
// if called more than once.
func NewScancodeStream() *ScancodeStream {
	if streamConstructed {
		panicFn(errStreamAlreadyConstructed)
	}
	streamConstructed = true
	return &ScancodeStream{}
}

// AddScancode is called by the keyboard IRQ handler with the byte just
// read from port 0x60. It must not block or allocate: on a full queue
// the scancode is dropped and counted in droppedScancodes rather than
// retried or logged, since logging here would print through the
// console's mainline-only lock (see DroppedScancodes and
// console.Ega.Write) from interrupt context.
func AddScancode(scancode byte) {
	if !scancodeQueue.Push(scancode) {
		atomic.AddUint64(&droppedScancodes, 1)
		return
	}
	waker.Wake()
}

// DroppedScancodes returns the number of scancodes discarded so far
// because the queue was full when AddScancode ran. Intended for
// mainline diagnostics (e.g. a periodic health check), never read from
// interrupt context.
func DroppedScancodes() uint64 {
	return atomic.LoadUint64(&droppedScancodes)
}

// Poll implements task.Future-style non-blocking consumption: a
// successful pop returns the byte immediately; otherwise the caller's
// waker is registered and the queue is checked once more to close the
// race against a concurrent AddScancode call landing between the first
// pop and the registration.
func (s *ScancodeStream) Poll(cx *task.Context) (byte, task.PollState) {
	if b, ok := scancodeQueue.Pop(); ok {
		return b, task.PollReady
	}

	waker.Register(cx.Waker)
	if b, ok := scancodeQueue.Pop(); ok {
		return b, task.PollReady
	}
	return 0, task.PollPending
}
