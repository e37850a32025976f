// Package task implements a cooperative, single-threaded async task
// executor driven entirely by hardware interrupts: tasks that have
// nothing to do return PollPending and register a waker, and the CPU
// halts until an interrupt handler pushes that task's ID back onto the
// run queue.
//
// Grounded on _examples/original_source/multitasking/src/task/mod.rs and
// executor.rs, reworked from Rust's pinned trait-object Future into a
// plain Go interface: Go has no analogue to Pin, and nothing here ever
// moves a Future once it is boxed inside a Task, so the pinning
// guarantee Rust needs has no Go counterpart to express.
package task

import "sync/atomic"

// PollState reports whether a Future made progress.
type PollState int

const (
	// PollPending means the future has no result yet and has
	// (re)registered cx.Waker to be notified when it might.
	PollPending PollState = iota
	// PollReady means the future has run to completion.
	PollReady
)

// Future is driven to completion by repeated calls to Poll.
type Future interface {
	Poll(cx *Context) PollState
}

// Context is handed to a Future on every Poll call so it can register
// interest in being woken once more progress is possible.
type Context struct {
	Waker *Waker
}

// ID uniquely names a spawned Task, used to route a wake-up back to the
// right entry in the executor's task map.
type ID uint64

var nextID uint64

func newID() ID {
	return ID(atomic.AddUint64(&nextID, 1) - 1)
}

// Task pairs a Future with the ID its wakers will reference.
type Task struct {
	id     ID
	future Future
}

// New wraps future in a Task with a freshly allocated ID.
func New(future Future) *Task {
	return &Task{id: newID(), future: future}
}

func (t *Task) poll(cx *Context) PollState {
	return t.future.Poll(cx)
}
