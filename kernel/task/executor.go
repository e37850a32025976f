package task

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/cpu"
	"github.com/mithrao/gokernel/kernel/lockfree"
)

var (
	// mocked by tests; automatically inlined by the compiler otherwise.
	disableInterruptsFn       = cpu.DisableInterrupts
	enableInterruptsFn        = cpu.EnableInterrupts
	enableInterruptsAndHaltFn = cpu.EnableInterruptsAndHalt
	panicFn                   = kernel.Panic

	errDuplicateTaskID = &kernel.Error{Module: "task", Message: "task with same ID already registered"}
)

// Executor runs every spawned Task to completion, sleeping the CPU
// between interrupts instead of busy-polling. It is not safe for
// concurrent use: the kernel runs exactly one Executor, driven from
// kmain after every other subsystem has been initialized.
type Executor struct {
	tasks      map[ID]*Task
	taskQueue  *lockfree.RingQueue[ID]
	wakerCache map[ID]*Waker
}

// NewExecutor returns an empty, ready-to-use Executor.
func NewExecutor() *Executor {
	return &Executor{
		tasks:      make(map[ID]*Task),
		taskQueue:  lockfree.NewRingQueue[ID](),
		wakerCache: make(map[ID]*Waker),
	}
}

// Spawn registers t and schedules it to run on the next pass of Run.
// Spawning a Task whose ID is already registered is a programming error
// and panics; IDs are allocated by New so this can only happen if a
// *Task value is spawned twice.
func (e *Executor) Spawn(t *Task) {
	if _, exists := e.tasks[t.id]; exists {
		panicFn(errDuplicateTaskID)
	}
	e.tasks[t.id] = t
	e.taskQueue.Push(t.id)
}

// Run drains the task queue forever, polling each woken task and
// halting the CPU between interrupts when there is nothing left to do.
// It never returns.
func (e *Executor) Run() {
	for {
		e.runReadyTasks()
		e.sleepIfIdle()
	}
}

func (e *Executor) runReadyTasks() {
	for {
		id, ok := e.taskQueue.Pop()
		if !ok {
			return
		}

		t, exists := e.tasks[id]
		if !exists {
			// A wake-up can race a task's completion: the ScancodeStream
			// registers its waker before checking the queue again, so a
			// wake for an already-finished task is expected, not a bug.
			continue
		}

		waker, cached := e.wakerCache[id]
		if !cached {
			waker = NewWaker(id, e.taskQueue)
			e.wakerCache[id] = waker
		}

		cx := &Context{Waker: waker}
		if t.poll(cx) == PollReady {
			delete(e.tasks, id)
			delete(e.wakerCache, id)
		}
	}
}

// sleepIfIdle disables interrupts, checks the queue, and either halts
// with interrupts re-enabled in the same instruction (cpu.EnableInterruptsAndHalt)
// or re-enables them and loops back to runReadyTasks. Disabling
// interrupts before the check and re-enabling them atomically with hlt
// closes the race where an interrupt fires between an empty check and a
// bare hlt, which would otherwise miss the wake-up that hlt was meant to
// wait for.
func (e *Executor) sleepIfIdle() {
	disableInterruptsFn()
	if e.taskQueue.Empty() {
		enableInterruptsAndHaltFn()
	} else {
		enableInterruptsFn()
	}
}
