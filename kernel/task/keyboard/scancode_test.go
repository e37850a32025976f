package keyboard

import (
	"testing"

	"github.com/mithrao/gokernel/kernel/lockfree"
	"github.com/mithrao/gokernel/kernel/task"
)

// resetStream clears the package-level singleton guard and queue state
// between tests; production code never needs this since the stream is
// constructed exactly once for the life of the kernel.
func resetStream(t *testing.T) {
	t.Helper()
	streamConstructed = false
	scancodeQueue = lockfree.NewRingQueue[byte]()
	waker = lockfree.AtomicWaker{}
	t.Cleanup(func() { streamConstructed = false })
}

func TestNewScancodeStreamPanicsOnSecondConstruction(t *testing.T) {
	resetStream(t)

	origPanic := panicFn
	var panicked bool
	panicFn = func(e interface{}) { panicked = true }
	t.Cleanup(func() { panicFn = origPanic })

	NewScancodeStream()
	NewScancodeStream()

	if !panicked {
		t.Fatal("expected constructing a second ScancodeStream to panic")
	}
}

func TestAddScancodeThenPollReturnsReady(t *testing.T) {
	resetStream(t)
	s := NewScancodeStream()

	AddScancode(0x1E)

	b, state := s.Poll(&task.Context{Waker: task.NewWaker(0, nil)})
	if state != task.PollReady || b != 0x1E {
		t.Fatalf("expected Ready(0x1E), got state=%v b=0x%x", state, b)
	}
}

func TestPollEmptyQueueRegistersWakerAndReturnsPending(t *testing.T) {
	resetStream(t)
	s := NewScancodeStream()

	q := lockfree.NewRingQueue[task.ID]()
	_, state := s.Poll(&task.Context{Waker: task.NewWaker(7, q)})
	if state != task.PollPending {
		t.Fatalf("expected Pending on an empty queue, got %v", state)
	}

	waker.Wake()
	if id, ok := q.Pop(); !ok || id != 7 {
		t.Fatalf("expected Poll to register the context's waker; got id=%v ok=%v", id, ok)
	}
}
