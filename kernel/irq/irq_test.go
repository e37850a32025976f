package irq

import (
	"testing"
	"unsafe"

	"github.com/mithrao/gokernel/kernel/driver/video/console"
	"github.com/mithrao/gokernel/kernel/hal"
)

func TestHasErrorCode(t *testing.T) {
	withCode := map[uint8]bool{8: true, 10: true, 11: true, 12: true, 13: true, 14: true, 17: true, 21: true, 29: true, 30: true}
	for v := 0; v < 32; v++ {
		want := withCode[uint8(v)]
		if got := hasErrorCode(uint8(v)); got != want {
			t.Errorf("vector %d: expected hasErrorCode=%v, got %v", v, want, got)
		}
	}
}

func TestHandleExceptionRegistersCallback(t *testing.T) {
	called := false
	HandleException(Breakpoint, func(f *Frame, r *Regs) { called = true })
	defer HandleException(Breakpoint, nil)

	h := exceptionHandlers[Breakpoint]
	if h == nil {
		t.Fatal("expected a handler to be registered")
	}
	h(&Frame{}, &Regs{})
	if !called {
		t.Error("expected registered handler to run")
	}
}

func TestHandleIRQRejectsExceptionVectors(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected HandleIRQ to panic for a vector below 32")
		}
	}()
	HandleIRQ(13, func(vector uint8, f *Frame, r *Regs) {})
}

func TestHandleIRQRegistersCallback(t *testing.T) {
	called := false
	HandleIRQ(uint8(TimerVector), func(vector uint8, f *Frame, r *Regs) { called = true })
	defer HandleIRQ(uint8(TimerVector), nil)

	h := irqHandlers[uint8(TimerVector)-32]
	if h == nil {
		t.Fatal("expected a handler to be registered")
	}
	h(uint8(TimerVector), &Frame{}, &Regs{})
	if !called {
		t.Error("expected registered handler to run")
	}
}

func TestBreakpointHandlerReturnsWithoutPanicking(t *testing.T) {
	// Scenario 1 (spec.md §8): mainline must resume after a breakpoint
	// trap, so the handler must never call panicFn.
	mockTTY()
	breakpointHandler(&Frame{}, &Regs{})
}

func TestDoubleFaultHandlerPanics(t *testing.T) {
	mockTTY()
	var gotNil bool
	prev := panicFn
	panicFn = func(e interface{}) { gotNil = e == nil }
	defer func() { panicFn = prev }()

	doubleFaultHandler(0, &Frame{}, &Regs{})

	if !gotNil {
		t.Error("expected doubleFaultHandler to call panicFn")
	}
}

// mockTTY attaches the active terminal to an in-memory console so the
// handlers' early.Printf output has somewhere to go.
func mockTTY() []byte {
	mockConsoleFb := make([]byte, 160*25)
	mockConsole := &console.Ega{}
	mockConsole.Init(80, 25, uintptr(unsafe.Pointer(&mockConsoleFb[0])))
	hal.ActiveTerminal.AttachTo(mockConsole)

	return mockConsoleFb
}
