package vmm

import (
	"testing"
	"unsafe"

	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/driver/video/console"
	"github.com/mithrao/gokernel/kernel/hal"
	"github.com/mithrao/gokernel/kernel/irq"
)

func TestInitRegistersHandlers(t *testing.T) {
	defer func(origHandle func(irq.ExceptionNum, irq.ExceptionHandlerWithCode)) {
		handleExceptionWithCodeFn = origHandle
		initialized = false
	}(handleExceptionWithCodeFn)

	var registered []irq.ExceptionNum
	handleExceptionWithCodeFn = func(num irq.ExceptionNum, _ irq.ExceptionHandlerWithCode) {
		registered = append(registered, num)
	}

	initialized = false
	if err := Init(0xFFFF800000000000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if physMemOffset != 0xFFFF800000000000 {
		t.Errorf("expected physMemOffset to be recorded, got %x", physMemOffset)
	}

	foundPF, foundGPF := false, false
	for _, num := range registered {
		switch num {
		case irq.PageFaultException:
			foundPF = true
		case irq.GPFException:
			foundGPF = true
		}
	}
	if !foundPF || !foundGPF {
		t.Errorf("expected both page-fault and GPF handlers to be registered; got %v", registered)
	}
}

func TestPageFaultHandlerPanics(t *testing.T) {
	defer func(origPanic func(*kernel.Error), origCR2 func() uint64) {
		panicFn = origPanic
		readCR2Fn = origCR2
	}(panicFn, readCR2Fn)

	readCR2Fn = func() uint64 { return 0x1000 }
	mockTTY()

	panicked := false
	panicFn = func(*kernel.Error) { panicked = true }

	pageFaultHandler(0, &irq.Frame{}, &irq.Regs{})
	if !panicked {
		t.Error("expected pageFaultHandler to invoke panicFn")
	}
}

func TestGeneralProtectionFaultHandlerPanics(t *testing.T) {
	defer func(origPanic func(*kernel.Error), origCR2 func() uint64) {
		panicFn = origPanic
		readCR2Fn = origCR2
	}(panicFn, readCR2Fn)

	readCR2Fn = func() uint64 { return 0 }
	mockTTY()

	panicked := false
	panicFn = func(*kernel.Error) { panicked = true }

	generalProtectionFaultHandler(0, &irq.Frame{}, &irq.Regs{})
	if !panicked {
		t.Error("expected generalProtectionFaultHandler to invoke panicFn")
	}
}

// mockTTY attaches the active terminal to an in-memory console so the
// fault handlers' early.Printf output has somewhere to go.
func mockTTY() []byte {
	mockConsoleFb := make([]byte, 160*25)
	mockConsole := &console.Ega{}
	mockConsole.Init(80, 25, uintptr(unsafe.Pointer(&mockConsoleFb[0])))
	hal.ActiveTerminal.AttachTo(mockConsole)

	return mockConsoleFb
}
