// Package irq builds the Interrupt Descriptor Table and dispatches CPU
// exceptions and PIC-driven hardware interrupts to registered Go
// handlers.
//
// Grounded on the handler-registration surface of
// _examples/gopher-os-gopher-os/src/gopheros/kernel/irq (Regs, Frame,
// ExceptionHandler/ExceptionHandlerWithCode, the declare-in-Go stubs
// backed by assembly) and on the vector layout used by
// _examples/original_source/interrupts/src/interrupts.rs, reworked to
// drive a real 256-entry IDT and a shared assembly dispatch stub
// instead of a single breakpoint/double-fault/timer trio.
package irq

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/gdt"
	"github.com/mithrao/gokernel/kernel/kfmt/early"
	"github.com/mithrao/gokernel/kernel/pic"
)

// panicFn is mocked by tests; automatically inlined by the compiler
// when building the kernel, mirroring the seam kernel/mem/vmm uses for
// the same purpose.
var panicFn = kernel.Panic

const idtEntryCount = 256

// gateDescriptor is an amd64 64-bit interrupt-gate descriptor.
type gateDescriptor struct {
	offsetLow  uint16
	selector   uint16
	istAndZero uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

const (
	gateTypeInterrupt = 0xE // 64-bit interrupt gate
	gatePresent       = 1 << 7
)

var idtEntries [idtEntryCount]gateDescriptor

// stubAddr is implemented in idt_amd64.s: it returns the address of the
// vector-th entry in the generated trampoline table so setGate can
// point the IDT at it without 256 hand-written symbol references.
func stubAddr(vector int) uintptr

func setGate(vector int, ist uint8) {
	addr := uint64(stubAddr(vector))
	idtEntries[vector] = gateDescriptor{
		offsetLow:  uint16(addr),
		selector:   gdt.CodeSelector,
		istAndZero: ist,
		typeAttr:   gateTypeInterrupt | gatePresent,
		offsetMid:  uint16(addr >> 16),
		offsetHigh: uint32(addr >> 32),
	}
}

var initialized bool

// Init builds the full 256-entry IDT, pointing every vector at the
// shared dispatch trampoline, and loads it with LIDT. It must run after
// gdt.Init, since IDT entries reference gdt.CodeSelector and the
// double-fault entry's IST index is only meaningful once the TSS is
// live.
func Init() {
	if initialized {
		return
	}
	initialized = true

	for v := 0; v < idtEntryCount; v++ {
		ist := uint8(0)
		if ExceptionNum(v) == DoubleFault {
			ist = gdt.DoubleFaultISTIndex + 1 // IST field is 1-indexed; 0 means "no IST"
		}
		setGate(v, ist)
	}

	HandleException(Breakpoint, breakpointHandler)
	HandleExceptionWithCode(DoubleFault, doubleFaultHandler)

	load(&idtEntries[0], uint16(idtEntryCount*16-1))
}

// breakpointHandler services INT3. It only logs and returns: mainline
// execution resumes at the instruction right after the breakpoint,
// matching spec.md's scenario 1 (a subsequent print must still run).
func breakpointHandler(frame *Frame, regs *Regs) {
	early.Printf("EXCEPTION: BREAKPOINT\n")
	frame.Print()
}

// doubleFaultHandler runs on the IST[0] stack gdt.Init reserved. A
// double-fault is always fatal here: by the time the CPU raises one, an
// earlier handler (most often page-fault on kernel stack overflow) has
// already failed to run, so there is nothing left to recover.
func doubleFaultHandler(_ uint64, frame *Frame, regs *Regs) {
	early.Printf("EXCEPTION: DOUBLE FAULT\n")
	frame.Print()
	regs.Print()
	panicFn(nil)
}

// hasErrorCode reports whether the CPU pushes an error code for the
// given exception vector before invoking its handler.
func hasErrorCode(vector uint8) bool {
	switch vector {
	case 8, 10, 11, 12, 13, 14, 17, 21, 29, 30:
		return true
	default:
		return false
	}
}

// dispatch is called from the assembly trampoline for every vector. It
// never runs with interrupts enabled: the CPU disables them on gate
// entry and EndOfInterrupt/IRETQ only re-enable them once this function
// returns.
//
//go:nosplit
func dispatch(vector64, errCode uint64, framePtr *Frame, regsPtr *Regs) {
	vector := uint8(vector64)
	switch {
	case vector < 32:
		num := ExceptionNum(vector)
		if hasErrorCode(vector) {
			if h := exceptionHandlersWithCode[num]; h != nil {
				h(errCode, framePtr, regsPtr)
				return
			}
		} else if h := exceptionHandlers[num]; h != nil {
			h(framePtr, regsPtr)
			return
		}
		unhandledException(vector, errCode, framePtr, regsPtr)
	default:
		if h := irqHandlers[vector-32]; h != nil {
			h(vector, framePtr, regsPtr)
			return
		}
		// No handler registered for a line that fired: acknowledge it
		// anyway so the PIC does not wedge the rest of the chain.
		pic.EndOfInterrupt(vector)
	}
}

func unhandledException(vector uint8, errCode uint64, frame *Frame, regs *Regs) {
	early.Printf("unhandled exception %d (error code %x)\n", vector, errCode)
	frame.Print()
	regs.Print()
	panic("unhandled CPU exception")
}

// load installs the IDT via LIDT. Implemented in idt_amd64.s.
func load(idtBase *gateDescriptor, idtLimit uint16)
