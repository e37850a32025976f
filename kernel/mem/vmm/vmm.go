package vmm

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/cpu"
	"github.com/mithrao/gokernel/kernel/irq"
	"github.com/mithrao/gokernel/kernel/kfmt/early"
)

var (
	// the following functions are mocked by tests and are automatically
	// inlined by the compiler when building the kernel.
	panicFn                   = func(e *kernel.Error) { kernel.Panic(e) }
	handleExceptionWithCodeFn = irq.HandleExceptionWithCode
	readCR2Fn                 = cpu.ReadCR2
)

func pageFaultHandler(errorCode uint64, frame *irq.Frame, regs *irq.Regs) {
	faultAddress := uintptr(readCR2Fn())

	early.Printf("\nPage fault while accessing address: 0x%16x\nReason: ", faultAddress)
	switch errorCode {
	case 0:
		early.Printf("read from non-present page")
	case 1:
		early.Printf("page protection violation (read)")
	case 2:
		early.Printf("write to non-present page")
	case 3:
		early.Printf("page protection violation (write)")
	case 4:
		early.Printf("page-fault in user-mode")
	case 8:
		early.Printf("page table has reserved bit set")
	case 16:
		early.Printf("instruction fetch")
	default:
		early.Printf("unknown")
	}

	early.Printf("\n\nRegisters:\n")
	regs.Print()
	frame.Print()

	panicFn(nil)
}

func generalProtectionFaultHandler(_ uint64, frame *irq.Frame, regs *irq.Regs) {
	early.Printf("\nGeneral protection fault while accessing address: 0x%x\n", readCR2Fn())
	early.Printf("Registers:\n")
	regs.Print()
	frame.Print()

	panicFn(nil)
}

var initialized bool

// Init records the offset at which physical memory is mapped into the
// virtual address space and installs the page-fault and
// general-protection-fault handlers. It must run after both gdt.Init and
// irq.Init, and physMemOffsetArg must match the offset the bootloader
// was configured to use (see kernel/hal/bootinfo).
func Init(physMemOffsetArg uintptr) *kernel.Error {
	if initialized {
		return nil
	}
	initialized = true

	physMemOffset = physMemOffsetArg

	handleExceptionWithCodeFn(irq.PageFaultException, pageFaultHandler)
	handleExceptionWithCodeFn(irq.GPFException, generalProtectionFaultHandler)
	return nil
}
