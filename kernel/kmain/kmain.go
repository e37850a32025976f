// Package kmain sequences the boot-time initialization of every other
// kernel subsystem and hands off to the async task executor once they
// are all live. It is the sole caller of each subsystem's Init: the
// order below encodes every init-time dependency in the kernel (the IDT
// references the TSS built by gdt.Init, the page-fault/GPF handlers
// kernel/mem/vmm installs require irq.Init to already hold a live IDT,
// the heap region cannot be mapped before the frame allocator has a
// memory map to allocate from, and so on).
package kmain

import (
	"sync/atomic"

	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/cpu"
	"github.com/mithrao/gokernel/kernel/gdt"
	"github.com/mithrao/gokernel/kernel/hal"
	"github.com/mithrao/gokernel/kernel/hal/bootinfo"
	"github.com/mithrao/gokernel/kernel/irq"
	"github.com/mithrao/gokernel/kernel/kfmt/early"
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/heap"
	"github.com/mithrao/gokernel/kernel/mem/pmm/allocator"
	"github.com/mithrao/gokernel/kernel/mem/vmm"
	"github.com/mithrao/gokernel/kernel/pic"
	"github.com/mithrao/gokernel/kernel/task"
	"github.com/mithrao/gokernel/kernel/task/keyboard"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// timerTicks counts PIT interrupts serviced since boot. Incremented
// from interrupt context via atomic.AddUint64, never printed from
// there.
var timerTicks uint64

// TimerTicks returns the number of timer interrupts serviced since
// boot. Safe to call from mainline code only.
func TimerTicks() uint64 {
	return atomic.LoadUint64(&timerTicks)
}

// Kmain is the only Go symbol visible from the rt0 trampoline. It is
// invoked with a pointer to the boot-info structure the bootloader
// built; that pointer's lifetime is the program's, matching
// spec.md §6's boot-info handoff contract.
//
// Kmain is not expected to return; if it does, the trampoline halts the
// CPU.
//
//go:noinline
func Kmain(bootInfo *bootinfo.Info) {
	bootinfo.SetInfoPtr(bootInfo)

	hal.InitTerminal()
	hal.ActiveTerminal.Clear()

	early.Printf("booting...\n")

	// A. Descriptor tables: install the GDT/TSS before the IDT so the
	// double-fault entry's IST index is meaningful the moment irq.Init
	// builds it.
	gdt.Init()

	// B. Interrupt dispatch: builds the 256-entry IDT (breakpoint and
	// double-fault handlers included) and loads it. Must run before
	// pic.Remap unmasks anything, since an IRQ firing against an unset
	// IDT is a triple fault.
	irq.Init()

	registerIRQHandlers()

	pic.Remap()
	pic.Unmask(pic.IRQTimer)
	pic.Unmask(pic.IRQKeyboard)

	cpu.EnableInterrupts()

	// C. Paging / frame allocator. vmm.Init only records the offset and
	// installs the page-fault/GPF handlers (both need a live IDT, hence
	// running after irq.Init); allocator.EarlyAllocator.Init resets the
	// frame allocator's cursor and prints the memory map bootInfo carries.
	if err := vmm.Init(bootInfo.PhysicalMemoryOffset); err != nil {
		kernel.Panic(err)
	}
	allocator.EarlyAllocator.Init()

	mapHeapRegion()

	// D. Heap: once every page in [HeapStart, HeapStart+HeapSize) is
	// mapped present+writable, hand the range to the segregated-fit
	// allocator. Never unmapped afterward.
	heap.Init(heap.HeapStart, heap.HeapSize)

	early.Printf("heap ready at 0x%16x (%d bytes)\n", uint64(heap.HeapStart), uint64(heap.HeapSize))

	// E. Async executor: spawn the keyboard-printing task and hand the
	// CPU over. Run never returns; all further progress is driven by
	// interrupts waking tasks through the executor's waker_cache.
	executor := task.NewExecutor()
	executor.Spawn(keyboard.PrintKeypresses())
	executor.Run()

	// Use kernel.Panic instead of panic to prevent the compiler from
	// treating kernel.Panic as dead code and eliminating it.
	kernel.Panic(errKmainReturned)
}

// registerIRQHandlers wires the two hardware interrupt lines the PIC
// delivers once unmasked: the PIT timer (counts ticks in timerTicks,
// mirroring the "." the original tutorial prints on every tick, without
// reintroducing a console write into interrupt context) and the PS/2
// keyboard controller (reads its scancode byte and feeds the async
// scancode stream). Both handlers finish without allocating or touching
// the heap lock, and both end with pic.EndOfInterrupt so the PIC keeps
// delivering further interrupts on that line.
func registerIRQHandlers() {
	irq.HandleIRQ(uint8(irq.TimerVector), func(vector uint8, _ *irq.Frame, _ *irq.Regs) {
		atomic.AddUint64(&timerTicks, 1)
		pic.EndOfInterrupt(vector)
	})

	irq.HandleIRQ(uint8(irq.KeyboardVector), func(vector uint8, _ *irq.Frame, _ *irq.Regs) {
		scancode := cpu.Inb(0x60)
		keyboard.AddScancode(scancode)
		pic.EndOfInterrupt(vector)
	})
}

// mapHeapRegion allocates one physical frame per page in the heap's
// fixed virtual range and installs each mapping present+writable,
// aborting boot if the frame allocator or the mapper runs out of
// capacity partway through (a half-mapped heap range is not safe to
// hand to heap.Init).
func mapHeapRegion() {
	for addr := heap.HeapStart; addr < heap.HeapStart+heap.HeapSize; addr += uintptr(mem.PageSize) {
		frame, err := allocator.EarlyAllocator.AllocFrame()
		if err != nil {
			kernel.Panic(err)
		}

		page := vmm.PageFromAddress(addr)
		if err := vmm.Map(page, frame, vmm.FlagPresent|vmm.FlagRW, allocator.EarlyAllocator.AllocFrame); err != nil {
			kernel.Panic(err)
		}
	}
}
