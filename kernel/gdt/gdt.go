// Package gdt installs the kernel's Global Descriptor Table and Task
// State Segment. On amd64, segmentation is mostly vestigial but two of
// its uses remain load-bearing: the code segment selector the CPU
// switches to on every interrupt, and the TSS, whose Interrupt Stack
// Table supplies the dedicated stack the double-fault handler runs on.
//
// Grounded on _examples/original_source/interrupts/src/gdt.rs, adapted
// to the teacher's declare-in-Go/implement-in-assembly idiom already
// used by kernel/cpu.
package gdt

import "unsafe"

// DoubleFaultISTIndex is the IST slot (0) reserved for the double-fault
// handler. Fixed by contract with kernel/irq, which installs the
// handler with this index, and with spec.md §4.A / §9: the stack is
// only safe to rely on if both sides agree on the slot.
const DoubleFaultISTIndex = 0

// doubleFaultStackSize is the size of the statically reserved stack used
// only by the double-fault handler. The spec requires at least 20 KiB;
// _examples/original_source/interrupts/src/gdt.rs uses 5 pages (20 KiB)
// for the same purpose.
const doubleFaultStackSize = 5 * 4096

// doubleFaultStack is never referenced by name outside this package: the
// CPU reaches it only through tss.ist[DoubleFaultISTIndex], which is why
// it must live for the entire lifetime of the program.
var doubleFaultStack [doubleFaultStackSize]byte

// tss describes the amd64 Task State Segment. Only the IST slots are
// used by this kernel; the privilege-level stacks (rsp0-2) and I/O
// permission bitmap are left zeroed since user mode is out of scope.
type tss struct {
	reserved0 uint32
	rsp       [3]uint64
	reserved1 uint64
	ist       [7]uint64
	reserved2 uint64
	reserved3 uint16
	ioMapBase uint16
}

var theTSS tss

// gdtEntries holds the null descriptor, the 64-bit kernel code segment
// descriptor, and the (16-byte, hence two-slot) TSS descriptor. It has
// program-long lifetime because LGDT only records a pointer to it; the
// CPU re-reads this table on every segment reload.
var gdtEntries [4]uint64

const (
	nullSegmentIndex = 0
	codeSegmentIndex = 1
	tssSegmentIndex  = 2

	// CodeSelector is the segment selector the kernel reloads CS with
	// after installing the GDT.
	CodeSelector = codeSegmentIndex << 3

	tssSelector = tssSegmentIndex << 3
)

const (
	codeSegmentFlags uint64 = 1<<43 | // executable
		1<<44 | // descriptor type = code/data (not system)
		1<<47 | // present
		1<<53 // long-mode (64-bit) code segment
)

var initialized bool

// Init builds the GDT and TSS, loads them with LGDT/LTR, and reloads CS
// with the new kernel code selector. It must run before kernel/irq.Init,
// since the IDT's double-fault entry references DoubleFaultISTIndex,
// which only becomes meaningful once the TSS below is the active one.
func Init() {
	if initialized {
		return
	}
	initialized = true

	theTSS.ist[DoubleFaultISTIndex] = uint64(uintptr(unsafe.Pointer(&doubleFaultStack[0]))) + doubleFaultStackSize

	gdtEntries[nullSegmentIndex] = 0
	gdtEntries[codeSegmentIndex] = codeSegmentFlags
	low, high := tssDescriptor(&theTSS)
	gdtEntries[tssSegmentIndex] = low
	gdtEntries[tssSegmentIndex+1] = high

	load(&gdtEntries[0], uint16(len(gdtEntries)*8-1), CodeSelector, tssSelector)
}

// tssDescriptor packs a TSS descriptor's two 64-bit halves: a 64-bit
// base address does not fit in a classic 8-byte segment descriptor, so
// the amd64 architecture defines the TSS descriptor as occupying two
// consecutive GDT slots.
func tssDescriptor(t *tss) (low, high uint64) {
	base := uint64(uintptr(unsafe.Pointer(t)))
	limit := uint64(unsafe.Sizeof(*t)) - 1

	low = limit&0xFFFF |
		(base&0xFFFFFF)<<16 |
		0x89<<40 | // present, DPL=0, type=0x9 (64-bit TSS, available)
		((limit>>16)&0xF)<<48 |
		((base >> 24) & 0xFF) << 56
	high = base >> 32
	return low, high
}

// load installs the GDT via LGDT, reloads CS with codeSelector and loads
// the task register with tssSelector via LTR. Implemented in
// gdt_amd64.s: none of this can be expressed in portable Go since it
// requires a far return to reload CS.
func load(gdtBase *uint64, gdtLimit uint16, codeSelector, tssSelector uint16)
