package vmm

import (
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/pmm"
)

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry.
type PageTableEntryFlag uintptr

const (
	// FlagPresent indicates that the page or table this entry points to is
	// currently loaded in memory.
	FlagPresent = PageTableEntryFlag(1 << 0)

	// FlagRW indicates that the mapped page is writable.
	FlagRW = PageTableEntryFlag(1 << 1)

	// FlagUser indicates that the mapped page is accessible from user-mode
	// code. Unused while the kernel only runs in ring 0, but kept so the
	// flag bit layout matches the hardware's.
	FlagUser = PageTableEntryFlag(1 << 2)

	// FlagHugePage indicates that this entry maps a 2MB or 1GB page
	// instead of pointing to the next level page table.
	FlagHugePage = PageTableEntryFlag(1 << 7)

	// pteFrameMask isolates the frame-address bits of an entry, excluding
	// both the low flag bits and the high no-execute/available bits.
	pteFrameMask = uintptr(0x000ffffffffff000)
)

// pageTableEntry represents an entry inside a page table at any of the
// four paging levels used by this kernel.
type pageTableEntry uintptr

// HasFlags returns true if all of the supplied flags are set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return uintptr(pte)&uintptr(flags) == uintptr(flags)
}

// HasAnyFlag returns true if any of the supplied flags is set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return uintptr(pte)&uintptr(flags) != 0
}

// SetFlags sets the supplied flags on this entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte |= pageTableEntry(flags)
}

// ClearFlags clears the supplied flags on this entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte &^= pageTableEntry(flags)
}

// Frame returns the physical frame that this entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.Frame((uintptr(pte) & pteFrameMask) >> mem.PageShift)
}

// SetFrame updates the physical frame that this entry points to, leaving
// its flag bits untouched.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	*pte = pageTableEntry((uintptr(*pte) &^ pteFrameMask) | (frame.Address() & pteFrameMask))
}
