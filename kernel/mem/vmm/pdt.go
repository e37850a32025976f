package vmm

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/pmm"
)

// PageDirectoryTable describes the top-most (PML4) table in the 4-level
// paging hierarchy.
type PageDirectoryTable struct {
	pml4Frame pmm.Frame
}

// Init sets up a page table directory rooted at the supplied physical
// frame. If the frame is not the currently active one, it is treated as
// a fresh table that needs clearing. Because every physical frame is
// reachable through the physical memory offset regardless of whether it
// is loaded into CR3, this requires no temporary mapping, unlike a
// recursive self-mapping scheme.
func (pdt *PageDirectoryTable) Init(pml4Frame pmm.Frame) *kernel.Error {
	pdt.pml4Frame = pml4Frame

	if pml4Frame.Address() == activePDTFn() {
		return nil
	}

	mem.Memset(tableVirtAddr(pml4Frame), 0, mem.PageSize)
	return nil
}

// Map establishes a mapping between a virtual page and a physical memory
// frame using this PDT, whether or not it is the currently active one.
func (pdt PageDirectoryTable) Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	return MapIn(pdt.pml4Frame, page, frame, flags, allocFn)
}

// Unmap removes a mapping previously installed by a call to Map on this
// PDT.
func (pdt PageDirectoryTable) Unmap(page Page) *kernel.Error {
	return UnmapIn(pdt.pml4Frame, page)
}

// Activate loads this page directory table into CR3 and flushes the TLB.
func (pdt PageDirectoryTable) Activate() {
	switchPDTFn(pdt.pml4Frame.Address())
}
