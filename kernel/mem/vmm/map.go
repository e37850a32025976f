package vmm

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/pmm"
)

var errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported"}

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// Map establishes a mapping between a virtual page and a physical memory
// frame in the currently active page table hierarchy, allocating any
// missing intermediate tables along the way via allocFn.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	return MapIn(pmm.Frame(activePDTFn()>>mem.PageShift), page, frame, flags, allocFn)
}

// MapIn behaves like Map but operates on an arbitrary PML4 frame instead
// of the currently active one. Since every page table is reachable
// through the physical memory offset, this works whether or not
// pml4Frame happens to be loaded in CR3.
func MapIn(pml4Frame pmm.Frame, page Page, frame pmm.Frame, flags PageTableEntryFlag, allocFn FrameAllocatorFn) *kernel.Error {
	var err *kernel.Error

	walkFrom(pml4Frame, page.Address(), func(level int, pte *pageTableEntry) bool {
		if level == pageLevels-1 {
			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(FlagPresent | flags)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		if !pte.HasFlags(FlagPresent) {
			newTableFrame, allocErr := allocFn()
			if allocErr != nil {
				err = allocErr
				return false
			}

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent | FlagRW)

			mem.Memset(tableVirtAddr(newTableFrame), 0, mem.PageSize)
		}

		return true
	})

	return err
}

// Unmap removes a mapping previously installed via Map in the currently
// active page table hierarchy.
func Unmap(page Page) *kernel.Error {
	return UnmapIn(pmm.Frame(activePDTFn()>>mem.PageShift), page)
}

// UnmapIn behaves like Unmap but operates on an arbitrary PML4 frame.
func UnmapIn(pml4Frame pmm.Frame, page Page) *kernel.Error {
	var err *kernel.Error

	walkFrom(pml4Frame, page.Address(), func(level int, pte *pageTableEntry) bool {
		if level == pageLevels-1 {
			if !pte.HasFlags(FlagPresent) {
				err = ErrInvalidMapping
				return false
			}
			pte.ClearFlags(FlagPresent)
			flushTLBEntryFn(page.Address())
			return true
		}

		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		return true
	})

	return err
}
