package vmm

import (
	"unsafe"

	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/pmm"
)

// physMemOffset is the virtual address at which the entire span of
// physical memory is mapped. Set once by Init; every page table at every
// level is reached by adding a frame's physical address to this offset
// rather than through a recursive self-mapping trick, following
// _examples/original_source/memory/src/memory.rs.
var physMemOffset uintptr

// ErrInvalidMapping is returned when an operation targets a virtual
// address that has no corresponding page table entry.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "invalid page mapping"}

// tableVirtAddr returns the address at which the page table stored in
// the given physical frame can be accessed.
func tableVirtAddr(frame pmm.Frame) uintptr {
	return physMemOffset + frame.Address()
}

func tableEntry(frame pmm.Frame, index uintptr) *pageTableEntry {
	base := tableVirtAddr(frame)
	return (*pageTableEntry)(unsafe.Pointer(base + index<<mem.PointerShift))
}

// levelIndex extracts the index of virtAddr within the page table at the
// given level (0 is PML4, pageLevels-1 is PT).
func levelIndex(virtAddr uintptr, level int) uintptr {
	return (virtAddr >> pageLevelShifts[level]) & pageLevelIndexMask
}

// walkVisitor is invoked once per level while walking the page tables for
// a virtual address. It returns false to abort the walk.
type walkVisitor func(level int, pte *pageTableEntry) bool

// walk descends the active page table hierarchy for virtAddr, invoking
// visitor at every level starting at the PML4 (level 0) down to the PT
// (level pageLevels-1). It stops early if a required table is not
// present or if the visitor returns false.
func walk(virtAddr uintptr, visitor walkVisitor) {
	walkFrom(pmm.Frame(activePDTFn()>>mem.PageShift), virtAddr, visitor)
}

// walkFrom behaves like walk but starts from an arbitrary PML4 frame,
// which may or may not be the currently active one. Since every frame is
// reachable through the physical memory offset regardless of which PDT
// CR3 currently points to, inactive page tables can be inspected and
// modified directly with no temporary mapping required.
func walkFrom(pml4Frame pmm.Frame, virtAddr uintptr, visitor walkVisitor) {
	frame := pml4Frame
	for level := 0; level < pageLevels; level++ {
		pte := tableEntry(frame, levelIndex(virtAddr, level))
		if !visitor(level, pte) {
			return
		}

		if level == pageLevels-1 {
			return
		}

		if !pte.HasFlags(FlagPresent) {
			return
		}
		frame = pte.Frame()
	}
}

// pteForAddress returns the leaf page table entry mapping virtAddr, or
// ErrInvalidMapping if any table along the way is missing.
func pteForAddress(virtAddr uintptr) (*pageTableEntry, *kernel.Error) {
	var (
		leaf    *pageTableEntry
		missing bool
	)

	walk(virtAddr, func(level int, pte *pageTableEntry) bool {
		if level < pageLevels-1 && !pte.HasFlags(FlagPresent) {
			missing = true
			return false
		}
		if level == pageLevels-1 {
			leaf = pte
		}
		return true
	})

	if missing || leaf == nil || !leaf.HasFlags(FlagPresent) {
		return nil, ErrInvalidMapping
	}
	return leaf, nil
}
