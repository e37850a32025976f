// Package allocator implements the kernel's physical frame allocator.
package allocator

import (
	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/hal/bootinfo"
	"github.com/mithrao/gokernel/kernel/kfmt/early"
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/pmm"
)

var (
	// EarlyAllocator points to a static instance of the boot memory allocator
	// which is used to bootstrap the kernel before initializing a more
	// advanced memory allocator.
	EarlyAllocator BootMemAllocator

	errBootAllocOutOfMemory = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory"}
)

// BootMemAllocator implements a lazy, allocate-only physical memory
// allocator used to bootstrap the kernel.
//
// The allocator walks the memory region information the bootloader
// handed over in bootinfo.Info to find free memory blocks and returns
// the next available free frame. Allocations are tracked by a monotonic
// cursor holding the last allocated frame index; mapping a system memory
// region to a linear frame index is done by aligning the region's start
// address to the page size and dividing by it.
//
// Frames can never be freed: once the kernel has finished bootstrapping,
// any blocks this allocator handed out are owned for the life of the
// system by whatever claimed them (typically kernel/mem/heap).
type BootMemAllocator struct {
	// allocCount tracks the total number of allocated frames.
	allocCount uint64

	// lastAllocIndex tracks the last allocated frame index.
	lastAllocIndex int64
}

// Init sets up the boot memory allocator's internal state and prints out
// the system memory map.
func (alloc *BootMemAllocator) Init() {
	alloc.lastAllocIndex = -1

	early.Printf("[boot_mem_alloc] system memory map:\n")
	var totalFree mem.Size
	bootinfo.VisitMemRegions(func(region *bootinfo.MemoryRegion) bool {
		early.Printf("\t[0x%10x - 0x%10x], size: %10d, kind: %s\n", region.Start, region.Start+region.Len, region.Len, region.Kind.String())

		if region.Kind == bootinfo.RegionUsable {
			totalFree += mem.Size(region.Len)
		}
		return true
	})
	early.Printf("[boot_mem_alloc] free memory: %dKb\n", uint64(totalFree/mem.Kb))
}

// AllocFrame scans the system memory regions reported by the bootloader and
// reserves the next available free frame. It returns an error if no more
// memory can be allocated.
func (alloc *BootMemAllocator) AllocFrame() (pmm.Frame, *kernel.Error) {
	var (
		foundPageIndex                           int64 = -1
		regionStartPageIndex, regionEndPageIndex int64
	)
	bootinfo.VisitMemRegions(func(region *bootinfo.MemoryRegion) bool {
		if region.Kind != bootinfo.RegionUsable {
			return true
		}

		// Align region start address to a page boundary and find the start
		// and end page indices for the region
		regionStartPageIndex = int64(((mem.Size(region.Start) + (mem.PageSize - 1)) & ^(mem.PageSize - 1)) >> mem.PageShift)
		regionEndPageIndex = int64(((mem.Size(region.Start+region.Len) - (mem.PageSize - 1)) & ^(mem.PageSize - 1)) >> mem.PageShift)

		// Ignore already allocated regions
		if alloc.lastAllocIndex >= regionEndPageIndex {
			return true
		}

		// We found a block that can be allocated. The last allocated
		// index will be either pointing to a previous region or will
		// point inside this region. In the first case we just need to
		// select the regionStartPageIndex. In the latter case we can
		// simply select the next available page in the current region.
		if alloc.lastAllocIndex < regionStartPageIndex {
			foundPageIndex = regionStartPageIndex
		} else {
			foundPageIndex = alloc.lastAllocIndex + 1
		}
		return false
	})

	if foundPageIndex == -1 {
		return pmm.InvalidFrame, errBootAllocOutOfMemory
	}

	alloc.allocCount++
	alloc.lastAllocIndex = foundPageIndex

	return pmm.Frame(foundPageIndex), nil
}
