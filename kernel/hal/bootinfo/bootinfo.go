// Package bootinfo describes the flat, pre-parsed handoff structure the
// bootloader passes to the kernel entry point: the physical memory
// offset at which all of RAM is mapped, the usable/reserved memory map,
// and the framebuffer the bootloader already set up.
//
// Earlier bootloaders (multiboot2) hand the kernel a chain of
// tag-length-value records that must be walked and decoded on every
// access. Grounded on the blog_os/bootloader crate's BootInfo struct (see
// _examples/original_source/memory/src/memory.rs and
// _examples/original_source/heap_allocation), this package instead
// assumes the loader already did that parsing and simply exposes the
// result.
package bootinfo

// RegionKind classifies a MemoryRegion.
type RegionKind uint8

const (
	// RegionUsable memory is free for the frame allocator to hand out.
	RegionUsable RegionKind = iota

	// RegionReserved memory must never be allocated: it holds the
	// kernel image, the boot info structure itself, ACPI tables, MMIO
	// windows, or memory the firmware marked unusable.
	RegionReserved
)

// String implements fmt.Stringer-like formatting for early.Printf, which
// only understands %s for byte slices and strings.
func (k RegionKind) String() string {
	if k == RegionUsable {
		return "usable"
	}
	return "reserved"
}

// MemoryRegion describes one contiguous span of physical memory.
type MemoryRegion struct {
	Start uint64
	Len   uint64
	Kind  RegionKind
}

// Info is the boot-time handoff structure. The bootloader allocates it in
// memory guaranteed not to be reused by the frame allocator and passes a
// pointer to it as the kernel entry point's only argument.
type Info struct {
	// PhysicalMemoryOffset is the virtual address at which physical
	// address 0 is mapped; every physical frame P is reachable at
	// virtual address PhysicalMemoryOffset+P.
	PhysicalMemoryOffset uintptr

	// MemoryMap lists every region of physical memory the firmware
	// reported, sorted by Start address.
	MemoryMap []MemoryRegion

	// FramebufferPhysAddr, FramebufferWidth and FramebufferHeight
	// describe the EGA-compatible text-mode framebuffer the
	// bootloader already set up.
	FramebufferPhysAddr uintptr
	FramebufferWidth    uint32
	FramebufferHeight   uint32
}

var active *Info

// SetInfoPtr records the boot info structure handed to the kernel entry
// point. It must be called exactly once, before anything that calls
// VisitMemRegions or PhysicalMemoryOffset.
func SetInfoPtr(infoPtr *Info) {
	active = infoPtr
}

// PhysicalMemoryOffset returns the offset recorded by SetInfoPtr.
func PhysicalMemoryOffset() uintptr {
	return active.PhysicalMemoryOffset
}

// Framebuffer returns the physical address and dimensions of the
// bootloader-provided framebuffer.
func Framebuffer() (physAddr uintptr, width, height uint32) {
	return active.FramebufferPhysAddr, active.FramebufferWidth, active.FramebufferHeight
}

// VisitMemRegions invokes visit once for every memory region in
// ascending address order, stopping early if visit returns false.
func VisitMemRegions(visit func(*MemoryRegion) bool) {
	for i := range active.MemoryMap {
		if !visit(&active.MemoryMap[i]) {
			return
		}
	}
}

// Dump prints the memory map through printf (normally early.Printf, which
// is passed in rather than imported because kfmt/early depends on this
// package through kernel/hal). Useful during boot for diagnosing a frame
// allocator that reports running out of memory unexpectedly early.
func Dump(printf func(format string, args ...interface{})) {
	printf("[bootinfo] physical memory offset: 0x%16x\n", uint64(active.PhysicalMemoryOffset))
	printf("[bootinfo] memory map:\n")
	VisitMemRegions(func(r *MemoryRegion) bool {
		printf("\t[0x%10x - 0x%10x] (%s)\n", r.Start, r.Start+r.Len, r.Kind.String())
		return true
	})
}
