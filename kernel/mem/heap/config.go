package heap

// HeapStart and HeapSize fix the virtual range kmain maps and hands to
// Init. Grounded on _examples/original_source/memory/src/allocator.rs's
// HEAP_START/HEAP_SIZE constants: an arbitrary canonical address well
// away from the kernel image and the physical-memory offset window, and
// spec.md's fixed 100 KiB bootstrap size.
const (
	HeapStart = uintptr(0x_4444_4444_0000)
	HeapSize  = uintptr(100 * 1024)
)
