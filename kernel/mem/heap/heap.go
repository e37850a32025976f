// Package heap implements the kernel's dynamic memory allocator: a
// segregated-fit allocator for small, fixed-size classes backed by a
// first-fit linked-list allocator for everything else.
//
// Grounded on _examples/original_source/blog_os/multitasking/src/allocator/fixed_size_block.rs
// for the segregated layer and on
// _examples/original_source/memory/src/allocator/linked_list.rs for the
// fallback, reworked into the in-band free-list idiom used by
// _examples/iansmith-mazarin/src/go/mazarin/heap.go (a node header
// written directly into the freed memory it describes) and guarded by
// kernel/sync.Spinlock rather than a hosted-runtime mutex.
package heap

import (
	"unsafe"

	"github.com/mithrao/gokernel/kernel/sync"
)

// blockSizes are the fixed-size classes the segregated layer serves.
// Each size must be a power of two since sizes double as alignments.
var blockSizes = [...]uintptr{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

// blockNode is written in-band at the start of a free block. Unlike the
// fallback allocator's node, it carries no size field: every node on
// listHeads[i] has exactly blockSizes[i] bytes, so the size is implied
// by which list the node is on.
type blockNode struct {
	next *blockNode
}

// Allocator is a segregated-fit allocator for the fixed blockSizes
// classes, falling back to a first-fit linked-list allocator for larger
// or oddly-aligned requests. The zero value is not ready for use; call
// Init first.
type Allocator struct {
	lock      sync.Spinlock
	listHeads [len(blockSizes)]*blockNode
	fallback  fallbackHeap
}

var (
	// global is the single heap instance the kernel allocates from
	// after Init has run.
	global Allocator

	initialized bool
)

// Init prepares the heap to serve allocations out of the byte range
// [start, start+size). It must be called exactly once, after the range
// has been mapped present and writable by the virtual memory manager.
// A second call is a no-op, matching vmm.Init's guard.
func Init(start, size uintptr) {
	if initialized {
		return
	}
	initialized = true

	global.fallback.init(start, size)
}

// Allocate reserves a block satisfying layout and returns its address,
// or 0 if the heap is exhausted.
func Allocate(layout Layout) uintptr {
	global.lock.Acquire()
	defer global.lock.Release()

	idx, ok := blockIndex(layout)
	if !ok {
		return global.fallback.alloc(layout.Size, layout.Align)
	}

	if node := global.listHeads[idx]; node != nil {
		global.listHeads[idx] = node.next
		return uintptr(unsafe.Pointer(node))
	}

	// No free block of this class: carve a new one out of the fallback
	// allocator. Blocks are only ever created lazily, on demand.
	blockSize := blockSizes[idx]
	return global.fallback.alloc(blockSize, blockSize)
}

// Deallocate returns a block previously obtained from Allocate back to
// the heap. layout must match the Layout passed to the Allocate call
// that produced ptr.
func Deallocate(ptr uintptr, layout Layout) {
	if ptr == 0 {
		return
	}

	global.lock.Acquire()
	defer global.lock.Release()

	idx, ok := blockIndex(layout)
	if !ok {
		global.fallback.dealloc(ptr, layout.Size)
		return
	}

	node := (*blockNode)(unsafe.Pointer(ptr))
	node.next = global.listHeads[idx]
	global.listHeads[idx] = node
}

// blockIndex returns the index into blockSizes that can satisfy layout,
// or false if the request must go to the fallback allocator.
func blockIndex(layout Layout) (int, bool) {
	required := layout.Size
	if layout.Align > required {
		required = layout.Align
	}
	for i, s := range blockSizes {
		if s >= required {
			return i, true
		}
	}
	return 0, false
}
