package heap

import "unsafe"

// fallbackNode is the in-band header written at the start of every free
// region the fallback allocator tracks. size covers the whole region,
// header included.
type fallbackNode struct {
	size uintptr
	next *fallbackNode
}

var fallbackNodeSize = unsafe.Sizeof(fallbackNode{})

func (n *fallbackNode) startAddr() uintptr {
	return uintptr(unsafe.Pointer(n))
}

func (n *fallbackNode) endAddr() uintptr {
	return n.startAddr() + n.size
}

// fallbackHeap is a first-fit free-list allocator with opportunistic
// splitting and no coalescing: freed regions are pushed back onto the
// list as-is and are never merged with a neighbor; each allocation is
// served from a single free region. This matches the fragmentation
// trade-off made explicit in the Open Question this design resolves:
// coalescing is deferred until the allocator demonstrably needs it.
type fallbackHeap struct {
	head fallbackNode
}

// init seeds the free list with a single region spanning the whole
// heap range. Must be called exactly once, before any alloc/dealloc.
func (h *fallbackHeap) init(start, size uintptr) {
	h.addFreeRegion(start, size)
}

// addFreeRegion pushes a free region onto the front of the list.
func (h *fallbackHeap) addFreeRegion(addr, size uintptr) {
	if size < fallbackNodeSize {
		return
	}

	node := (*fallbackNode)(unsafe.Pointer(addr))
	node.size = size
	node.next = h.head.next
	h.head.next = node
}

// allocFromRegion checks whether region can serve an allocation of size
// bytes aligned to align, returning the start address of the
// allocation if so.
func allocFromRegion(region *fallbackNode, size, align uintptr) (allocStart uintptr, ok bool) {
	allocStart = alignUp(region.startAddr(), align)
	allocEnd := allocStart + size
	if allocEnd > region.endAddr() {
		return 0, false
	}

	excess := region.endAddr() - allocEnd
	if excess > 0 && excess < fallbackNodeSize {
		// leftover too small to host another node header; reject so the
		// region stays intact for a later, better-fitting request.
		return 0, false
	}
	return allocStart, true
}

// findRegion unlinks and returns the first free region that can serve
// an allocation of size bytes aligned to align.
func (h *fallbackHeap) findRegion(size, align uintptr) (region *fallbackNode, allocStart uintptr) {
	current := &h.head
	for current.next != nil {
		if start, ok := allocFromRegion(current.next, size, align); ok {
			region = current.next
			allocStart = start
			current.next = region.next
			return region, allocStart
		}
		current = current.next
	}
	return nil, 0
}

// sizeAlign adjusts a requested (size, align) pair so that the returned
// allocation is guaranteed to be large enough and aligned enough to
// later hold a fallbackNode header when it is freed.
func sizeAlign(size, align uintptr) (uintptr, uintptr) {
	if align < unsafe.Alignof(fallbackNode{}) {
		align = unsafe.Alignof(fallbackNode{})
	}
	size = alignUp(size, align)
	if size < fallbackNodeSize {
		size = fallbackNodeSize
	}
	return size, align
}

// alloc reserves size bytes aligned to align, returning 0 if no region
// is large enough.
func (h *fallbackHeap) alloc(size, align uintptr) uintptr {
	size, align = sizeAlign(size, align)

	region, allocStart := h.findRegion(size, align)
	if region == nil {
		return 0
	}

	allocEnd := allocStart + size
	if excess := region.endAddr() - allocEnd; excess > 0 {
		h.addFreeRegion(allocEnd, excess)
	}
	return allocStart
}

// dealloc returns a previously allocated region to the free list.
func (h *fallbackHeap) dealloc(ptr, size uintptr) {
	size, _ = sizeAlign(size, unsafe.Alignof(fallbackNode{}))
	h.addFreeRegion(ptr, size)
}
