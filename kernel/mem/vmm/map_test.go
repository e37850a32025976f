package vmm

import (
	"testing"
	"unsafe"

	"github.com/mithrao/gokernel/kernel"
	"github.com/mithrao/gokernel/kernel/mem"
	"github.com/mithrao/gokernel/kernel/mem/pmm"
)

// backedPhysMem fakes the identity-offset mapping that Init would
// normally establish against real physical memory: physMemOffset points
// at a Go-allocated buffer and frame numbers index into it page by page.
func backedPhysMem(t *testing.T, pages int) pmm.Frame {
	t.Helper()
	buf := make([]byte, (pages+1)*int(mem.PageSize))
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (base + uintptr(mem.PageSize) - 1) &^ (uintptr(mem.PageSize) - 1)
	// Choosing the frame number as aligned/PageSize makes frame.Address()
	// equal aligned, so physMemOffset (added to every frame address when
	// reaching into a table) is simply zero here.
	physMemOffset = 0
	return pmm.Frame(aligned / uintptr(mem.PageSize))
}

func withFakeActivePDT(t *testing.T, pml4 pmm.Frame) {
	t.Helper()
	orig := activePDTFn
	activePDTFn = func() uintptr { return pml4.Address() }
	origFlush := flushTLBEntryFn
	flushTLBEntryFn = func(uintptr) {}
	t.Cleanup(func() {
		activePDTFn = orig
		flushTLBEntryFn = origFlush
	})
}

func TestMapAllocatesIntermediateTables(t *testing.T) {
	pml4 := backedPhysMem(t, 8)
	withFakeActivePDT(t, pml4)

	mem.Memset(tableVirtAddr(pml4), 0, mem.PageSize)

	nextFrame := pml4 + 1
	alloc := func() (pmm.Frame, *kernel.Error) {
		f := nextFrame
		nextFrame++
		mem.Memset(tableVirtAddr(f), 0, mem.PageSize)
		return f, nil
	}

	targetPage := PageFromAddress(0x1000)
	targetFrame := pmm.Frame(999)

	if err := Map(targetPage, targetFrame, FlagRW, alloc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pte, err := pteForAddress(targetPage.Address())
	if err != nil {
		t.Fatalf("unexpected error resolving mapped address: %v", err)
	}
	if !pte.HasFlags(FlagPresent | FlagRW) {
		t.Error("expected mapped entry to have FlagPresent and FlagRW set")
	}
	if got := pte.Frame(); got != targetFrame {
		t.Errorf("expected mapped frame %v; got %v", targetFrame, got)
	}
}

func TestUnmapClearsPresentFlag(t *testing.T) {
	pml4 := backedPhysMem(t, 8)
	withFakeActivePDT(t, pml4)
	mem.Memset(tableVirtAddr(pml4), 0, mem.PageSize)

	nextFrame := pml4 + 1
	alloc := func() (pmm.Frame, *kernel.Error) {
		f := nextFrame
		nextFrame++
		mem.Memset(tableVirtAddr(f), 0, mem.PageSize)
		return f, nil
	}

	page := PageFromAddress(0x2000)
	if err := Map(page, pmm.Frame(42), FlagRW, alloc); err != nil {
		t.Fatalf("unexpected error mapping: %v", err)
	}

	if err := Unmap(page); err != nil {
		t.Fatalf("unexpected error unmapping: %v", err)
	}

	if _, err := pteForAddress(page.Address()); err != ErrInvalidMapping {
		t.Fatalf("expected ErrInvalidMapping after unmap; got %v", err)
	}
}

func TestUnmapMissingMappingReturnsError(t *testing.T) {
	pml4 := backedPhysMem(t, 8)
	withFakeActivePDT(t, pml4)
	mem.Memset(tableVirtAddr(pml4), 0, mem.PageSize)

	if err := Unmap(PageFromAddress(0x3000)); err != ErrInvalidMapping {
		t.Fatalf("expected ErrInvalidMapping; got %v", err)
	}
}
