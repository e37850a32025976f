package allocator

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/mithrao/gokernel/kernel/driver/video/console"
	"github.com/mithrao/gokernel/kernel/hal"
	"github.com/mithrao/gokernel/kernel/hal/bootinfo"
)

// testMemoryMap mimics what qemu reports for a small instance: a low
// usable region below the legacy BIOS hole, the hole itself, and a
// larger usable region starting at 1MB.
//
//   - region [0x0 - 0x9fc00] rounds to frames [0-158], 159 frames
//   - region [0x100000 - 0x7fe0000] rounds to frames [256-32735], 32480 frames
var testMemoryMap = []bootinfo.MemoryRegion{
	{Start: 0x0, Len: 0x9fc00, Kind: bootinfo.RegionUsable},
	{Start: 0x9fc00, Len: 0x400, Kind: bootinfo.RegionReserved},
	{Start: 0xf0000, Len: 0x10000, Kind: bootinfo.RegionReserved},
	{Start: 0x100000, Len: 0x7ee0000, Kind: bootinfo.RegionUsable},
	{Start: 0x7fe0000, Len: 0x20000, Kind: bootinfo.RegionReserved},
	{Start: 0xfffc0000, Len: 0x40000, Kind: bootinfo.RegionReserved},
}

func TestBootMemAllocator(t *testing.T) {
	bootinfo.SetInfoPtr(&bootinfo.Info{MemoryMap: testMemoryMap})

	const totalFreeFrames uint64 = 159 + 32480

	var (
		alloc           = BootMemAllocator{lastAllocIndex: -1}
		allocFrameCount uint64
	)
	for {
		frame, err := alloc.AllocFrame()
		if err != nil {
			if err == errBootAllocOutOfMemory {
				break
			}
			t.Fatalf("[frame %d] unexpected allocator error: %v", allocFrameCount, err)
		}
		allocFrameCount++

		if !frame.IsValid() {
			t.Errorf("[frame %d] expected IsValid() to return true", allocFrameCount)
		}
	}

	if allocFrameCount != totalFreeFrames {
		t.Fatalf("expected allocator to allocate %d frames; allocated %d", totalFreeFrames, allocFrameCount)
	}
}

func TestBootMemAllocatorInitPrintsMemoryMap(t *testing.T) {
	fb := mockTTY()
	bootinfo.SetInfoPtr(&bootinfo.Info{MemoryMap: testMemoryMap})

	var alloc BootMemAllocator
	alloc.Init()

	var buf bytes.Buffer
	for i := 0; i < len(fb); i += 2 {
		if fb[i] == 0x0 {
			continue
		}
		buf.WriteByte(fb[i])
	}

	if got := buf.String(); got == "" {
		t.Fatal("expected Init to print a non-empty memory map summary")
	}
}

func mockTTY() []byte {
	mockConsoleFb := make([]byte, 160*25)
	mockConsole := &console.Ega{}
	mockConsole.Init(80, 25, uintptr(unsafe.Pointer(&mockConsoleFb[0])))
	hal.ActiveTerminal.AttachTo(mockConsole)

	return mockConsoleFb
}
