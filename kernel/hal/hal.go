package hal

import (
	"github.com/mithrao/gokernel/kernel/driver/tty"
	"github.com/mithrao/gokernel/kernel/driver/video/console"
	"github.com/mithrao/gokernel/kernel/hal/bootinfo"
)

var (
	egaConsole = &console.Ega{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}
)

// InitTerminal provides a basic terminal to allow the kernel to emit some output
// till everything is properly setup
func InitTerminal() {
	physAddr, width, height := bootinfo.Framebuffer()

	// The bootloader's linear physical-memory mapping is already live at
	// this point (the CPU was handed it pre-mapped; kernel/mem/vmm.Init
	// only records its offset for later use by the mapper), so the VGA
	// buffer is reachable at physAddr+offset even before paging init runs.
	virtAddr := physAddr + bootinfo.PhysicalMemoryOffset()

	egaConsole.Init(uint16(width), uint16(height), virtAddr)
	ActiveTerminal.AttachTo(egaConsole)
}
