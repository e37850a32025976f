package vmm

import "github.com/mithrao/gokernel/kernel/cpu"

// activePDTFn, switchPDTFn and flushTLBEntryFn indirect over the
// privileged amd64 instructions in kernel/cpu, letting tests substitute
// mocks instead of executing real CR3/INVLPG instructions.
var (
	activePDTFn     = cpu.ActivePDT
	switchPDTFn     = cpu.SwitchPDT
	flushTLBEntryFn = cpu.FlushTLBEntry
)
