// Package qemu drives the isa-debug-exit device QEMU exposes at I/O
// port 0xF4. Integration-test binaries use it to report a pass/fail
// result and terminate the VM instead of hanging in a halt loop once
// their scenario has run; it has no role in a normal boot.
//
// Grounded on _examples/original_source/interrupts/tests/stack_overflow.rs's
// exit_qemu/QemuExitCode, reimplemented against kernel/cpu's port-I/O
// primitives since no Go equivalent exists in this corpus.
package qemu

import "github.com/mithrao/gokernel/kernel/cpu"

// exitPort is the I/O port QEMU's "isa-debug-exit" device is mapped to
// (passed to QEMU via "-device isa-debug-exit,iobase=0xf4,iosize=0x04").
const exitPort = 0xF4

// ExitCode is the 32-bit value written to exitPort. QEMU reports back
// to the host as exit status (code<<1)|1, so the values themselves only
// need to differ from one another; Success and Failure match the
// values the original test harness used.
type ExitCode uint32

const (
	// Success reports that the test scenario reached its expected
	// outcome.
	Success ExitCode = 0x10

	// Failure reports that the test scenario did not.
	Failure ExitCode = 0x11
)

// Exit writes code to the exit device, which terminates the running
// QEMU VM immediately. It never returns under QEMU; callers still loop
// forever afterward so behavior is still correct (just hangs) if run
// under something that is not QEMU.
func Exit(code ExitCode) {
	cpu.Outl(exitPort, uint32(code))
	for {
		cpu.Halt()
	}
}
