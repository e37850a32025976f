package main

import (
	"unsafe"

	"github.com/mithrao/gokernel/kernel/hal/bootinfo"
	"github.com/mithrao/gokernel/kernel/kmain"
)

// bootInfoPtr holds the address of the bootinfo.Info structure the
// bootloader's rt0 trampoline built before transferring control here.
// It is a package-level variable rather than main's argument for the
// same reason the teacher's stub.go uses one: reading a global rather
// than inlining a constant keeps the Go compiler from treating main as
// dead code and eliminating the entire kernel from the generated object
// file.
var bootInfoPtr uintptr

// main is the only Go symbol the rt0 trampoline calls. It is invoked
// after the trampoline has set up a minimal stack and written the
// address of the boot-info structure into bootInfoPtr.
//
// main never returns; if it somehow did, the trampoline halts the CPU.
func main() {
	kmain.Kmain((*bootinfo.Info)(unsafe.Pointer(bootInfoPtr)))
}
