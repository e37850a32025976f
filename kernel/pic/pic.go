// Package pic drives the two chained 8259 Programmable Interrupt
// Controllers. PC firmware leaves them mapped to vectors 0-15, which
// collide with the CPU's own exception vectors; this package remaps
// them out of the way and acknowledges interrupts once a handler has
// serviced them.
//
// Grounded on the remap sequence performed by the pic8259 crate, as
// used from _examples/original_source/interrupts/src/interrupts.rs,
// reimplemented directly against kernel/cpu's port-I/O primitives
// since no Go equivalent of that crate exists in this corpus.
package pic

import (
	"github.com/mithrao/gokernel/kernel/cpu"
	"github.com/mithrao/gokernel/kernel/sync"
)

const (
	masterCommandPort = 0x20
	masterDataPort    = 0x21
	slaveCommandPort  = 0xA0
	slaveDataPort     = 0xA1

	cmdInit       = 0x11
	cmdEndOfIntr  = 0x20
	mode8086      = 0x01
	masterSlaveOn = 0x04 // tell master a slave sits on IRQ2
	slaveCascade  = 0x02 // tell slave its cascade identity
)

// MasterOffset and SlaveOffset are the interrupt vectors the master and
// slave PIC are remapped to. They must not overlap the CPU exception
// vectors (0-31); spec.md fixes them at 32 and 40 to match the
// convention used throughout the rest of the corpus.
const (
	MasterOffset = 32
	SlaveOffset  = MasterOffset + 8
)

// IRQ identifies one of the 16 lines the chained PICs multiplex.
type IRQ uint8

const (
	IRQTimer    IRQ = 0
	IRQKeyboard IRQ = 1
)

// Vector returns the interrupt vector the given IRQ is remapped to.
func (i IRQ) Vector() uint8 {
	return uint8(MasterOffset) + uint8(i)
}

var lock sync.Spinlock

// Remap reprograms both PICs so that IRQs 0-7 are delivered on vectors
// MasterOffset..MasterOffset+7 and IRQs 8-15 on SlaveOffset..SlaveOffset+7,
// then restores whatever mask was in effect before the init command
// sequence ran (the sequence itself disturbs the data ports). Callers
// are expected to unmask the specific IRQs they intend to service (see
// Unmask) once their handlers are registered in the IDT.
func Remap() {
	lock.Acquire()
	defer lock.Release()

	// Save the current masks; the init command sequence disturbs the
	// data ports to load offsets, so they need restoring afterwards.
	masterMask := cpu.Inb(masterDataPort)
	slaveMask := cpu.Inb(slaveDataPort)

	cpu.Outb(masterCommandPort, cmdInit)
	ioWait()
	cpu.Outb(slaveCommandPort, cmdInit)
	ioWait()

	cpu.Outb(masterDataPort, MasterOffset)
	ioWait()
	cpu.Outb(slaveDataPort, SlaveOffset)
	ioWait()

	cpu.Outb(masterDataPort, masterSlaveOn)
	ioWait()
	cpu.Outb(slaveDataPort, slaveCascade)
	ioWait()

	cpu.Outb(masterDataPort, mode8086)
	ioWait()
	cpu.Outb(slaveDataPort, mode8086)
	ioWait()

	cpu.Outb(masterDataPort, masterMask)
	cpu.Outb(slaveDataPort, slaveMask)
}

// ioWait gives the (very slow, by modern standards) PIC chip time to
// process each command by writing to an unused port.
func ioWait() {
	cpu.Outb(0x80, 0)
}

// Unmask enables delivery of the given IRQ line.
func Unmask(irq IRQ) {
	lock.Acquire()
	defer lock.Release()

	port := masterDataPort
	line := uint8(irq)
	if line >= 8 {
		port = slaveDataPort
		line -= 8
	}
	mask := cpu.Inb(uint16(port))
	cpu.Outb(uint16(port), mask&^(1<<line))
}

// Mask disables delivery of the given IRQ line.
func Mask(irq IRQ) {
	lock.Acquire()
	defer lock.Release()

	port := masterDataPort
	line := uint8(irq)
	if line >= 8 {
		port = slaveDataPort
		line -= 8
	}
	mask := cpu.Inb(uint16(port))
	cpu.Outb(uint16(port), mask|(1<<line))
}

// EndOfInterrupt signals to the PIC(s) that the interrupt delivered on
// the given vector has been serviced. Interrupts from the slave PIC
// (vector >= SlaveOffset) must be acknowledged on both chips, since the
// slave's output is itself wired into the master's IRQ2 line.
func EndOfInterrupt(vector uint8) {
	lock.Acquire()
	defer lock.Release()

	if vector >= SlaveOffset {
		cpu.Outb(slaveCommandPort, cmdEndOfIntr)
	}
	cpu.Outb(masterCommandPort, cmdEndOfIntr)
}
