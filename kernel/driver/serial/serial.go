// Package serial drives the 16550 UART at COM1 (port 0x3F8). The
// kernel never relies on it for boot progress, only for test output:
// integration-test binaries print their pass/fail trace here before
// exiting through kernel/qemu, since the host test harness captures
// QEMU's serial output rather than its VGA framebuffer.
//
// Grounded on _examples/original_source/interrupts/src/serial.rs's
// SerialPort/_print wiring, reimplemented directly against kernel/cpu's
// port-I/O primitives since no uart_16550 equivalent exists in this
// corpus, and guarded with a kernel/sync.Spinlock the same way
// kernel/driver/video/console.Ega guards the VGA buffer; neither
// disables interrupts around its critical section.
package serial

import (
	"github.com/mithrao/gokernel/kernel/cpu"
	"github.com/mithrao/gokernel/kernel/sync"
)

// com1 is the only serial port this kernel drives; the original
// interrupts example numbers further ports but never wires more than
// one up either.
const com1 = 0x3F8

const (
	dataPort              = com1
	interruptEnablePort   = com1 + 1
	fifoControlPort       = com1 + 2
	lineControlPort       = com1 + 3
	modemControlPort      = com1 + 4
	lineStatusPort        = com1 + 5
	divisorLowPort        = com1
	divisorHighPort       = com1 + 1
	lineStatusEmptyTxBit  = 1 << 5
	divisorBaud38400      = 3
	lineControl8N1DLAB    = 0x80
	lineControl8N1        = 0x03
	fifoControlEnableFlow = 0xC7
	modemControlRTSDSRout = 0x0B
)

var (
	lock        sync.Spinlock
	initialized bool
)

// Init programs the COM1 UART for 38400 8N1 with FIFOs enabled. Safe to
// call more than once; only the first call does any work.
func Init() {
	lock.Acquire()
	defer lock.Release()

	if initialized {
		return
	}
	initialized = true

	cpu.Outb(interruptEnablePort, 0x00) // disable all UART interrupts
	cpu.Outb(lineControlPort, lineControl8N1DLAB)
	cpu.Outb(divisorLowPort, divisorBaud38400)
	cpu.Outb(divisorHighPort, 0x00)
	cpu.Outb(lineControlPort, lineControl8N1)
	cpu.Outb(fifoControlPort, fifoControlEnableFlow)
	cpu.Outb(modemControlPort, modemControlRTSDSRout)
}

func transmitEmpty() bool {
	return cpu.Inb(lineStatusPort)&lineStatusEmptyTxBit != 0
}

// WriteByte blocks until the transmit holding register is empty, then
// sends b. It takes no lock and leaves interrupts as they are;
// WriteString holds the package spinlock across its whole span.
func WriteByte(b byte) {
	for !transmitEmpty() {
	}
	cpu.Outb(dataPort, b)
}

// WriteString writes every byte of s to the serial port, translating a
// bare '\n' into "\r\n" since a raw terminal on the other end of the
// host-side pty otherwise would not return the carriage.
func WriteString(s string) {
	lock.Acquire()
	defer lock.Release()

	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			WriteByte('\r')
		}
		WriteByte(s[i])
	}
}
