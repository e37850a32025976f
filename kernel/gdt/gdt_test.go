package gdt

import (
	"testing"
	"unsafe"
)

func TestTSSDescriptorEncodesBaseAndLimit(t *testing.T) {
	var fake tss
	low, high := tssDescriptor(&fake)

	base := uint64(uintptr(unsafe.Pointer(&fake)))
	gotBase := (low>>16)&0xFFFFFF | (((low >> 56) & 0xFF) << 24) | high<<32
	if gotBase != base {
		t.Errorf("expected encoded base %#x, got %#x", base, gotBase)
	}

	limit := uint64(unsafe.Sizeof(fake)) - 1
	gotLimit := low&0xFFFF | (((low >> 48) & 0xF) << 16)
	if gotLimit != limit {
		t.Errorf("expected encoded limit %#x, got %#x", limit, gotLimit)
	}

	if present := (low >> 47) & 1; present != 1 {
		t.Error("expected present bit to be set")
	}
}

func TestDoubleFaultISTIndexWithinRange(t *testing.T) {
	if DoubleFaultISTIndex < 0 || DoubleFaultISTIndex > 6 {
		t.Errorf("IST index %d out of the 7 available slots", DoubleFaultISTIndex)
	}
}
