package pic

import "testing"

func TestIRQVector(t *testing.T) {
	specs := []struct {
		irq  IRQ
		want uint8
	}{
		{IRQTimer, 32},
		{IRQKeyboard, 33},
	}

	for _, s := range specs {
		if got := s.irq.Vector(); got != s.want {
			t.Errorf("IRQ %d: expected vector %d, got %d", s.irq, s.want, got)
		}
	}
}

func TestOffsetsDoNotOverlapCPUExceptions(t *testing.T) {
	if MasterOffset < 32 {
		t.Errorf("master offset %d collides with CPU exception vectors", MasterOffset)
	}
	if SlaveOffset != MasterOffset+8 {
		t.Errorf("expected slave offset to be master+8, got %d", SlaveOffset)
	}
}
