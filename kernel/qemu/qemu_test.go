package qemu

import "testing"

func TestExitCodesAreDistinct(t *testing.T) {
	if Success == Failure {
		t.Fatal("Success and Failure exit codes must differ")
	}
}
