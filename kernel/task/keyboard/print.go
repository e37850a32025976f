package keyboard

import (
	"github.com/mithrao/gokernel/kernel/driver/keyboard"
	"github.com/mithrao/gokernel/kernel/kfmt/early"
	"github.com/mithrao/gokernel/kernel/task"
)

// printKeypresses is the Future backing PrintKeypresses: it drains the
// scancode stream forever, decoding and printing each recognized key
// press. Recovered from _examples/original_source/multitasking/src/task/keyboard.rs's
// print_keypresses, dropped by the distilled spec but named as a test
// scenario; it never returns Ready, matching the original's never-ending
// async loop.
type printKeypresses struct {
	stream *ScancodeStream
}

// PrintKeypresses returns the task that prints decoded scancodes as they
// arrive. Must be spawned at most once, since it owns the process-wide
// ScancodeStream.
func PrintKeypresses() *task.Task {
	return task.New(&printKeypresses{stream: NewScancodeStream()})
}

func (p *printKeypresses) Poll(cx *task.Context) task.PollState {
	for {
		scancode, state := p.stream.Poll(cx)
		if state == task.PollPending {
			return task.PollPending
		}

		if ch, ok := keyboard.Decode(scancode); ok {
			early.Printf("%s", string(ch))
		}
	}
}
