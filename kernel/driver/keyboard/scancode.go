// Package keyboard decodes PS/2 Set-1 scancodes into ASCII characters.
//
// Only the single-shift-state subset spec.md's test scenario exercises
// is implemented: the alphanumeric row and the common punctuation keys,
// with no shift/caps-lock tracking. The original's pc_keyboard crate
// drives a full layout/shift-state machine (see
// _examples/original_source/multitasking/src/task/keyboard.rs); that is
// a documented non-goal extension here, not required behavior.
package keyboard

// ReleasedBit marks a Set-1 scancode as a key release rather than a
// press; the make code for a key is its break code with this bit
// cleared.
const ReleasedBit = 0x80

// set1Table maps a Set-1 make code to the ASCII character it produces.
// A zero entry means the key has no ASCII representation in this
// reduced layout (function keys, modifiers, arrows, and so on).
var set1Table = [128]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x0C: '-', 0x0D: '=',

	0x0F: '\t',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1A: '[', 0x1B: ']',

	0x1C: '\n',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l', 0x27: ';',
	0x28: '\'', 0x29: '`',

	0x2B: '\\',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm', 0x33: ',', 0x34: '.', 0x35: '/',

	0x39: ' ',
}

// Decode translates a raw scancode byte into an ASCII character. ok is
// false for key releases (the high bit set) and for make codes with no
// entry in set1Table, such as modifier and function keys.
func Decode(scancode byte) (ch byte, ok bool) {
	if scancode&ReleasedBit != 0 {
		return 0, false
	}

	ch = set1Table[scancode]
	return ch, ch != 0
}
