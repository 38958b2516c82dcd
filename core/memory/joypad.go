package memory

import "github.com/wrnrlr/dmgcore/core/bit"

// JoypadKey identifies one of the 8 physical buttons. Active-low: a 0 bit in
// the relevant nibble means pressed.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// dpadBit/buttonBit index which nibble bit a key controls. The d-pad keys
// and the face/start/select keys share bit positions within their own
// nibble, so both tables reuse 0-3.
var dpadBit = map[JoypadKey]uint8{
	JoypadRight: 0,
	JoypadLeft:  1,
	JoypadUp:    2,
	JoypadDown:  3,
}

var buttonBit = map[JoypadKey]uint8{
	JoypadA:      0,
	JoypadB:      1,
	JoypadSelect: 2,
	JoypadStart:  3,
}

// Joypad tracks button/d-pad state and the P1 register's line-select latch.
// P1 exposes only whichever nibble was last selected via Write.
type Joypad struct {
	buttons uint8 // bits 0-3: A,B,Select,Start; 1 = released
	dpad    uint8 // bits 0-3: Right,Left,Up,Down; 1 = released
	line    uint8 // P1 bits 4-5 as last written
}

// NewJoypad returns a Joypad with every button released.
func NewJoypad() *Joypad {
	return &Joypad{buttons: 0x0F, dpad: 0x0F}
}

// Read returns the nibble selected by the last Write, or 0 if neither
// line is selected.
func (j *Joypad) Read() uint8 {
	switch j.line {
	case 0x10:
		return j.dpad
	case 0x20:
		return j.buttons
	default:
		return 0
	}
}

// Write latches which nibble (d-pad or buttons) a subsequent Read returns.
func (j *Joypad) Write(value uint8) {
	j.line = value & 0x30
}

// Press clears key's bit, marking it held down.
func (j *Joypad) Press(key JoypadKey) {
	if b, ok := dpadBit[key]; ok {
		j.dpad = bit.Reset(b, j.dpad)
	}
	if b, ok := buttonBit[key]; ok {
		j.buttons = bit.Reset(b, j.buttons)
	}
}

// Release sets key's bit, marking it up.
func (j *Joypad) Release(key JoypadKey) {
	if b, ok := dpadBit[key]; ok {
		j.dpad = bit.Set(b, j.dpad)
	}
	if b, ok := buttonBit[key]; ok {
		j.buttons = bit.Set(b, j.buttons)
	}
}
