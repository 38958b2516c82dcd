package cpu

// Register8 is an 8-bit register value. The CPU struct does not use it: it
// keeps A, F, B, C, D, E, H and L as plain byte fields.
type Register8 uint8

func (r Register8) get() uint8 { return uint8(r) }

func (r *Register8) set(value uint8) { *r = Register8(value) }

// Register16 is a 16-bit register value. The CPU struct does not use it: SP
// and PC are plain uint16 fields, and AF/BC/DE/HL are composed on demand
// from the byte fields (see CPU.af/setAF and the matching bc/de/hl helpers).
type Register16 uint16

func (r Register16) get() uint16 { return uint16(r) }

func (r *Register16) set(value uint16) { *r = Register16(value) }

func (r *Register16) incr() { *r++ }

func (r *Register16) decr() { *r-- }
