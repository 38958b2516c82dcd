// Package cpu implements the SM83 instruction set: fetch-decode-execute,
// flag semantics, and interrupt dispatch.
package cpu

import (
	"errors"

	"github.com/wrnrlr/dmgcore/core/addr"
	"github.com/wrnrlr/dmgcore/core/bit"
)

// ErrUnknownOpcode is returned by Step when fetch lands on one of the SM83's
// undefined opcode bytes. Decoding one is fatal: the caller must stop
// running the emulation rather than guess at a continuation.
var ErrUnknownOpcode = errors.New("cpu: unknown opcode")

// Bus is the memory-mapped surface the CPU drives. core/memory.MMU satisfies
// this.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	NextPendingInterrupt() (addr.Interrupt, bool)
	ClearInterrupt(interrupt addr.Interrupt)
}

// Flag is one of the 4 flags packed into the high nibble of F.
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

// interruptVector maps an interrupt source to its fixed service-routine
// address.
func interruptVector(i addr.Interrupt) uint16 {
	switch i {
	case addr.VBlankInterrupt:
		return 0x40
	case addr.LCDSTATInterrupt:
		return 0x48
	case addr.TimerInterrupt:
		return 0x50
	case addr.SerialInterrupt:
		return 0x58
	case addr.JoypadInterrupt:
		return 0x60
	default:
		return 0x00
	}
}

// CPU holds SM83 register state and drives instruction execution against a Bus.
type CPU struct {
	bus Bus

	a, f byte
	b, c byte
	d, e byte
	h, l byte

	sp, pc uint16

	ime        bool
	imePending int // 0 = no pending EI; EI sets 2, each Step() counts down, IME is set on reaching 0
	halted     bool
	stopped    bool
}

// New returns a CPU wired to the given bus, in its post-boot-ROM power-on state.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Reset restores the register values the DMG boot ROM leaves behind when it
// hands control to the cartridge at 0x0100.
func (c *CPU) Reset() {
	c.a, c.f = 0x01, 0xB0
	c.b, c.c = 0x00, 0x13
	c.d, c.e = 0x00, 0xD8
	c.h, c.l = 0x01, 0x4D
	c.sp = 0xFFFE
	c.pc = 0x0100
	c.ime = true
	c.imePending = 0
	c.halted = false
	c.stopped = false
}

func (c *CPU) PC() uint16 { return c.pc }
func (c *CPU) SP() uint16 { return c.sp }

// Snapshot is a read-only copy of register state for debug displays.
type Snapshot struct {
	A, F, B, C, D, E, H, L byte
	SP, PC                 uint16
	IME                    bool
	Halted                 bool
}

// Snapshot returns the current register state for inspection by debug UIs.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		A: c.a, F: c.f, B: c.b, C: c.c, D: c.d, E: c.e, H: c.h, L: c.l,
		SP: c.sp, PC: c.pc, IME: c.ime, Halted: c.halted,
	}
}

func (c *CPU) setFlag(flag Flag)         { c.f |= uint8(flag) }
func (c *CPU) resetFlag(flag Flag)       { c.f &^= uint8(flag) }
func (c *CPU) isSetFlag(flag Flag) bool  { return c.f&uint8(flag) != 0 }
func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) af() uint16 { return bit.Combine(c.a, c.f&0xF0) }
func (c *CPU) bc() uint16 { return bit.Combine(c.b, c.c) }
func (c *CPU) de() uint16 { return bit.Combine(c.d, c.e) }
func (c *CPU) hl() uint16 { return bit.Combine(c.h, c.l) }

func (c *CPU) setAF(v uint16) { c.a = bit.High(v); c.f = bit.Low(v) & 0xF0 }
func (c *CPU) setBC(v uint16) { c.b = bit.High(v); c.c = bit.Low(v) }
func (c *CPU) setDE(v uint16) { c.d = bit.High(v); c.e = bit.Low(v) }
func (c *CPU) setHL(v uint16) { c.h = bit.High(v); c.l = bit.Low(v) }

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetch16() uint16 {
	low := c.fetch8()
	high := c.fetch8()
	return bit.Combine(high, low)
}

func (c *CPU) push16(v uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(v))
	c.sp--
	c.bus.Write(c.sp, bit.Low(v))
}

func (c *CPU) pop16() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

// Step either services a due interrupt (20 cycles, no instruction runs in
// that call) or runs one instruction, returning the number of machine
// cycles consumed. Returns ErrUnknownOpcode if fetch
// landed on an undefined opcode byte; the caller must stop the emulation.
func (c *CPU) Step() (int, error) {
	cycles := c.serviceInterrupt()
	if cycles > 0 {
		return cycles, nil
	}

	if c.halted {
		if _, pending := c.bus.NextPendingInterrupt(); pending {
			c.halted = false
		} else {
			return 4, nil
		}
	}

	opcode := c.fetch8()
	cycles, err := c.execute(opcode)
	if err != nil {
		return 0, err
	}

	if c.imePending > 0 {
		c.imePending--
		if c.imePending == 0 {
			c.ime = true
		}
	}

	return cycles, nil
}

// serviceInterrupt pushes PC and jumps to the vector of the highest-priority
// pending, enabled interrupt when IME is set. Returns the cycle cost (20) or
// 0 if nothing was serviced.
func (c *CPU) serviceInterrupt() int {
	if !c.ime {
		return 0
	}

	source, pending := c.bus.NextPendingInterrupt()
	if !pending {
		return 0
	}

	c.ime = false
	c.halted = false
	c.push16(c.pc)
	c.pc = interruptVector(source)
	c.bus.ClearInterrupt(source)
	return 20
}
