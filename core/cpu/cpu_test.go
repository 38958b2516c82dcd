package cpu

import (
	"testing"

	"github.com/wrnrlr/dmgcore/core/addr"
	"github.com/wrnrlr/dmgcore/core/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCPU() (*CPU, *memory.MMU) {
	m := memory.New()
	c := New(m)
	c.pc = 0xC000 // run out of WRAM so tests can write program bytes freely
	return c, m
}

func TestIncSetsHalfCarryAndZero(t *testing.T) {
	c, _ := newTestCPU()
	c.b = 0x0F

	result := c.inc8(c.b)

	assert.Equal(t, uint8(0x10), result)
	assert.True(t, c.isSetFlag(halfCarryFlag))
	assert.False(t, c.isSetFlag(zeroFlag))
	assert.False(t, c.isSetFlag(subFlag))
}

func TestIncWrapsToZero(t *testing.T) {
	c, _ := newTestCPU()
	result := c.inc8(0xFF)

	assert.Equal(t, uint8(0x00), result)
	assert.True(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.isSetFlag(halfCarryFlag))
}

func TestDecSetsSubFlag(t *testing.T) {
	c, _ := newTestCPU()
	result := c.dec8(0x01)

	assert.Equal(t, uint8(0x00), result)
	assert.True(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.isSetFlag(subFlag))
}

func TestAddToASetsCarry(t *testing.T) {
	tests := []struct {
		a, value         uint8
		expected         uint8
		carry, halfCarry bool
	}{
		{0xFF, 0x01, 0x00, true, true},
		{0x0F, 0x01, 0x10, false, true},
		{0x01, 0x01, 0x02, false, false},
	}

	for _, tt := range tests {
		c, _ := newTestCPU()
		c.a = tt.a
		c.addToA(tt.value, false)

		if c.a != tt.expected {
			t.Errorf("addToA(%#x, %#x) = %#x; want %#x", tt.a, tt.value, c.a, tt.expected)
		}
		if c.isSetFlag(carryFlag) != tt.carry {
			t.Errorf("addToA(%#x, %#x) carry = %v; want %v", tt.a, tt.value, c.isSetFlag(carryFlag), tt.carry)
		}
		if c.isSetFlag(halfCarryFlag) != tt.halfCarry {
			t.Errorf("addToA(%#x, %#x) half-carry = %v; want %v", tt.a, tt.value, c.isSetFlag(halfCarryFlag), tt.halfCarry)
		}
	}
}

func TestSubFromASetsBorrow(t *testing.T) {
	c, _ := newTestCPU()
	c.a = 0x00
	c.subFromA(0x01, false)

	assert.Equal(t, uint8(0xFF), c.a)
	assert.True(t, c.isSetFlag(carryFlag))
	assert.True(t, c.isSetFlag(subFlag))
}

func TestCpDoesNotModifyA(t *testing.T) {
	c, _ := newTestCPU()
	c.a = 0x10
	c.cp(0x10)

	assert.Equal(t, uint8(0x10), c.a)
	assert.True(t, c.isSetFlag(zeroFlag))
}

func TestSwapExchangesNibbles(t *testing.T) {
	c, _ := newTestCPU()
	result := c.swap(0xAB)

	assert.Equal(t, uint8(0xBA), result)
	assert.False(t, c.isSetFlag(carryFlag))
}

func TestSwapZeroSetsZeroFlag(t *testing.T) {
	c, _ := newTestCPU()
	result := c.swap(0x00)

	assert.Equal(t, uint8(0x00), result)
	assert.True(t, c.isSetFlag(zeroFlag))
}

func TestBitTestSetsZeroWhenClear(t *testing.T) {
	c, _ := newTestCPU()
	c.bitTest(3, 0b1111_0111)

	assert.True(t, c.isSetFlag(zeroFlag))
	assert.True(t, c.isSetFlag(halfCarryFlag))
}

// --- end-to-end execution scenarios ---

func TestLoadImmediateIntoRegister(t *testing.T) {
	c, m := newTestCPU()
	m.Write(c.pc, 0x06)   // LD B,d8
	m.Write(c.pc+1, 0x42)

	cycles, err := c.Step()

	require.NoError(t, err)
	require.Equal(t, 8, cycles)
	assert.Equal(t, uint8(0x42), c.b)
}

func TestLoadRegisterToRegister(t *testing.T) {
	c, m := newTestCPU()
	c.b = 0x99
	m.Write(c.pc, 0x78) // LD A,B

	_, err := c.Step()

	require.NoError(t, err)
	assert.Equal(t, uint8(0x99), c.a)
}

func TestJumpRelativeTaken(t *testing.T) {
	c, m := newTestCPU()
	start := c.pc
	m.Write(c.pc, 0x18)   // JR r8
	m.Write(c.pc+1, 0x05)

	cycles, err := c.Step()

	require.NoError(t, err)
	assert.Equal(t, 12, cycles)
	assert.Equal(t, start+2+5, c.pc)
}

func TestConditionalJumpNotTakenCostsLess(t *testing.T) {
	c, m := newTestCPU()
	c.setFlag(zeroFlag)
	m.Write(c.pc, 0x20) // JR NZ,r8 (not taken: Z is set)
	m.Write(c.pc+1, 0x10)

	cycles, err := c.Step()

	require.NoError(t, err)
	assert.Equal(t, 8, cycles)
}

func TestCallAndReturnRoundTrips(t *testing.T) {
	c, m := newTestCPU()
	start := c.pc
	m.Write(c.pc, 0xCD) // CALL a16
	m.Write(c.pc+1, 0x00)
	m.Write(c.pc+2, 0xD0)

	_, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xD000), c.pc)
	assert.Equal(t, start+3, c.pop16())

	// push it back so RET can consume it for real
	c.push16(start + 3)
	m.Write(c.pc, 0xC9) // RET
	_, err = c.Step()
	require.NoError(t, err)
	assert.Equal(t, start+3, c.pc)
}

func TestPushPopRoundTrips(t *testing.T) {
	c, m := newTestCPU()
	c.setBC(0x1234)
	m.Write(c.pc, 0xC5) // PUSH BC
	_, err := c.Step()
	require.NoError(t, err)

	c.setBC(0x0000)
	m.Write(c.pc, 0xC1) // POP BC
	_, err = c.Step()
	require.NoError(t, err)

	assert.Equal(t, uint16(0x1234), c.bc())
}

func TestHaltWaitsForPendingInterrupt(t *testing.T) {
	c, m := newTestCPU()
	c.ime = true
	m.Write(c.pc, 0x76) // HALT
	_, err := c.Step()
	require.NoError(t, err)
	assert.True(t, c.halted)

	cycles, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.True(t, c.halted)

	m.Write(addr.IE, uint8(addr.VBlankInterrupt))
	m.RequestInterrupt(addr.VBlankInterrupt)

	_, err = c.Step()
	require.NoError(t, err)
	assert.False(t, c.halted)
}

func TestHaltWithIMEDisabledKeepsExecuting(t *testing.T) {
	c, m := newTestCPU()
	c.ime = false
	m.Write(c.pc, 0x76) // HALT
	m.Write(c.pc+1, 0x00)

	cycles, err := c.Step()

	require.NoError(t, err)
	assert.Equal(t, 4, cycles)
	assert.False(t, c.halted, "HALT with IME disabled must not stop instruction fetch")
}

func TestInterruptServiceDispatchesToVector(t *testing.T) {
	c, m := newTestCPU()
	c.ime = true
	start := c.pc

	m.Write(addr.IE, uint8(addr.TimerInterrupt))
	m.RequestInterrupt(addr.TimerInterrupt)

	cycles, err := c.Step()

	require.NoError(t, err)
	assert.Equal(t, 20, cycles)
	assert.Equal(t, uint16(0x50), c.pc)
	assert.False(t, c.ime)
	assert.Equal(t, start, c.pop16())
}

func TestEITakesEffectAfterNextInstruction(t *testing.T) {
	c, m := newTestCPU()
	c.ime = false
	m.Write(c.pc, 0xFB)   // EI
	m.Write(c.pc+1, 0x00) // NOP
	m.Write(c.pc+2, 0x00) // NOP

	_, err := c.Step() // EI: IME not yet set
	require.NoError(t, err)
	assert.False(t, c.ime)

	_, err = c.Step() // the instruction right after EI still runs with the old IME
	require.NoError(t, err)
	assert.True(t, c.ime)
}

func TestStepReturnsErrUnknownOpcodeForIllegalByte(t *testing.T) {
	c, m := newTestCPU()
	m.Write(c.pc, 0xD3) // illegal on the SM83

	_, err := c.Step()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOpcode)
}
