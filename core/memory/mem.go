package memory

import (
	"fmt"
	"log/slog"

	"github.com/wrnrlr/dmgcore/core/addr"
	"github.com/wrnrlr/dmgcore/core/bit"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// MMU is the single shared 64 KiB bus: cartridge-backed ROM/external-RAM,
// VRAM/WRAM/OAM/HRAM storage, and the I/O register file. The CPU, timer,
// and PPU all observe and mutate state exclusively through it.
type MMU struct {
	cart      *Cartridge
	mbc       MBC
	memory    [0x10000]byte
	regionMap [256]memRegion

	joypad *Joypad
	timer  Timer

	vramAccessible bool
	oamAccessible  bool
}

// New creates a memory unit with no cartridge loaded (power-on, no ROM).
func New() *MMU {
	m := &MMU{
		joypad:         NewJoypad(),
		vramAccessible: true,
		oamAccessible:  true,
	}
	m.mbc = &NoMBC{}
	m.timer = NewTimer()
	m.timer.TimerInterruptHandler = func() { m.RequestInterrupt(addr.TimerInterrupt) }
	initRegionMap(m)
	return m
}

// NewWithCartridge creates a memory unit with a cartridge loaded and its
// matching MBC wired in.
func NewWithCartridge(cart *Cartridge) *MMU {
	m := New()
	m.cart = cart
	m.mbc = NewMBC(cart)
	return m
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0x7F; i++ {
		m.regionMap[i] = regionROM
	}
	for i := 0x80; i <= 0x9F; i++ {
		m.regionMap[i] = regionVRAM
	}
	for i := 0xA0; i <= 0xBF; i++ {
		m.regionMap[i] = regionExtRAM
	}
	for i := 0xC0; i <= 0xDF; i++ {
		m.regionMap[i] = regionWRAM
	}
	for i := 0xE0; i <= 0xFD; i++ {
		m.regionMap[i] = regionEcho
	}
	m.regionMap[0xFE] = regionOAM
	m.regionMap[0xFF] = regionIO
}

// Tick advances the timer by the given instruction cycle count.
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
}

// SetTimerSeed sets the DIV register's starting value.
func (m *MMU) SetTimerSeed(seed int) {
	m.timer.SetSeed(seed)
}

// SetAccessGates toggles the PPU-mode access gates. The PPU calls this
// whenever its mode changes; vramOpen/oamOpen false means reads of that
// region return 0xFF and writes are dropped.
func (m *MMU) SetAccessGates(vramOpen, oamOpen bool) {
	m.vramAccessible = vramOpen
	m.oamAccessible = oamOpen
}

// Joypad returns the joypad device backing the P1 register, for the host
// input layer to drive.
func (m *MMU) Joypad() *Joypad { return m.joypad }

// RequestInterrupt sets the corresponding bit in the IF register.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	flags := m.memory[addr.IF]
	var bitPos uint8
	switch interrupt {
	case addr.VBlankInterrupt:
		bitPos = 0
	case addr.LCDSTATInterrupt:
		bitPos = 1
	case addr.TimerInterrupt:
		bitPos = 2
	case addr.SerialInterrupt:
		bitPos = 3
	case addr.JoypadInterrupt:
		bitPos = 4
	default:
		panic(fmt.Sprintf("unknown interrupt source: 0x%02X", uint8(interrupt)))
	}
	m.memory[addr.IF] = bit.Set(bitPos, flags) | 0xE0
}

// NextPendingInterrupt returns the lowest-bit (highest-priority) interrupt
// source for which IF&IE is set, in the order VBlank, LCD-STAT, Timer,
// Serial, Joypad.
func (m *MMU) NextPendingInterrupt() (addr.Interrupt, bool) {
	pending := m.memory[addr.IF] & m.memory[addr.IE]
	sources := []addr.Interrupt{
		addr.VBlankInterrupt,
		addr.LCDSTATInterrupt,
		addr.TimerInterrupt,
		addr.SerialInterrupt,
		addr.JoypadInterrupt,
	}
	for _, src := range sources {
		if pending&uint8(src) != 0 {
			return src, true
		}
	}
	return 0, false
}

// ClearInterrupt clears the given source's bit in IF, called once the CPU
// has begun servicing it.
func (m *MMU) ClearInterrupt(interrupt addr.Interrupt) {
	m.memory[addr.IF] = bit.Reset(bitIndexOf(interrupt), m.memory[addr.IF]) | 0xE0
}

func bitIndexOf(i addr.Interrupt) uint8 {
	switch i {
	case addr.VBlankInterrupt:
		return 0
	case addr.LCDSTATInterrupt:
		return 1
	case addr.TimerInterrupt:
		return 2
	case addr.SerialInterrupt:
		return 3
	case addr.JoypadInterrupt:
		return 4
	default:
		return 0
	}
}

func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) SetBit(index uint8, address uint16, set bool) {
	value := m.Read(address)
	if set {
		value = bit.Set(index, value)
	} else {
		value = bit.Reset(index, value)
	}
	m.Write(address, value)
}

// Read implements §4.1's read contract: PPU-mode gating first, then
// cartridge-banked ROM/external-RAM, then the flat backing array.
func (m *MMU) Read(address uint16) byte {
	if !m.vramAccessible && address >= 0x8000 && address <= 0x9FFF {
		return 0xFF
	}
	if !m.oamAccessible && address >= 0xFE00 && address <= 0xFE9F {
		return 0xFF
	}

	switch m.regionMap[address>>8] {
	case regionROM:
		return m.readROM(address)
	case regionExtRAM:
		if !m.mbc.RAMEnabled() {
			return 0xFF
		}
		return m.mbc.ReadRAM(address - 0xA000)
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		if address > 0xFE9F {
			return 0xFF // 0xFEA0-0xFEFF unusable
		}
		return m.memory[address]
	case regionIO:
		return m.readIO(address)
	default:
		return m.memory[address]
	}
}

func (m *MMU) readROM(address uint16) byte {
	if address < 0x4000 {
		if m.cart == nil {
			return 0xFF
		}
		return m.cart.ReadByte(int(address))
	}
	if m.cart == nil {
		return 0xFF
	}
	offset := m.mbc.ROMBank()*0x4000 + int(address-0x4000)
	return m.cart.ReadByte(offset)
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.Read() | 0xC0
	case address == addr.DIV || address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		return m.timer.Read(address)
	case address == addr.IF:
		return m.memory[address] | 0xE0
	default:
		return m.memory[address]
	}
}

// Write implements §4.1's write contract: gating, then MBC control writes
// below 0x8000, then ECHO/unusable drops, then DIV/LY reset-on-write, then
// the flat store.
func (m *MMU) Write(address uint16, value byte) {
	if !m.vramAccessible && address >= 0x8000 && address <= 0x9FFF {
		return
	}
	if !m.oamAccessible && address >= 0xFE00 && address <= 0xFE9F {
		return
	}

	switch m.regionMap[address>>8] {
	case regionROM:
		m.mbc.HandleWrite(address, value)
	case regionVRAM, regionWRAM:
		m.memory[address] = value
	case regionExtRAM:
		if m.mbc.RAMEnabled() {
			m.mbc.WriteRAM(address-0xA000, value)
		}
	case regionEcho:
		// ECHO writes are dropped, not mirrored.
	case regionOAM:
		if address <= 0xFE9F {
			m.memory[address] = value
		}
		// 0xFEA0-0xFEFF unusable: write ignored.
	case regionIO:
		m.writeIO(address, value)
	default:
		slog.Warn("write to unmapped address", "addr", fmt.Sprintf("0x%04X", address))
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.DIV:
		m.timer.Write(addr.DIV, 0)
	case address == addr.LY:
		m.memory[addr.LY] = 0
	case address == addr.TIMA || address == addr.TMA || address == addr.TAC:
		m.timer.Write(address, value)
	case address == addr.IF:
		m.memory[address] = value | 0xE0
	case address == addr.DMA:
		m.performDMA(value)
	default:
		m.memory[address] = value
	}
}

// performDMA copies 160 bytes from (value<<8) into OAM, as triggered by a
// write to the DMA register.
func (m *MMU) performDMA(value byte) {
	source := uint16(value) << 8
	for i := uint16(0); i < 160; i++ {
		m.memory[0xFE00+i] = m.Read(source + i)
	}
	m.memory[addr.DMA] = value
}
