package memory

import "testing"

// testCartridge builds a minimal cartridge header with the given MBC type
// byte and ROM size code, padded to totalBytes bytes.
func testCartridge(t *testing.T, mbcByte, sizeCode byte, totalBytes int) *Cartridge {
	t.Helper()
	data := make([]byte, totalBytes)
	data[headerMBCType] = mbcByte
	data[headerROMSize] = sizeCode
	cart, err := LoadCartridge(data)
	if err != nil {
		t.Fatalf("LoadCartridge: %v", err)
	}
	return cart
}

func TestMBC1ROMBankSwitching(t *testing.T) {
	cart := testCartridge(t, 0x01, 0x02, 8*0x4000) // MBC1, 8 banks
	mbc := newMBC1(cart)

	if got := mbc.ROMBank(); got != 1 {
		t.Errorf("default ROMBank() = %d; want 1", got)
	}

	mbc.HandleWrite(0x2000, 5)
	if got := mbc.ROMBank(); got != 5 {
		t.Errorf("after selecting bank 5, ROMBank() = %d; want 5", got)
	}

	// bank 0 in the select register remaps to 1
	mbc.HandleWrite(0x2000, 0)
	if got := mbc.ROMBank(); got != 1 {
		t.Errorf("selecting bank 0 should remap to 1, got %d", got)
	}
}

func TestMBC1ROMBankWrapsToCount(t *testing.T) {
	cart := testCartridge(t, 0x01, 0x02, 8*0x4000) // 8 banks
	mbc := newMBC1(cart)

	// mode 0 (ROM banking): upper bits contribute bits 5-6, giving bank
	// (1<<5)|5 = 37, which must clamp into the 8-bank cartridge.
	mbc.HandleWrite(0x2000, 5)
	mbc.HandleWrite(0x4000, 1)
	if got := mbc.ROMBank(); got != 37%8 {
		t.Errorf("ROMBank() = %d; want %d (37 wrapped into 8 banks)", got, 37%8)
	}
}

func TestMBC1RAMDisabledByDefault(t *testing.T) {
	cart := testCartridge(t, 0x03, 0x00, 2*0x4000) // MBC1+RAM+battery
	mbc := newMBC1(cart)

	if mbc.RAMEnabled() {
		t.Fatal("RAM should be disabled by default")
	}
	if got := mbc.ReadRAM(0); got != 0xFF {
		t.Errorf("ReadRAM while disabled = 0x%02X; want 0xFF", got)
	}
}

func TestMBC1RAMEnableRequiresLowNibble0A(t *testing.T) {
	cart := testCartridge(t, 0x03, 0x00, 2*0x4000)
	mbc := newMBC1(cart)

	mbc.HandleWrite(0x0000, 0x1A) // low nibble 0xA, high nibble irrelevant
	if !mbc.RAMEnabled() {
		t.Fatal("low nibble 0xA should enable RAM regardless of high nibble")
	}

	mbc.HandleWrite(0x0000, 0x00)
	if mbc.RAMEnabled() {
		t.Fatal("writing 0x00 should disable RAM")
	}
}

func TestMBC1RAMBanking(t *testing.T) {
	cart := testCartridge(t, 0x03, 0x00, 2*0x4000)
	mbc := newMBC1(cart)

	mbc.HandleWrite(0x0000, 0x0A) // enable RAM
	mbc.HandleWrite(0x6000, 0x01) // RAM banking mode

	banks := []struct {
		bank  uint8
		value uint8
	}{{0, 0x42}, {1, 0x43}, {2, 0x44}, {3, 0x45}}

	for _, b := range banks {
		mbc.HandleWrite(0x4000, b.bank)
		mbc.WriteRAM(0, b.value)
	}
	for _, b := range banks {
		mbc.HandleWrite(0x4000, b.bank)
		if got := mbc.ReadRAM(0); got != b.value {
			t.Errorf("bank %d: ReadRAM(0) = 0x%02X; want 0x%02X", b.bank, got, b.value)
		}
	}
}

func TestMBC1UpperBitsIgnoredInRAMMode(t *testing.T) {
	cart := testCartridge(t, 0x03, 0x02, 8*0x4000)
	mbc := newMBC1(cart)

	mbc.HandleWrite(0x2000, 5) // low 5 bits of ROM bank
	mbc.HandleWrite(0x6000, 1) // RAM banking mode
	mbc.HandleWrite(0x4000, 2) // now selects RAM bank, not ROM upper bits

	if got := mbc.ROMBank(); got != 5 {
		t.Errorf("ROMBank() in RAM mode = %d; want 5 (upper bits must not apply)", got)
	}
}

func TestMBC2BuiltInRAMIs4Bit(t *testing.T) {
	cart := testCartridge(t, 0x05, 0x00, 2*0x4000)
	mbc := newMBC2(cart)

	mbc.HandleWrite(0x0000, 0x0A) // addr bit 8 clear -> RAM enable
	if !mbc.RAMEnabled() {
		t.Fatal("MBC2 RAM should be enabled")
	}

	mbc.WriteRAM(0, 0xFF)
	if got := mbc.ReadRAM(0); got != 0xFF {
		t.Errorf("ReadRAM(0) = 0x%02X; want 0xFF (low nibble all set, high forced)", got)
	}
	mbc.WriteRAM(0, 0x03)
	if got := mbc.ReadRAM(0); got != 0xF3 {
		t.Errorf("ReadRAM(0) = 0x%02X; want 0xF3 (high nibble forced to 1s)", got)
	}
}

func TestMBC5WideROMBank(t *testing.T) {
	cart := testCartridge(t, 0x19, 0x06, 256*0x4000) // MBC5, 256 banks
	mbc := newMBC5(cart)

	mbc.HandleWrite(0x2000, 0xFF) // low byte
	mbc.HandleWrite(0x3000, 0x01) // high bit
	if got := mbc.ROMBank(); got != 0x1FF {
		t.Errorf("ROMBank() = 0x%X; want 0x1FF", got)
	}
}

func TestNewMBCDispatchesByCartridgeType(t *testing.T) {
	if _, ok := NewMBC(testCartridge(t, 0x00, 0x00, 0x8000)).(*NoMBC); !ok {
		t.Error("type 0x00 should select NoMBC")
	}
	if _, ok := NewMBC(testCartridge(t, 0x01, 0x00, 0x8000)).(*MBC1); !ok {
		t.Error("type 0x01 should select MBC1")
	}
	if _, ok := NewMBC(testCartridge(t, 0x0F, 0x00, 0x8000)).(*MBC3); !ok {
		t.Error("type 0x0F should select MBC3")
	}
	if _, ok := NewMBC(testCartridge(t, 0x19, 0x00, 0x8000)).(*MBC5); !ok {
		t.Error("type 0x19 should select MBC5")
	}
}
