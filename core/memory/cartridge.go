package memory

import "fmt"

// MBCType identifies the memory bank controller declared by a cartridge header.
type MBCType uint8

const (
	MBCNone MBCType = iota
	MBC1Type
	MBC2Type
	MBC3Type
	MBC5Type
	MBCUnknown
)

func (t MBCType) String() string {
	switch t {
	case MBCNone:
		return "none"
	case MBC1Type:
		return "MBC1"
	case MBC2Type:
		return "MBC2"
	case MBC3Type:
		return "MBC3"
	case MBC5Type:
		return "MBC5"
	default:
		return "unknown"
	}
}

// mbcTypeFromHeaderByte maps the cartridge header's 0x147 byte to a controller kind.
// Battery/RAM/RTC variants of a controller all decode to the same MBCType; the
// controller itself treats battery persistence and RTC registers as non-goals.
func mbcTypeFromHeaderByte(b byte) MBCType {
	switch b {
	case 0x00:
		return MBCNone
	case 0x01, 0x02, 0x03:
		return MBC1Type
	case 0x05, 0x06:
		return MBC2Type
	case 0x0F, 0x10, 0x11, 0x12, 0x13:
		return MBC3Type
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E:
		return MBC5Type
	default:
		return MBCUnknown
	}
}

// romBankCounts maps the header's 0x148 size code to a total bank count.
var romBankCounts = []int{2, 4, 8, 16, 32, 64, 128, 256, 512}

// extraRomBankCounts covers the non-contiguous high codes used by a handful of titles.
var extraRomBankCounts = map[byte]int{
	0x52: 72,
	0x53: 80,
	0x54: 96,
}

const (
	headerTitleStart = 0x134
	headerTitleEnd   = 0x142
	headerMBCType    = 0x147
	headerROMSize    = 0x148
)

// Cartridge is a read-only view over a loaded ROM image: the full raw bytes,
// which the MMU reads for both ROM windows, plus the header fields used for banking.
type Cartridge struct {
	data       []byte
	title      string
	mbcType    MBCType
	bankCount  int
}

// LoadCartridge parses a ROM image's header and returns a Cartridge, or an error
// if the image is structurally invalid (too small to contain a header, or an
// unrecognized ROM size code).
func LoadCartridge(data []byte) (*Cartridge, error) {
	if len(data) < 0x150 {
		return nil, fmt.Errorf("rom-io: image too small to contain a header (%d bytes)", len(data))
	}

	title := cleanGameboyTitle(data[headerTitleStart : headerTitleEnd+1])
	mbcType := mbcTypeFromHeaderByte(data[headerMBCType])

	sizeCode := data[headerROMSize]
	bankCount, ok := extraRomBankCounts[sizeCode]
	if !ok {
		if int(sizeCode) >= len(romBankCounts) {
			return nil, fmt.Errorf("rom-io: unrecognized ROM size code 0x%02X", sizeCode)
		}
		bankCount = romBankCounts[sizeCode]
	}

	return &Cartridge{
		data:      data,
		title:     title,
		mbcType:   mbcType,
		bankCount: bankCount,
	}, nil
}

// Title returns the cleaned ASCII game title stored in the header.
func (c *Cartridge) Title() string { return c.title }

// MBCType returns the decoded memory bank controller kind.
func (c *Cartridge) MBCType() MBCType { return c.mbcType }

// BankCount returns the total number of 16 KiB ROM banks on the cartridge.
func (c *Cartridge) BankCount() int { return c.bankCount }

// ReadByte returns the byte at an absolute offset into the full ROM image
// (not windowed through the MMU's 32 KiB mapping).
func (c *Cartridge) ReadByte(offset int) byte {
	if offset < 0 || offset >= len(c.data) {
		return 0xFF
	}
	return c.data[offset]
}

// Size returns the number of bytes in the raw image.
func (c *Cartridge) Size() int { return len(c.data) }
