package video

import "github.com/wrnrlr/dmgcore/core/bit"

// MemoryReader is the read-only slice of the bus that tile/sprite fetches
// need; *memory.MMU satisfies it.
type MemoryReader interface {
	Read(addr uint16) byte
}

// TileRow is one 8-pixel row of a tile, stored as two bit planes: Low holds
// bit 0 of each pixel's 2-bit color, High holds bit 1. Bit 7 of each byte is
// the leftmost pixel.
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	Colors:      0 2 3 3 3 3 2 0
//
// The color index (0-3) this produces is not itself a displayable value —
// BGP/OBP0/OBP1 map it to one of the four DMG shades, and for sprites index
// 0 is always transparent.
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel returns the color index (0-3) at pixelX (0 = leftmost).
func (t TileRow) GetPixel(pixelX int) int {
	return t.colorAt(uint8(7 - pixelX))
}

// GetPixelFlipped is GetPixel with the row read right-to-left, for sprites
// using the horizontal-flip attribute.
func (t TileRow) GetPixelFlipped(pixelX int) int {
	return t.colorAt(uint8(pixelX))
}

func (t TileRow) colorAt(bitIndex uint8) int {
	color := 0
	if bit.IsSet(bitIndex, t.Low) {
		color |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		color |= 2
	}
	return color
}

// FetchTileRow reads row (0-7) of the tile whose pattern data starts at
// tileBase — the caller has already resolved tileBase via TileAddress.
func FetchTileRow(mem MemoryReader, tileBase uint16, row int) TileRow {
	rowAddr := tileBase + uint16(row*2)
	return TileRow{Low: mem.Read(rowAddr), High: mem.Read(rowAddr + 1)}
}

// TileAddress resolves a tile-map byte to the base address of its 16-byte
// pattern in VRAM. In signed mode (tilesAddr == addr.TileData2) the byte is
// a signed offset from 0x9000; otherwise it's an unsigned index from
// tilesAddr (0x8000).
func TileAddress(tilesAddr uint16, signed bool, tileValue byte) uint16 {
	if signed {
		return uint16(int(tilesAddr) + int(int8(tileValue))*16)
	}
	return tilesAddr + uint16(tileValue)*16
}
