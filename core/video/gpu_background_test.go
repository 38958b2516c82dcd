package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wrnrlr/dmgcore/core/addr"
	"github.com/wrnrlr/dmgcore/core/memory"
)

// writeTile writes 16 bytes of tile pattern data (8 rows x 2 planes) at
// tileAddr, one pair of (low, high) bytes per row.
func writeTile(mmu *memory.MMU, tileAddr uint16, rows [8][2]byte) {
	for row, planes := range rows {
		mmu.Write(tileAddr+uint16(row*2), planes[0])
		mmu.Write(tileAddr+uint16(row*2)+1, planes[1])
	}
}

// solidTile builds a tile where every pixel has the given 2-bit color.
func solidTile(color byte) [8][2]byte {
	var low, high byte
	if color&1 != 0 {
		low = 0xFF
	}
	if color&2 != 0 {
		high = 0xFF
	}
	var rows [8][2]byte
	for i := range rows {
		rows[i] = [2]byte{low, high}
	}
	return rows
}

func TestDrawBackgroundSolidTile(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0x91) // LCD + BG on, unsigned tiles
	mmu.Write(addr.BGP, defaultPalette)
	writeTile(mmu, addr.TileData0, solidTile(3)) // tile 0 = all black
	mmu.Write(addr.TileMap0, 0x00)

	gpu.line = 0
	gpu.drawScanline()

	fb := gpu.GetFrameBuffer()
	for x := uint(0); x < 8; x++ {
		assert.Equal(t, uint32(BlackColor), fb.GetPixel(x, 0))
	}
}

func TestDrawBackgroundCheckeredTile(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0x91)
	mmu.Write(addr.BGP, defaultPalette)
	writeTile(mmu, addr.TileData0, [8][2]byte{
		{0xAA, 0x00}, {0x55, 0x00}, {0xAA, 0x00}, {0x55, 0x00},
		{0xAA, 0x00}, {0x55, 0x00}, {0xAA, 0x00}, {0x55, 0x00},
	})
	mmu.Write(addr.TileMap0, 0x00)

	gpu.line = 0
	gpu.drawScanline()
	gpu.line = 1
	gpu.drawScanline()

	fb := gpu.GetFrameBuffer()
	assert.Equal(t, uint32(LightGreyColor), fb.GetPixel(0, 0), "row 0, bit 7 of 0xAA set")
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(1, 0), "row 0, bit 6 of 0xAA clear")
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(0, 1), "row 1, bit 7 of 0x55 clear")
	assert.Equal(t, uint32(LightGreyColor), fb.GetPixel(1, 1), "row 1, bit 6 of 0x55 set")
}

func TestDrawBackgroundDisabledShowsPaletteColorZero(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0x80) // LCD on, BG off
	mmu.Write(addr.BGP, 0x1B) // color 0 maps to black under this palette

	gpu.line = 0
	gpu.drawScanline()

	fb := gpu.GetFrameBuffer()
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(0, 0))
}

func TestDrawBackgroundScrollWrapsAt256(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0x91)
	mmu.Write(addr.BGP, defaultPalette)

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			tileIndex := byte((y*32 + x) & 0xFF)
			mmu.Write(addr.TileMap0+uint16(y*32+x), tileIndex)
			writeTile(mmu, addr.TileData0+uint16(tileIndex)*16, solidTile(byte((x+y)%4)))
		}
	}

	cases := []struct {
		name            string
		scrollX, scrollY byte
		screenX, screenY int
		wantTileX, wantTileY int
	}{
		{"no scroll", 0, 0, 0, 0, 0, 0},
		{"no scroll, second tile", 0, 0, 8, 8, 1, 1},
		{"scrollX=8", 8, 0, 0, 0, 1, 0},
		{"scrollY=8", 0, 8, 0, 0, 0, 1},
		{"wraps on X", 200, 0, 159, 0, 12, 0},
		{"wraps on Y", 0, 200, 0, 143, 0, 10},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mmu.Write(addr.SCX, c.scrollX)
			mmu.Write(addr.SCY, c.scrollY)
			gpu.line = c.screenY
			gpu.drawScanline()

			wantColor := uint32(ByteToColor(byte((c.wantTileX + c.wantTileY) % 4)))
			got := gpu.GetFrameBuffer().GetPixel(uint(c.screenX), uint(c.screenY))
			assert.Equal(t, wantColor, got, "expected tile (%d,%d)", c.wantTileX, c.wantTileY)
		})
	}
}

func TestDrawBackgroundUsesSelectedTileMap(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.BGP, defaultPalette)
	writeTile(mmu, addr.TileData0, solidTile(3))
	mmu.Write(addr.TileMap0, 0x00) // map 0 -> tile 0 (black)
	mmu.Write(addr.TileMap1, 0x01) // map 1 -> tile 1
	writeTile(mmu, addr.TileData0+16, solidTile(1))

	mmu.Write(addr.LCDC, 0x91) // map select bit 3 = 0 -> TileMap0
	gpu.line = 0
	gpu.drawScanline()
	assert.Equal(t, uint32(BlackColor), gpu.GetFrameBuffer().GetPixel(0, 0))

	mmu.Write(addr.LCDC, 0x99) // bit 3 set -> TileMap1
	gpu.line = 0
	gpu.drawScanline()
	assert.Equal(t, uint32(LightGreyColor), gpu.GetFrameBuffer().GetPixel(0, 0))
}

func TestDrawWindowOverridesBackgroundPastWX(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0xF1) // LCD, BG, window on; window map 9C00; unsigned tiles
	mmu.Write(addr.BGP, 0x1B) // inverted, to make BG vs window obvious

	writeTile(mmu, addr.TileData0, solidTile(0))    // BG tile: color 0 -> black under 0x1B
	writeTile(mmu, addr.TileData0+16, solidTile(3)) // window tile: color 3 -> white under 0x1B
	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(addr.TileMap0+i, 0x00)
		mmu.Write(addr.TileMap1+i, 0x01)
	}

	mmu.Write(addr.WX, 47) // window starts at screen X=40
	mmu.Write(addr.WY, 40)
	gpu.line = 40
	gpu.drawScanline()

	fb := gpu.GetFrameBuffer()
	assert.Equal(t, uint32(BlackColor), fb.GetPixel(30, 40), "left of WX still shows background")
	assert.Equal(t, uint32(WhiteColor), fb.GetPixel(50, 40), "past WX shows the window")
}

func TestDrawWindowDoesNothingBeforeWY(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0xF1)
	mmu.Write(addr.BGP, defaultPalette)
	writeTile(mmu, addr.TileData0, solidTile(0))
	writeTile(mmu, addr.TileData0+16, solidTile(3))
	for i := uint16(0); i < 32*32; i++ {
		mmu.Write(addr.TileMap0+i, 0x00)
		mmu.Write(addr.TileMap1+i, 0x01)
	}
	mmu.Write(addr.WX, 7)
	mmu.Write(addr.WY, 40)

	gpu.line = 10 // above WY, window shouldn't appear yet
	gpu.drawScanline()

	assert.Equal(t, uint32(WhiteColor), gpu.GetFrameBuffer().GetPixel(0, 10))
}
