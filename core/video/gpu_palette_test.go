package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wrnrlr/dmgcore/core/addr"
	"github.com/wrnrlr/dmgcore/core/memory"
)

func TestDrawBackgroundAppliesBGPPerColorIndex(t *testing.T) {
	cases := []struct {
		name  string
		bgp   byte
		color byte
		want  GBColor
	}{
		{"default palette, color 0", 0xE4, 0, WhiteColor},
		{"default palette, color 1", 0xE4, 1, LightGreyColor},
		{"default palette, color 2", 0xE4, 2, DarkGreyColor},
		{"default palette, color 3", 0xE4, 3, BlackColor},
		{"inverted palette, color 0", 0x1B, 0, BlackColor},
		{"inverted palette, color 3", 0x1B, 3, WhiteColor},
		{"all-black palette, every color", 0xFF, 2, BlackColor},
		{"all-white palette, every color", 0x00, 2, WhiteColor},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mmu := memory.New()
			gpu := NewGpu(mmu)
			mmu.Write(addr.LCDC, 0x91)
			mmu.Write(addr.BGP, c.bgp)
			writeTile(mmu, addr.TileData0, solidTile(c.color))
			mmu.Write(addr.TileMap0, 0x00)

			gpu.line = 0
			gpu.drawScanline()

			assert.Equal(t, uint32(c.want), gpu.GetFrameBuffer().GetPixel(0, 0))
		})
	}
}

func TestBGPChangeOnlyAffectsLinesDrawnAfterIt(t *testing.T) {
	mmu := memory.New()
	gpu := NewGpu(mmu)
	mmu.Write(addr.LCDC, 0x91)
	writeTile(mmu, addr.TileData0, solidTile(2))
	mmu.Write(addr.TileMap0, 0x00)

	mmu.Write(addr.BGP, 0xE4)
	gpu.line = 0
	gpu.drawScanline()
	assert.Equal(t, uint32(DarkGreyColor), gpu.GetFrameBuffer().GetPixel(0, 0))

	mmu.Write(addr.BGP, 0x1B)
	gpu.line = 1
	gpu.drawScanline()
	assert.Equal(t, uint32(LightGreyColor), gpu.GetFrameBuffer().GetPixel(0, 1))

	assert.Equal(t, uint32(DarkGreyColor), gpu.GetFrameBuffer().GetPixel(0, 0),
		"a previously drawn line isn't retroactively repainted")
}
