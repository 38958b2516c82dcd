package video

import (
	"fmt"
	"log/slog"

	"github.com/wrnrlr/dmgcore/core/addr"
	"github.com/wrnrlr/dmgcore/core/bit"
	"github.com/wrnrlr/dmgcore/core/memory"
)

// GpuMode represents the PPU's current rendering stage.
// These values match the STAT register bits 1-0.
type GpuMode int

const (
	// hblankMode (Mode 0): Horizontal blank period, CPU can access VRAM/OAM
	hblankMode GpuMode = 0
	// vblankMode (Mode 1): Vertical blank period, CPU can access VRAM/OAM
	vblankMode GpuMode = 1
	// oamReadMode (Mode 2): PPU is reading OAM, CPU cannot access OAM
	oamReadMode GpuMode = 2
	// vramReadMode (Mode 3): PPU is reading VRAM, CPU cannot access VRAM/OAM
	vramReadMode GpuMode = 3
)

// scanlineBudget is the cycle budget a scanline starts with; it counts down
// to 0 and is refilled, driving both the mode machine and LY advance.
const scanlineBudget = 456

type GPU struct {
	memory        *memory.MMU
	framebuffer   *FrameBuffer
	bgPixelBuffer []byte // stores background/window pixel colors for sprite priority
	oam           *OAM

	mode       GpuMode // current PPU mode (matches STAT bits 1-0)
	line       int     // current scanline (LY register, 0-153)
	budget     int     // cycles remaining in the current scanline
	windowLine int     // internal window line counter (0-143)
}

func NewGpu(memory *memory.MMU) *GPU {
	fb := NewFrameBuffer()
	gpu := &GPU{
		framebuffer:   fb,
		memory:        memory,
		oam:           NewOAM(memory),
		mode:          oamReadMode,
		bgPixelBuffer: make([]byte, FramebufferSize),
		budget:        scanlineBudget,
	}

	lcdc := memory.Read(0xFF40)
	bgp := memory.Read(0xFF47) // Background palette
	slog.Debug("GPU initialized", "LCDC", fmt.Sprintf("0x%02X", lcdc), "LCD_enabled", (lcdc&0x80) != 0, "BGP", fmt.Sprintf("0x%02X", bgp))

	return gpu
}

func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// modeForState derives the current LCD mode from the scanline budget and
// line, per the fixed windows a scanline's 456-cycle budget passes through.
func modeForState(budget, line int) GpuMode {
	if line >= 144 {
		return vblankMode
	}
	switch {
	case budget > 376:
		return oamReadMode
	case budget > 204:
		return vramReadMode
	default:
		return hblankMode
	}
}

// statIrqBitForMode reports the STAT enable bit that gates this mode's
// entry interrupt. Mode 3 (LCD transfer) has no such bit on real hardware.
func statIrqBitForMode(mode GpuMode) (statFlag, bool) {
	switch mode {
	case oamReadMode:
		return statOamIrq, true
	case vblankMode:
		return statVblankIrq, true
	case hblankMode:
		return statHblankIrq, true
	default:
		return 0, false
	}
}

// Tick advances the PPU's frame-independent mode machine by cycles, per
// the scanline-budget model: recompute mode and access gates, compare
// LY to LYC, then drain the budget and advance LY on exhaustion.
func (g *GPU) Tick(cycles int) {
	if g.readLCDCVariable(lcdDisplayEnable) != 1 {
		g.mode = vblankMode
		g.line = 0
		g.budget = scanlineBudget
		g.windowLine = 0
		g.memory.Write(addr.LY, 0)
		g.memory.SetAccessGates(true, true)
		return
	}

	newMode := modeForState(g.budget, g.line)
	if newMode != g.mode {
		g.mode = newMode
		stat := g.memory.Read(addr.STAT)
		stat = stat&0xFC | byte(newMode)
		g.memory.Write(addr.STAT, stat)
		if irqBit, ok := statIrqBitForMode(newMode); ok && bit.IsSet(uint8(irqBit), stat) {
			g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	}
	g.memory.SetAccessGates(newMode != vramReadMode, newMode != oamReadMode && newMode != vramReadMode)
	g.compareLYToLYC()

	g.budget -= cycles
	if g.budget <= 0 {
		g.budget += scanlineBudget
		g.line++

		switch {
		case g.line == 144:
			g.memory.RequestInterrupt(addr.VBlankInterrupt)
		case g.line > 153:
			g.line = 0
			g.windowLine = 0
		case g.line < 144:
			g.drawScanline()
		}
		g.memory.Write(addr.LY, byte(g.line))
		g.compareLYToLYC()
	}
}

func (g *GPU) drawScanline() {
	lcdEnabled := g.readLCDCVariable(lcdDisplayEnable) == 1

	if !lcdEnabled {
		// Clear the current line when LCD is disabled
		lineWidth := g.line * FramebufferWidth
		for i := 0; i < FramebufferWidth; i++ {
			g.framebuffer.buffer[lineWidth+i] = uint32(WhiteColor)
		}
		return
	}

	// Draw all layers in correct order: Background -> Window -> Sprites
	g.drawBackground()
	g.drawWindow()
	g.drawSprites()
}

func (g *GPU) drawBackground() {
	lineWidth := g.line * FramebufferWidth
	backgroundEnabled := g.readLCDCVariable(bgDisplay) == 1

	if !backgroundEnabled {
		// when background is disabled, display color 0 from BGP palette
		palette := g.memory.Read(addr.BGP)
		color0 := palette & 0x03 // extract bits 1:0 for color index 0
		displayColor := uint32(ByteToColor(color0))

		for i := range FramebufferWidth {
			g.framebuffer.buffer[lineWidth+i] = displayColor
			g.bgPixelBuffer[lineWidth+i] = 0 // background is disabled, so BG priority is 0
		}
		return
	}

	useSignedTileSet := g.readLCDCVariable(bgWindowTileDataSelect) == 0
	useTileMapZero := g.readLCDCVariable(bgTileMapDisplaySelect) == 0

	tilesAddr := addr.TileData0 // unsigned mode
	if useSignedTileSet {
		tilesAddr = addr.TileData2 // signed mode
	}

	tileMapAddr := addr.TileMap1
	if useTileMapZero {
		tileMapAddr = addr.TileMap0
	}

	scrollX := g.memory.Read(addr.SCX)
	scrollY := g.memory.Read(addr.SCY)
	lineScrolled := (g.line + int(scrollY)) & 0xFF // Y coordinate wraps at 256
	mapRow := (lineScrolled / 8) * 32
	tileRowIndex := lineScrolled % 8

	palette := g.memory.Read(addr.BGP)

	var row TileRow
	lastMapTileX := -1
	for screenPixelX := 0; screenPixelX < FramebufferWidth; screenPixelX++ {
		mapPixelX := (screenPixelX + int(scrollX)) & 0xFF
		mapTileX := mapPixelX / 8
		mapTileXOffset := mapPixelX % 8

		if mapTileX != lastMapTileX {
			tileValue := g.memory.Read(tileMapAddr + uint16(mapRow+mapTileX))
			tileBase := TileAddress(tilesAddr, useSignedTileSet, tileValue)
			row = FetchTileRow(g.memory, tileBase, tileRowIndex)
			lastMapTileX = mapTileX
		}

		pixel := row.GetPixel(mapTileXOffset)
		color := (palette >> (pixel * 2)) & 0x03
		pixelPosition := lineWidth + screenPixelX

		g.framebuffer.buffer[pixelPosition] = uint32(ByteToColor(color))
		g.bgPixelBuffer[pixelPosition] = byte(pixel) // raw color index (0-3), for sprite BG-priority checks
	}
}

func (g *GPU) drawWindow() {
	if g.windowLine > 143 {
		return
	}

	windowEnabled := g.readLCDCVariable(windowDisplayEnable) == 1
	if !windowEnabled {
		return
	}

	wx := g.memory.Read(addr.WX) - 7
	wy := g.memory.Read(addr.WY)

	if wx > 159 {
		return
	}

	if wy > 143 || int(wy) > g.line {
		return
	}

	// Debug window rendering
	if g.line < 5 { // Only log first few lines to avoid spam
		slog.Debug("Window rendering", "line", g.line, "windowLine", g.windowLine, "wx", wx, "wy", wy)
	}

	useSignedTileSet := g.readLCDCVariable(bgWindowTileDataSelect) == 0
	useTileMapZero := g.readLCDCVariable(windowTileMapSelect) == 0

	tilesAddr := addr.TileData0 // unsigned mode
	if useSignedTileSet {
		tilesAddr = addr.TileData2 // signed mode
	}

	tileMapAddr := addr.TileMap1
	if useTileMapZero {
		tileMapAddr = addr.TileMap0
	}

	mapRow := (g.windowLine / 8) * 32
	tileRowIndex := g.windowLine & 7
	lineWidth := g.line * FramebufferWidth

	endTileX := (FramebufferWidth - int(wx) + 7) / 8 // tiles needed to cover the rest of the screen
	if endTileX > 32 {
		endTileX = 32
	}

	palette := g.memory.Read(addr.BGP)

	for x := 0; x < endTileX; x++ {
		tileValue := g.memory.Read(tileMapAddr + uint16(mapRow+x))
		tileBase := TileAddress(tilesAddr, useSignedTileSet, tileValue)
		row := FetchTileRow(g.memory, tileBase, tileRowIndex)
		xOffset := x * 8

		for pixelX := 0; pixelX < 8; pixelX++ {
			bufferX := xOffset + pixelX + int(wx)
			if bufferX < int(wx) || bufferX >= FramebufferWidth {
				continue
			}

			position := lineWidth + bufferX
			if position >= len(g.framebuffer.buffer) {
				continue
			}

			pixel := row.GetPixel(pixelX)
			color := (palette >> (pixel * 2)) & 0x03
			g.framebuffer.buffer[position] = uint32(ByteToColor(color))
			g.bgPixelBuffer[position] = byte(pixel)
		}
	}
	g.windowLine++
}

func (g *GPU) drawSprites() {
	if g.readLCDCVariable(spriteDisplayEnable) != 1 {
		return
	}

	lineWidth := g.line * FramebufferWidth
	sprites := g.oam.GetSpritesForScanline(g.line)

	for _, sprite := range sprites {
		if !sprite.HasPriorityForAnyPixel() {
			continue // lost every pixel to a higher-priority sprite
		}

		objPaletteAddr := addr.OBP0
		if sprite.PaletteOBP1 {
			objPaletteAddr = addr.OBP1
		}
		palette := g.memory.Read(objPaletteAddr)

		row := g.spriteTileRow(sprite)

		for pixelX := 0; pixelX < 8; pixelX++ {
			if !sprite.HasPriorityForPixel(pixelX) {
				continue
			}

			var pixel int
			if sprite.FlipX {
				pixel = row.GetPixelFlipped(pixelX)
			} else {
				pixel = row.GetPixel(pixelX)
			}
			if pixel == 0 {
				continue // color 0 is always transparent for sprites
			}

			position := lineWidth + int(sprite.X) + pixelX
			if sprite.BehindBG && g.bgPixelBuffer[position] != 0 {
				continue // sprite is behind non-transparent background
			}

			color := (palette >> (pixel * 2)) & 0x03
			g.framebuffer.buffer[position] = uint32(ByteToColor(color))
		}
	}
}

// spriteTileRow fetches the tile row visible on the current scanline for
// sprite, accounting for vertical flip and 8x16 mode's two stacked tiles
// (the low bit of the tile index is ignored in 8x16 mode; the top tile is
// tileIndex&0xFE, the bottom tileIndex|0x01).
func (g *GPU) spriteTileRow(sprite Sprite) TileRow {
	lineInSprite := g.line - int(sprite.Y)
	if sprite.FlipY {
		lineInSprite = sprite.Height - 1 - lineInSprite
	}

	tileIndex := int(sprite.TileIndex)
	row := lineInSprite
	if sprite.Height == 16 {
		tileIndex &^= 1
		if lineInSprite >= 8 {
			tileIndex |= 1
			row -= 8
		}
	}

	// sprites always use unsigned tile addressing from 0x8000
	return FetchTileRow(g.memory, addr.TileData0+uint16(tileIndex)*16, row)
}

// LCD Stat (Status) Register bit values
// Bit 7 - unused
// Bit 6 - Interrupt based on LYC to LY comparison (based on bit 2)
// Bit 5 - Interrupt when Mode 10 (oamReadMode)
// Bit 4 - Interrupt when Mode 01 (vblankMode)
// Bit 3 - Interrupt when Mode 00 (hblankMode)
// Bit 2 - condition for triggering LYC/LY (0=LYC != LY, 1=LYC == LY)
// Bit 1,0 - represents the current GPU mode
//   - 00 -> hblankMode
//   - 01 -> vblankMode
//   - 10 -> oamReadMode
//   - 11 -> vramReadMode
type statFlag uint8

const (
	statLycIrq       statFlag = 6
	statOamIrq                = 5
	statVblankIrq             = 4
	statHblankIrq             = 3
	statLycCondition          = 2
	statModeHigh              = 1
	statModeLow               = 0
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect             = 6
	windowDisplayEnable             = 5
	bgWindowTileDataSelect          = 4
	bgTileMapDisplaySelect          = 3
	spriteSize                      = 2
	spriteDisplayEnable             = 1
	bgDisplay                       = 0
)

func (g *GPU) readLCDCVariable(flag lcdcFlag) byte {
	if bit.IsSet(uint8(flag), g.memory.Read(addr.LCDC)) {
		return 1
	}

	return 0
}

func (g *GPU) compareLYToLYC() {
	ly := g.memory.Read(addr.LY)
	lyc := g.memory.Read(addr.LYC)
	stat := g.memory.Read(addr.STAT)

	if ly == lyc {
		stat = bit.Set(statLycCondition, stat)
		if bit.IsSet(uint8(statLycIrq), stat) {
			g.memory.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat = bit.Reset(statLycCondition, stat)
	}

	g.memory.Write(addr.STAT, stat)
}

