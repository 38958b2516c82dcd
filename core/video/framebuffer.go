package video

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// GBColor is one of the four DMG shades, packed as 24-bit RGB (see
// ByteToColor for the mapping from a 2-bit palette index).
type GBColor uint32

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

// The fixed 4-entry grayscale palette, packed as 24-bit RGB (no alpha byte):
// shade 0 is the lightest (white), shade 3 the darkest (black).
const (
	WhiteColor     GBColor = 0xFFFFFF
	LightGreyColor GBColor = 0xCCCCCC
	DarkGreyColor  GBColor = 0x777777
	BlackColor     GBColor = 0x000000
)

var shadePalette = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// ByteToColor maps a 2-bit palette index (0-3) to its packed RGB shade.
func ByteToColor(value byte) GBColor {
	if int(value) >= len(shadePalette) {
		return BlackColor
	}
	return shadePalette[value]
}

// ToColorful converts a shade to a go-colorful Color. None of the bundled
// backends calls it: the terminal backend maps shades to tcell colors and
// the SDL2 backend copies the packed RGB values.
func (c GBColor) ToColorful() colorful.Color {
	r := float64((uint32(c)>>16)&0xFF) / 255
	g := float64((uint32(c)>>8)&0xFF) / 255
	b := float64(uint32(c)&0xFF) / 255
	return colorful.Color{R: r, G: g, B: b}
}

// FrameBuffer holds one rendered frame as packed 24-bit RGB pixels, indexed
// row-major (y*width + x).
type FrameBuffer struct {
	width  uint
	height uint
	buffer []uint32
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferSize),
	}
}

func (fb FrameBuffer) GetPixel(x, y uint) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y uint, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// Clear resets the framebuffer to black.
func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(BlackColor)
	}
}

func (fb *FrameBuffer) DrawNoise() {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(shadePalette[rand.Intn(4)])
	}
}

// ToBinaryData returns the framebuffer as packed 24-bit RGB triplets
// (3 bytes per pixel), matching the external framebuffer export format.
func (fb *FrameBuffer) ToBinaryData() []byte {
	data := make([]byte, len(fb.buffer)*3)
	for i, pixel := range fb.buffer {
		data[i*3] = byte(pixel >> 16)   // R
		data[i*3+1] = byte(pixel >> 8)  // G
		data[i*3+2] = byte(pixel)       // B
	}
	return data
}

// ToGrayscale converts the framebuffer to 2-bit shade indices for simpler
// comparison in tests.
func (fb *FrameBuffer) ToGrayscale() []byte {
	data := make([]byte, len(fb.buffer))
	for i, pixel := range fb.buffer {
		switch GBColor(pixel) {
		case WhiteColor:
			data[i] = 0
		case LightGreyColor:
			data[i] = 1
		case DarkGreyColor:
			data[i] = 2
		case BlackColor:
			data[i] = 3
		default:
			data[i] = 0
		}
	}
	return data
}
