package render

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/wrnrlr/dmgcore/core/video"
)

// SharedRenderUtils contains common rendering utilities for both terminal and snapshot rendering

// SaveFramePNG encodes a framebuffer as a PNG file at path.
func SaveFramePNG(frame *video.FrameBuffer, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	for y := 0; y < video.FramebufferHeight; y++ {
		for x := 0; x < video.FramebufferWidth; x++ {
			pixel := frame.GetPixel(uint(x), uint(y))
			img.Set(x, y, color.RGBA{
				R: byte(pixel >> 16),
				G: byte(pixel >> 8),
				B: byte(pixel),
				A: 0xFF,
			})
		}
	}

	return png.Encode(file, img)
}

// PixelToShade converts a pixel value to a shade level (0-3)
func PixelToShade(pixel uint32) int {
	switch pixel {
	case 0x000000:
		return 0 // Black
	case 0x777777:
		return 1 // Dark gray
	case 0xCCCCCC:
		return 2 // Light gray
	case 0xFFFFFF:
		return 3 // White
	default:
		return 0
	}
}

// GetHalfBlockChar returns the appropriate half-block character for two shades
func GetHalfBlockChar(topShade, bottomShade int) rune {
	if topShade == bottomShade {
		// Both pixels same shade - use full block
		return '█'
	} else if topShade == 3 && bottomShade != 3 {
		// Top white, bottom not - use lower half block
		return '▄'
	} else if topShade != 3 && bottomShade == 3 {
		// Top not white, bottom white - use upper half block
		return '▀'
	} else {
		// Mixed shades - use upper half block with appropriate colors
		return '▀'
	}
}
