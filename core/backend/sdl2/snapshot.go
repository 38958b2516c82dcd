package sdl2

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/wrnrlr/dmgcore/core/video"
)

// savePNG encodes a framebuffer as a PNG file at path.
func savePNG(frame *video.FrameBuffer, path string) error {
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
