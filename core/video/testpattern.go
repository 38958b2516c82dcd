package video

// Synthetic frames used by backends to exercise rendering and scaling code
// paths without a cartridge loaded.

const (
	TestPatternCount           = 4
	TestPatternTileSize        = 8
	TestPatternStripeWidth     = 4
	TestPatternStripeSpeed     = 1
	TestPatternDiagonalSpeed   = 1
	TestPatternAnimationFrames = 10
)

var TestPatternNames = [TestPatternCount]string{"Checkerboard", "Gradient", "Stripes", "Diagonal"}

// GenerateTestPattern fills fb with one of the four built-in patterns.
func GenerateTestPattern(fb *FrameBuffer, patternType int) {
	switch patternType % TestPatternCount {
	case 0: // Checkerboard
		for y := 0; y < FramebufferHeight; y++ {
			for x := 0; x < FramebufferWidth; x++ {
				color := WhiteColor
				if ((x/TestPatternTileSize)+(y/TestPatternTileSize))%2 != 0 {
					color = BlackColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	case 1: // Gradient (banded across the 4 available shades)
		for y := 0; y < FramebufferHeight; y++ {
			for x := 0; x < FramebufferWidth; x++ {
				band := x * 4 / FramebufferWidth
				var color GBColor
				switch band {
				case 0:
					color = BlackColor
				case 1:
					color = DarkGreyColor
				case 2:
					color = LightGreyColor
				default:
					color = WhiteColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	case 2: // Vertical stripes
		for y := 0; y < FramebufferHeight; y++ {
			for x := 0; x < FramebufferWidth; x++ {
				color := WhiteColor
				if (x/TestPatternStripeWidth)%2 != 0 {
					color = DarkGreyColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	case 3: // Diagonal lines
		for y := 0; y < FramebufferHeight; y++ {
			for x := 0; x < FramebufferWidth; x++ {
				color := LightGreyColor
				if ((x+y)/TestPatternTileSize)%2 != 0 {
					color = DarkGreyColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	}
}

// AnimateTestPattern advances the stripe/diagonal patterns by frame ticks;
// checkerboard and gradient are static.
func AnimateTestPattern(fb *FrameBuffer, patternType, frame int) {
	switch patternType % TestPatternCount {
	case 2:
		for y := 0; y < FramebufferHeight; y++ {
			for x := 0; x < FramebufferWidth; x++ {
				color := WhiteColor
				if ((x+frame*TestPatternStripeSpeed)/TestPatternStripeWidth)%2 != 0 {
					color = DarkGreyColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	case 3:
		for y := 0; y < FramebufferHeight; y++ {
			for x := 0; x < FramebufferWidth; x++ {
				color := LightGreyColor
				if ((x+y+frame*TestPatternDiagonalSpeed)/TestPatternTileSize)%2 != 0 {
					color = DarkGreyColor
				}
				fb.SetPixel(uint(x), uint(y), color)
			}
		}
	}
}
