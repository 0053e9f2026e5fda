package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows the bright regions of g by a square structuring element of side
// 2*radius+1. A radius of 1 is a single 3x3 dilation pass.
func Dilate(g *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return ToGray(g)
	}
	return ToGray(effect.Dilate(g, float64(radius)))
}
