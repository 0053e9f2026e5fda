package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// NormalizeResolution downsamples img so its width does not exceed maxWidth.
//
// The resize uses an area-weighted box filter and keeps the aspect ratio. The returned
// scale is newWidth/originalWidth, or 1 when the image is returned unchanged (already
// narrow enough, or maxWidth <= 0).
func NormalizeResolution(img image.Image, maxWidth int) (image.Image, float64) {
	w := img.Bounds().Dx()
	if maxWidth <= 0 || w <= maxWidth {
		return img, 1.0
	}
	scale := float64(maxWidth) / float64(w)
	h := int(float64(img.Bounds().Dy()) * scale)
	if h < 1 {
		h = 1
	}
	return imaging.Resize(img, maxWidth, h, imaging.Box), scale
}
