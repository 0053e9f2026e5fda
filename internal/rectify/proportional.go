package rectify

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

// Proportional stretches the frame to the target size without any perspective
// correction. It is the fallback when no reference card is available.
type Proportional struct {
	target Target
}

// NewProportional returns a scale-only rectifier for target.
func NewProportional(target Target) *Proportional {
	return &Proportional{target: target}
}

// Calibrated always reports false.
func (p *Proportional) Calibrated() bool { return false }

// Rectify resizes frame to the target size with bilinear interpolation.
func (p *Proportional) Rectify(frame image.Image) *image.NRGBA {
	w, h := p.target.Size()
	return imaging.Resize(frame, w, h, imaging.Linear)
}

// Normalize divides plane coordinates by the target size. The frame size is not needed
// because the resize maps the frame onto the whole plane.
func (p *Proportional) Normalize(pts []geometry.Point, _, _ int) []geometry.Point {
	w, h := p.target.Size()
	out := make([]geometry.Point, len(pts))
	for i, pt := range pts {
		out[i] = geometry.Pt(pt.X/float64(w), pt.Y/float64(h)).Clamp01()
	}
	return out
}
