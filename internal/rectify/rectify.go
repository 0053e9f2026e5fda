package rectify

import (
	"image"
	"math"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

// Target is the metric plane a frame is rectified onto.
type Target struct {
	PxPerMM  float64 `json:"px_per_mm"`
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

// CardTarget returns a 10 px/mm plane the size of an ID-1 card (85.6 x 53.98 mm).
func CardTarget() Target {
	return Target{PxPerMM: 10, WidthMM: 85.6, HeightMM: 53.98}
}

// Size returns the target dimensions in pixels, rounded to the nearest pixel.
func (t Target) Size() (w, h int) {
	return int(math.Round(t.WidthMM * t.PxPerMM)), int(math.Round(t.HeightMM * t.PxPerMM))
}

// ToMM converts a length in target pixels to millimetres.
func (t Target) ToMM(px float64) float64 {
	if t.PxPerMM == 0 {
		return 0
	}
	return px / t.PxPerMM
}

// Rectifier turns a frame into the target plane and maps target-plane points back to
// normalised frame coordinates.
type Rectifier interface {
	// Rectify returns the frame resampled onto the target plane.
	Rectify(frame image.Image) *image.NRGBA

	// Normalize maps target-plane pixel coordinates into [0,1] coordinates of a
	// frameW x frameH frame. Results are clamped to [0,1].
	Normalize(pts []geometry.Point, frameW, frameH int) []geometry.Point

	// Calibrated reports whether the mapping is a true perspective correction.
	Calibrated() bool
}

// New returns a Perspective rectifier for corners when they are present and usable,
// and a Proportional one otherwise.
func New(corners geometry.CornerSet, ok bool, target Target) Rectifier {
	if ok {
		if p, err := NewPerspective(corners, target); err == nil {
			return p
		}
	}
	return NewProportional(target)
}
