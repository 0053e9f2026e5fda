package rectify

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

// Perspective rectifies through the homography that sends the card corners to the
// corners of the target plane.
type Perspective struct {
	target  Target
	corners geometry.CornerSet
	forward geometry.Homography
	inverse geometry.Homography
}

// NewPerspective builds the homography taking corners (TL, TR, BR, BL) to
// (0,0), (w-1,0), (w-1,h-1), (0,h-1) of the target plane, together with its inverse.
// It fails with geometry.ErrSingular when the corners are degenerate.
func NewPerspective(corners geometry.CornerSet, target Target) (*Perspective, error) {
	w, h := target.Size()
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("target too small: %dx%d", w, h)
	}
	dst := [4]geometry.Point{
		geometry.Pt(0, 0),
		geometry.Pt(float64(w-1), 0),
		geometry.Pt(float64(w-1), float64(h-1)),
		geometry.Pt(0, float64(h-1)),
	}

	forward, err := geometry.ComputeHomography(corners.Points(), dst)
	if err != nil {
		return nil, fmt.Errorf("failed to compute homography: %w", err)
	}
	inverse, err := forward.Inverse()
	if err != nil {
		return nil, fmt.Errorf("failed to invert homography: %w", err)
	}

	return &Perspective{target: target, corners: corners, forward: forward, inverse: inverse}, nil
}

// Calibrated always reports true.
func (p *Perspective) Calibrated() bool { return true }

// Forward returns the frame-to-plane homography.
func (p *Perspective) Forward() geometry.Homography { return p.forward }

// Inverse returns the plane-to-frame homography.
func (p *Perspective) Inverse() geometry.Homography { return p.inverse }

// Corners returns the card corners the rectifier was built from.
func (p *Perspective) Corners() geometry.CornerSet { return p.corners }

// Rectify warps the whole frame onto the target plane. Each output pixel is sampled
// bilinearly at its inverse-mapped position; samples falling outside the frame are
// black.
func (p *Perspective) Rectify(frame image.Image) *image.NRGBA {
	src := imaging.Clone(frame)
	w, h := p.target.Size()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*out.Stride + 4*x
			out.Pix[i+3] = 255
			s, ok := p.inverse.Apply(geometry.Pt(float64(x), float64(y)))
			if !ok {
				continue
			}
			sampleBilinear(src, s.X, s.Y, out.Pix[i:i+3])
		}
	}
	return out
}

// Normalize maps plane points back through the inverse homography and divides by the
// frame size. A point that maps to infinity falls back to its proportional position.
func (p *Perspective) Normalize(pts []geometry.Point, frameW, frameH int) []geometry.Point {
	tw, th := p.target.Size()
	out := make([]geometry.Point, len(pts))
	for i, pt := range pts {
		src, ok := p.inverse.Apply(pt)
		if !ok || frameW <= 0 || frameH <= 0 {
			out[i] = geometry.Pt(pt.X/float64(tw), pt.Y/float64(th)).Clamp01()
			continue
		}
		out[i] = geometry.Pt(src.X/float64(frameW), src.Y/float64(frameH)).Clamp01()
	}
	return out
}

// sampleBilinear writes the RGB value of src at (x, y) into dst, treating pixels
// outside the image as black.
func sampleBilinear(src *image.NRGBA, x, y float64, dst []uint8) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if x <= -1 || y <= -1 || x >= float64(w) || y >= float64(h) {
		return
	}
	x0f, y0f := math.Floor(x), math.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := int(x0f), int(y0f)

	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	offsets := [4][2]int{{x0, y0}, {x0 + 1, y0}, {x0, y0 + 1}, {x0 + 1, y0 + 1}}

	var acc [3]float64
	for k, o := range offsets {
		if o[0] < 0 || o[1] < 0 || o[0] >= w || o[1] >= h || weights[k] == 0 {
			continue
		}
		j := o[1]*src.Stride + 4*o[0]
		for c := 0; c < 3; c++ {
			acc[c] += weights[k] * float64(src.Pix[j+c])
		}
	}
	for c := 0; c < 3; c++ {
		dst[c] = uint8(math.Min(255, math.Round(acc[c])))
	}
}
