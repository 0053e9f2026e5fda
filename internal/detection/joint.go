package detection

import (
	"image"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/ironsheep/gasket-measure-mcp/internal/imaging"
)

// JointConfig controls joint outline extraction on the rectified frame.
type JointConfig struct {
	Edges           imaging.EdgeConfig `json:"edges"`
	DilateRadius    int                `json:"dilate_radius"`     // 1 gives a single 3x3 dilation
	MinAreaFraction float64            `json:"min_area_fraction"` // contours smaller than this share of the frame are noise
	ApproxFraction  float64            `json:"approx_fraction"`   // polygon tolerance as a fraction of the perimeter
}

// DefaultJointConfig returns the standard joint extraction settings.
func DefaultJointConfig() JointConfig {
	return JointConfig{
		Edges:           imaging.JointEdgeConfig(),
		DilateRadius:    1,
		MinAreaFraction: 0.01,
		ApproxFraction:  0.01,
	}
}

// JointResult is the joint outline found on the rectified frame, in its pixels.
type JointResult struct {
	Contour  geometry.Contour     `json:"contour"`
	Rect     geometry.RotatedRect `json:"rect"`
	WidthPx  float64              `json:"width_px"`
	HeightPx float64              `json:"height_px"`
	Fallback bool                 `json:"fallback"`
}

// ExtractJoint finds the dominant outline in an enhanced, rectified frame.
//
// Edges are closed with a dilation before tracing, contours below MinAreaFraction of
// the frame are dropped, and the largest remaining one is simplified to a polygon.
// Its size comes from the minimum-area rectangle of the full contour, so a tilted joint
// is not overestimated: WidthPx is the longer side, HeightPx the shorter.
//
// When nothing survives, the frame rectangle itself is returned with Fallback set, so
// the contour is never empty.
func ExtractJoint(enhanced *image.Gray, cfg JointConfig) JointResult {
	b := enhanced.Bounds()
	w, h := b.Dx(), b.Dy()
	minArea := cfg.MinAreaFraction * float64(w*h)

	edges := imaging.Dilate(imaging.DetectEdges(enhanced, cfg.Edges), cfg.DilateRadius)

	var largest geometry.Contour
	largestArea := -1.0
	for _, c := range FindExternalContours(edges) {
		area := geometry.Area(c)
		if area < minArea {
			continue
		}
		if area > largestArea {
			largest, largestArea = c, area
		}
	}

	if largest == nil {
		return frameFallback(w, h)
	}

	rect := geometry.MinAreaRect(largest)
	long, short := rect.Sides()
	return JointResult{
		Contour:  geometry.ApproxPolygon(largest, cfg.ApproxFraction*geometry.ArcLength(largest, true)),
		Rect:     rect,
		WidthPx:  long,
		HeightPx: short,
	}
}

func frameFallback(w, h int) JointResult {
	fw, fh := float64(w), float64(h)
	return JointResult{
		Contour: geometry.Contour{
			geometry.Pt(0, 0), geometry.Pt(fw, 0), geometry.Pt(fw, fh), geometry.Pt(0, fh),
		},
		Rect:     geometry.RotatedRect{Center: geometry.Pt(fw/2, fh/2), Width: fw, Height: fh},
		WidthPx:  fw,
		HeightPx: fh,
		Fallback: true,
	}
}
