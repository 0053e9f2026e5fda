package detection

import (
	"image"
	"math"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/ironsheep/gasket-measure-mcp/internal/imaging"
)

// Reference card physical size (ISO/IEC 7810 ID-1) in millimetres.
const (
	CardWidthMM  = 85.6
	CardHeightMM = 53.98
)

// CardConfig controls reference card detection.
type CardConfig struct {
	// Edges configures the adaptive edge map the contours are traced on.
	Edges imaging.EdgeConfig `json:"edges"`

	// ApproxFraction is the polygon approximation tolerance as a fraction of the
	// contour perimeter.
	ApproxFraction float64 `json:"approx_fraction"`

	// MinAreaFraction rejects quadrilaterals covering less of the frame than this.
	MinAreaFraction float64 `json:"min_area_fraction"`

	// AspectRatio is the expected long/short side ratio of the card and
	// RatioTolerance the accepted absolute deviation from it. The tolerance is loose
	// on purpose so perspective-foreshortened cards still pass; squarish objects of
	// the right size can pass too.
	AspectRatio    float64 `json:"aspect_ratio"`
	RatioTolerance float64 `json:"ratio_tolerance"`

	// ConfidenceGain scales area/frameArea into the reported confidence, capped at 1.
	ConfidenceGain float64 `json:"confidence_gain"`
}

// DefaultCardConfig returns the standard bank-card detection settings.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Edges:           imaging.CardEdgeConfig(),
		ApproxFraction:  0.02,
		MinAreaFraction: 0.04,
		AspectRatio:     CardWidthMM / CardHeightMM,
		RatioTolerance:  0.35,
		ConfidenceGain:  10,
	}
}

// CardResult is the outcome of a card search. A missing card is a normal result, not
// an error.
type CardResult struct {
	Detected   bool          `json:"card_detected"`
	Confidence float64       `json:"confidence"`
	Quad       geometry.Quad `json:"quad"`
	Candidates int           `json:"candidates"`
}

// Corners returns the detected quadrilateral and whether there was one.
func (r CardResult) Corners() (geometry.Quad, bool) {
	return r.Quad, r.Detected
}

// LocateCard looks for the quadrilateral in gray that best resembles a bank card.
//
// Every external contour of the adaptive edge map is approximated to a polygon; only
// four-vertex polygons that are large enough and whose bounding box ratio (taken as
// max(r, 1/r)) is close to the card ratio survive. The largest survivor wins.
// Candidates counts the four-vertex polygons that were examined.
func LocateCard(gray *image.Gray, cfg CardConfig) CardResult {
	b := gray.Bounds()
	frameArea := float64(b.Dx() * b.Dy())
	if frameArea == 0 {
		return CardResult{}
	}

	edges := imaging.DetectEdges(gray, cfg.Edges)

	var best CardResult
	bestArea := 0.0
	for _, c := range FindExternalContours(edges) {
		approx := geometry.ApproxPolygon(c, cfg.ApproxFraction*geometry.ArcLength(c, true))
		if len(approx) != 4 {
			continue
		}
		best.Candidates++

		area := geometry.Area(approx)
		if area < cfg.MinAreaFraction*frameArea {
			continue
		}

		bounds := geometry.BoundingRect(approx)
		if bounds.H == 0 {
			continue
		}
		if math.Abs(bounds.AspectRatio()-cfg.AspectRatio) > cfg.RatioTolerance {
			continue
		}

		if area > bestArea {
			bestArea = area
			best.Detected = true
			best.Quad = geometry.NewQuad([4]geometry.Point{approx[0], approx[1], approx[2], approx[3]})
			best.Confidence = math.Min(area/frameArea*cfg.ConfidenceGain, 1)
		}
	}
	return best
}
