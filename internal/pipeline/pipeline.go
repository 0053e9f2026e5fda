package pipeline

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/gasket-measure-mcp/internal/detection"
	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/ironsheep/gasket-measure-mcp/internal/imaging"
	"github.com/ironsheep/gasket-measure-mcp/internal/rectify"
)

// ErrDecode is returned when the input bytes are not an image.
var ErrDecode = imaging.ErrDecode

// Detection is the result of a card presence check.
type Detection struct {
	Detected   bool    `json:"card_detected"`
	Confidence float64 `json:"confidence"`
}

// Dimensions are the joint's long and short sides in millimetres.
type Dimensions struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
}

// Result is the outcome of Process.
type Result struct {
	// ContourPoints is the joint outline in [0,1] coordinates of the
	// resolution-normalised frame. It is never empty.
	ContourPoints []geometry.Point `json:"contour_points"`

	Dimensions Dimensions `json:"dimensions"`

	// CalibrationWarning is set when no card was found and the millimetre values come
	// from a proportional resize instead of a perspective correction.
	CalibrationWarning bool `json:"calibration_warning"`

	// ProcessingScale is the downsampling factor applied before detection (1 when the
	// photograph was narrow enough).
	ProcessingScale float64 `json:"processing_scale"`
}

// Pipeline runs the measurement stages with a fixed configuration.
type Pipeline struct {
	cfg Config
}

// New returns a Pipeline using cfg.
func New(cfg Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// DetectCard reports whether a bank card is visible in the photograph.
//
// It never fails: undecodable input is reported as no card with zero confidence.
// Confidence is an area-based hint for user feedback, rounded to three decimals.
func (p *Pipeline) DetectCard(data []byte) Detection {
	img, err := imaging.Decode(data)
	if err != nil {
		return Detection{}
	}
	frame, _ := imaging.NormalizeResolution(img, p.cfg.MaxWidth)
	card := detection.LocateCard(imaging.ToGray(frame), p.cfg.Card)
	return Detection{
		Detected:   card.Detected,
		Confidence: round(card.Confidence, 3),
	}
}

// Process measures the joint in the photograph.
//
// The only error is one wrapping ErrDecode. A missing card or joint is reported
// through CalibrationWarning and the full-frame fallback outline.
func (p *Pipeline) Process(data []byte) (*Result, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	frame, scale := imaging.NormalizeResolution(img, p.cfg.MaxWidth)
	fb := frame.Bounds()

	r := p.rectifier(frame)

	rectified := r.Rectify(frame)
	enhanced := imaging.CLAHE(imaging.ToGray(rectified), p.cfg.CLAHE)
	joint := detection.ExtractJoint(enhanced, p.cfg.Joint)

	points := r.Normalize(joint.Contour, fb.Dx(), fb.Dy())
	if len(points) == 0 {
		points = []geometry.Point{geometry.Pt(0, 0), geometry.Pt(1, 0), geometry.Pt(1, 1), geometry.Pt(0, 1)}
	}

	return &Result{
		ContourPoints: points,
		Dimensions: Dimensions{
			WidthMM:  round(p.cfg.Target.ToMM(joint.WidthPx), 1),
			HeightMM: round(p.cfg.Target.ToMM(joint.HeightPx), 1),
		},
		CalibrationWarning: !r.Calibrated(),
		ProcessingScale:    scale,
	}, nil
}

// rectifier picks the perspective rectifier when a card is found and its corners give
// a usable homography, and the proportional one otherwise.
func (p *Pipeline) rectifier(frame image.Image) rectify.Rectifier {
	gray := imaging.ToGray(frame)
	card := detection.LocateCard(gray, p.cfg.Card)
	quad, ok := card.Corners()

	var corners geometry.CornerSet
	if ok {
		refined := detection.RefineCorners(gray, quad.Points[:], p.cfg.SubPix)
		corners = geometry.OrderCorners([4]geometry.Point{refined[0], refined[1], refined[2], refined[3]})
	}
	return rectify.New(corners, ok, p.cfg.Target)
}

// RenderOverlay draws the closed outline given by normalised points onto the
// photograph and returns it as PNG.
func (p *Pipeline) RenderOverlay(data []byte, points []geometry.Point) ([]byte, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	out, err := imaging.EncodePNG(imaging.RenderOverlay(img, points, p.cfg.Overlay))
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return out, nil
}

func round(v float64, places int) float64 {
	k := math.Pow(10, float64(places))
	return math.Round(v*k) / k
}
