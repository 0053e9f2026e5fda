// Package outline turns a measured joint outline into fabrication output.
//
// Outlines arrive as normalised [0,1] frame coordinates together with the measured
// width and height in millimetres. The bounding box of the points is stretched onto
// exactly width x height mm and the polygon is treated as closed.
package outline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

// ErrTooFewPoints is returned for outlines with fewer than three points.
var ErrTooFewPoints = errors.New("outline needs at least 3 points")

// degenerateRange is the smallest coordinate spread treated as a real extent.
const degenerateRange = 1e-9

// ScaleToMillimeters maps normalised points onto a widthMM x heightMM box.
//
// The minimum of each axis lands on 0 and the maximum on the requested size. An axis
// whose points all share one value is left unscaled (range taken as 1).
func ScaleToMillimeters(points []geometry.Point, widthMM, heightMM float64) ([]geometry.Point, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(points))
	}
	if widthMM < 0 || heightMM < 0 || math.IsNaN(widthMM) || math.IsNaN(heightMM) {
		return nil, fmt.Errorf("invalid outline size %vx%v mm", widthMM, heightMM)
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	rangeX := maxX - minX
	if rangeX <= degenerateRange {
		rangeX = 1
	}
	rangeY := maxY - minY
	if rangeY <= degenerateRange {
		rangeY = 1
	}

	out := make([]geometry.Point, len(points))
	for i, p := range points {
		out[i] = geometry.Pt((p.X-minX)/rangeX*widthMM, (p.Y-minY)/rangeY*heightMM)
	}
	return out, nil
}
