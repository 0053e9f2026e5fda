package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"
)

// OverlayStyle describes how an outline is stroked.
type OverlayStyle struct {
	// Color is a hex colour such as "#00FF00". Invalid values fall back to green.
	Color string `json:"color"`

	// Thickness is the stroke width in pixels. Values below 1 are treated as 1.
	Thickness int `json:"thickness"`
}

// DefaultOverlayStyle returns a 3 px green stroke.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{Color: "#00FF00", Thickness: 3}
}

// RenderOverlay draws the closed polygon through points onto a copy of img.
//
// Points are normalised [0,1] coordinates; each is mapped to the pixel
// (int(x*width), int(y*height)). Segments are stroked with round joins. The source
// image is never modified. Fewer than two points produce an unmodified copy.
func RenderOverlay(img image.Image, points []geometry.Point, style OverlayStyle) *image.RGBA {
	out := clone.AsRGBA(img)
	b := out.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(points) < 2 || w == 0 || h == 0 {
		return out
	}

	stroke := parseStrokeColor(style.Color)
	thickness := style.Thickness
	if thickness < 1 {
		thickness = 1
	}
	half := float64(thickness) / 2

	pix := make([]geometry.Point, len(points))
	for i, p := range points {
		// Pixel centres sit at +0.5 in rasteriser space.
		pix[i] = geometry.Pt(
			float64(int(p.X*float64(w)))+0.5,
			float64(int(p.Y*float64(h)))+0.5,
		)
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Over
	for i := range pix {
		a, c := pix[i], pix[(i+1)%len(pix)]
		addPolygon(r, segmentQuad(a, c, half), w, h)
		addPolygon(r, disc(a, half), w, h)
	}
	r.Draw(out, b, image.NewUniform(stroke), image.Point{})
	return out
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func parseStrokeColor(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{0, 255, 0, 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// segmentQuad returns the rectangle of half-width half around segment a-c. A
// zero-length segment yields no polygon.
func segmentQuad(a, c geometry.Point, half float64) []geometry.Point {
	d := c.Sub(a)
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		return nil
	}
	n := geometry.Pt(-d.Y/length, d.X/length).Scale(half)
	return []geometry.Point{a.Add(n), c.Add(n), c.Sub(n), a.Sub(n)}
}

// disc approximates a filled circle for the round joins.
func disc(center geometry.Point, radius float64) []geometry.Point {
	const sides = 12
	pts := make([]geometry.Point, sides)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / sides
		pts[i] = center.Add(geometry.Pt(math.Cos(theta), math.Sin(theta)).Scale(radius))
	}
	return pts
}

// addPolygon appends a closed path to r. Every path is wound the same way so that
// overlapping joins and segments accumulate coverage instead of cancelling.
func addPolygon(r *vector.Rasterizer, poly []geometry.Point, w, h int) {
	if len(poly) < 3 {
		return
	}
	var signed float64
	for i := range poly {
		j := (i + 1) % len(poly)
		signed += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	if signed < 0 {
		rev := make([]geometry.Point, len(poly))
		for i, p := range poly {
			rev[len(poly)-1-i] = p
		}
		poly = rev
	}

	fx := func(v float64) float32 { return float32(math.Max(0, math.Min(float64(w), v))) }
	fy := func(v float64) float32 { return float32(math.Max(0, math.Min(float64(h), v))) }
	r.MoveTo(fx(poly[0].X), fy(poly[0].Y))
	for _, p := range poly[1:] {
		r.LineTo(fx(p.X), fy(p.Y))
	}
	r.ClosePath()
}
