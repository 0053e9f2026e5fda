package detection

import (
	"image"
	"math"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

// SubPixConfig controls iterative corner refinement.
type SubPixConfig struct {
	HalfWindow    int     `json:"half_window"`    // search window is (2*HalfWindow+1) square
	MaxIterations int     `json:"max_iterations"`
	Epsilon       float64 `json:"epsilon"`        // stop once a corner moves less than this many pixels
}

// DefaultSubPixConfig returns an 11x11 window, 30 iterations and 0.001 px.
func DefaultSubPixConfig() SubPixConfig {
	return SubPixConfig{HalfWindow: 5, MaxIterations: 30, Epsilon: 0.001}
}

// RefineCorners moves each approximate corner to the sub-pixel position where the
// surrounding image gradients are orthogonal to the vectors pointing back at it.
//
// For each corner a Gaussian-weighted window is resampled bilinearly around the current
// estimate and the 2x2 normal equations sum(g g^T) q = sum(g g^T p) are solved for the
// new position q. Iteration stops after MaxIterations or when the step falls below
// Epsilon. A corner that would drift out of its window, or whose system is singular
// (flat region), keeps its input position.
func RefineCorners(gray *image.Gray, pts []geometry.Point, cfg SubPixConfig) []geometry.Point {
	out := make([]geometry.Point, len(pts))
	copy(out, pts)

	win := cfg.HalfWindow
	if win < 1 || gray.Bounds().Empty() {
		return out
	}
	size := 2*win + 1
	mask := make([]float64, size*size)
	for i := 0; i < size; i++ {
		y := float64(i-win) / float64(win)
		vy := math.Exp(-y * y)
		for j := 0; j < size; j++ {
			x := float64(j-win) / float64(win)
			mask[i*size+j] = vy * math.Exp(-x*x)
		}
	}

	b := gray.Bounds()
	patch := make([]float64, (size+2)*(size+2))
	epsSq := cfg.Epsilon * cfg.Epsilon

	for k, initial := range pts {
		c := initial
		for iter := 0; iter < cfg.MaxIterations; iter++ {
			samplePatch(gray, c, win+1, patch)

			var a, bb, cc, b1, b2 float64
			stride := size + 2
			for i := 0; i < size; i++ {
				py := float64(i - win)
				for j := 0; j < size; j++ {
					px := float64(j - win)
					m := mask[i*size+j]
					gx := patch[(i+1)*stride+j+2] - patch[(i+1)*stride+j]
					gy := patch[(i+2)*stride+j+1] - patch[i*stride+j+1]
					gxx, gxy, gyy := gx*gx*m, gx*gy*m, gy*gy*m
					a += gxx
					bb += gxy
					cc += gyy
					b1 += gxx*px + gxy*py
					b2 += gxy*px + gyy*py
				}
			}

			det := a*cc - bb*bb
			if math.Abs(det) <= 1e-30 {
				break
			}
			next := geometry.Pt(
				c.X+(cc*b1-bb*b2)/det,
				c.Y+(a*b2-bb*b1)/det,
			)
			step := next.Sub(c)
			c = next
			if c.X < float64(b.Min.X) || c.Y < float64(b.Min.Y) ||
				c.X >= float64(b.Max.X) || c.Y >= float64(b.Max.Y) {
				break
			}
			if step.X*step.X+step.Y*step.Y <= epsSq {
				break
			}
		}

		if math.Abs(c.X-initial.X) > float64(win) || math.Abs(c.Y-initial.Y) > float64(win) {
			c = initial
		}
		out[k] = c
	}
	return out
}

// samplePatch fills dst with the (2*half+1)^2 bilinear samples of g centred on c, with
// replicated borders.
func samplePatch(g *image.Gray, c geometry.Point, half int, dst []float64) {
	b := g.Bounds()
	size := 2*half + 1
	pixel := func(x, y int) float64 {
		x = clampInt(x, b.Min.X, b.Max.X-1)
		y = clampInt(y, b.Min.Y, b.Max.Y-1)
		return float64(g.Pix[g.PixOffset(x, y)])
	}

	ox, oy := c.X-float64(half), c.Y-float64(half)
	x0f, y0f := math.Floor(ox), math.Floor(oy)
	fx, fy := ox-x0f, oy-y0f
	x0, y0 := int(x0f), int(y0f)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			x, y := x0+j, y0+i
			top := pixel(x, y)*(1-fx) + pixel(x+1, y)*fx
			bottom := pixel(x, y+1)*(1-fx) + pixel(x+1, y+1)*fx
			dst[i*size+j] = top*(1-fy) + bottom*fy
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
