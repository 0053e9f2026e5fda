package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when a homography cannot be estimated or inverted.
var ErrSingular = errors.New("singular homography")

// Homography is a 3x3 projective transform stored row-major, normalised so that
// H[8] == 1 whenever that is possible.
type Homography [9]float64

// ComputeHomography returns the transform mapping each src[i] onto dst[i].
//
// The eight unknowns h0..h7 (h8 fixed to 1) are solved from the standard 8x8 direct
// linear system. Degenerate configurations (three collinear points, repeated points)
// yield ErrSingular.
func ComputeHomography(src, dst [4]Point) (Homography, error) {
	if collinearTriple(src) || collinearTriple(dst) {
		return Homography{}, ErrSingular
	}

	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return Homography{}, ErrSingular
		}
	}
	out[8] = 1
	return out, nil
}

// Inverse returns the algebraic inverse of h, rescaled so its last element is 1.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h[:])
	if math.Abs(mat.Det(m)) < 1e-12 {
		return Homography{}, ErrSingular
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if out[8] != 0 {
		k := 1 / out[8]
		for i := range out {
			out[i] *= k
		}
	}
	return out, nil
}

// Apply maps p through h. ok is false when p lands on the line at infinity.
func (h Homography) Apply(p Point) (Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return Point{}, false
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// collinearTriple reports whether any three of the four points are (nearly) collinear.
func collinearTriple(pts [4]Point) bool {
	for i := 0; i < 4; i++ {
		a, b, c := pts[i], pts[(i+1)%4], pts[(i+2)%4]
		if math.Abs(cross(a, b, c)) < 1e-9 {
			return true
		}
	}
	return false
}
