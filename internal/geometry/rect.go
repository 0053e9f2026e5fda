package geometry

import "math"

// RotatedRect is an oriented rectangle. Width is measured along the direction given by
// Angle (degrees, counter-clockwise from the +X axis in image coordinates), Height
// perpendicular to it.
type RotatedRect struct {
	Center Point   `json:"center"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
}

// Sides returns the long and short side lengths.
func (r RotatedRect) Sides() (long, short float64) {
	if r.Width >= r.Height {
		return r.Width, r.Height
	}
	return r.Height, r.Width
}

// Corners returns the four vertices of the rectangle in traversal order.
func (r RotatedRect) Corners() [4]Point {
	rad := r.Angle * math.Pi / 180
	u := Pt(math.Cos(rad), math.Sin(rad)).Scale(r.Width / 2)
	v := Pt(-math.Sin(rad), math.Cos(rad)).Scale(r.Height / 2)
	return [4]Point{
		r.Center.Sub(u).Sub(v),
		r.Center.Add(u).Sub(v),
		r.Center.Add(u).Add(v),
		r.Center.Sub(u).Add(v),
	}
}

// MinAreaRect returns the minimum-area rectangle enclosing pts, found with rotating
// calipers over the convex hull. A single distinct point yields a zero-size rectangle
// and two distinct points (or a collinear set) a zero-height one.
func MinAreaRect(pts []Point) RotatedRect {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return RotatedRect{}
	case 1:
		return RotatedRect{Center: hull[0]}
	case 2:
		d := hull[1].Sub(hull[0])
		return RotatedRect{
			Center: hull[0].Add(hull[1]).Scale(0.5),
			Width:  hull[0].Dist(hull[1]),
			Angle:  math.Atan2(d.Y, d.X) * 180 / math.Pi,
		}
	}

	best := RotatedRect{}
	bestArea := math.Inf(1)
	n := len(hull)
	for i := 0; i < n; i++ {
		origin := hull[i]
		edge := hull[(i+1)%n].Sub(origin)
		length := math.Hypot(edge.X, edge.Y)
		if length == 0 {
			continue
		}
		u := edge.Scale(1 / length)
		v := Pt(-u.Y, u.X)

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			d := p.Sub(origin)
			pu := d.X*u.X + d.Y*u.Y
			pv := d.X*v.X + d.Y*v.Y
			minU, maxU = math.Min(minU, pu), math.Max(maxU, pu)
			minV, maxV = math.Min(minV, pv), math.Max(maxV, pv)
		}

		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			best = RotatedRect{
				Center: origin.Add(u.Scale((minU + maxU) / 2)).Add(v.Scale((minV + maxV) / 2)),
				Width:  maxU - minU,
				Height: maxV - minV,
				Angle:  math.Atan2(u.Y, u.X) * 180 / math.Pi,
			}
		}
	}
	return best
}
