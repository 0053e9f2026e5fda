package geometry

import (
	"math"
	"sort"
)

// Rect is an axis-aligned integer bounding box. W and H count pixels inclusively, so a
// single point has a 1x1 box.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// AspectRatio returns W/H normalised to be >= 1, so portrait and landscape boxes of the
// same shape compare equal. A zero-height box reports 0.
func (r Rect) AspectRatio() float64 {
	if r.H == 0 || r.W == 0 {
		return 0
	}
	ratio := float64(r.W) / float64(r.H)
	return math.Max(ratio, 1/ratio)
}

// Area returns the enclosed area of a closed polygon using the shoelace formula.
// The result is always non-negative.
func Area(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the length of the polyline through pts, including the closing
// segment when closed is true.
func ArcLength(pts []Point, closed bool) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 1; i < n; i++ {
		length += pts[i].Dist(pts[i-1])
	}
	if closed {
		length += pts[n-1].Dist(pts[0])
	}
	return length
}

// BoundingRect returns the inclusive axis-aligned bounding box of pts.
func BoundingRect(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := math.Floor(pts[0].X), math.Floor(pts[0].Y)
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		x, y := math.Floor(p.X), math.Floor(p.Y)
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return Rect{
		X: int(minX),
		Y: int(minY),
		W: int(maxX-minX) + 1,
		H: int(maxY-minY) + 1,
	}
}

// ApproxPolygon simplifies a closed contour with the Douglas-Peucker algorithm.
//
// The curve is split at pts[0] and the vertex farthest from it, each half is simplified
// independently with tolerance epsilon, and the two split vertices are then dropped
// again if they lie within epsilon of the line joining their neighbours. The result
// never has fewer than 3 vertices unless the input does.
func ApproxPolygon(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n <= 3 {
		out := make([]Point, n)
		copy(out, pts)
		return out
	}

	far, farDist := 0, 0.0
	for i := 1; i < n; i++ {
		if d := pts[0].Dist(pts[i]); d > farDist {
			far, farDist = i, d
		}
	}
	if farDist == 0 {
		return []Point{pts[0]}
	}

	first := simplifyPath(pts[:far+1], epsilon)

	closing := make([]Point, 0, n-far+1)
	closing = append(closing, pts[far:]...)
	closing = append(closing, pts[0])
	second := simplifyPath(closing, epsilon)

	out := make([]Point, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return pruneClosed(out, epsilon)
}

// simplifyPath runs Douglas-Peucker on an open path, always keeping both endpoints.
func simplifyPath(path []Point, epsilon float64) []Point {
	if len(path) < 3 {
		out := make([]Point, len(path))
		copy(out, path)
		return out
	}
	keep := make([]bool, len(path))
	keep[0] = true
	keep[len(path)-1] = true

	type span struct{ lo, hi int }
	stack := []span{{0, len(path) - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.hi-s.lo < 2 {
			continue
		}
		idx, maxDist := -1, 0.0
		for i := s.lo + 1; i < s.hi; i++ {
			if d := perpendicularDistance(path[i], path[s.lo], path[s.hi]); d > maxDist {
				idx, maxDist = i, d
			}
		}
		if idx >= 0 && maxDist > epsilon {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make([]Point, 0, len(path))
	for i, p := range path {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// pruneClosed removes vertices of a closed polygon lying within epsilon of the segment
// joining their neighbours, stopping at a triangle.
func pruneClosed(poly []Point, epsilon float64) []Point {
	for changed := true; changed && len(poly) > 3; {
		changed = false
		for i := 0; i < len(poly) && len(poly) > 3; i++ {
			prev := poly[(i+len(poly)-1)%len(poly)]
			next := poly[(i+1)%len(poly)]
			if perpendicularDistance(poly[i], prev, next) <= epsilon {
				poly = append(poly[:i:i], poly[i+1:]...)
				changed = true
				break
			}
		}
	}
	return poly
}

// perpendicularDistance returns the distance from p to the line through a and b, or to
// a itself when a and b coincide.
func perpendicularDistance(p, a, b Point) float64 {
	length := a.Dist(b)
	if length == 0 {
		return p.Dist(a)
	}
	return math.Abs(cross(a, b, p)) / length
}

// ConvexHull returns the convex hull of pts using Andrew's monotone chain. Collinear
// points on the hull boundary are dropped. Hulls of fewer than 3 distinct points return
// those points.
func ConvexHull(pts []Point) []Point {
	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	// Deduplicate
	uniq := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) < 3 {
		return uniq
	}

	hull := make([]Point, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}
