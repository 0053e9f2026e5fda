package geometry

// Quad is a four-vertex polygon together with its derived bounding box and area.
type Quad struct {
	Points [4]Point `json:"points"`
	Bounds Rect     `json:"bounds"`
	Area   float64  `json:"area"`
}

// NewQuad builds a Quad from its vertices, computing bounds and area.
func NewQuad(pts [4]Point) Quad {
	return Quad{
		Points: pts,
		Bounds: BoundingRect(pts[:]),
		Area:   Area(pts[:]),
	}
}

// CornerSet holds four corners in canonical order.
type CornerSet struct {
	TL Point `json:"top_left"`
	TR Point `json:"top_right"`
	BR Point `json:"bottom_right"`
	BL Point `json:"bottom_left"`
}

// Points returns the corners as TL, TR, BR, BL.
func (c CornerSet) Points() [4]Point {
	return [4]Point{c.TL, c.TR, c.BR, c.BL}
}

// OrderCorners assigns four points to canonical positions in image coordinates:
//
//	top-left     minimises x+y
//	bottom-right maximises x+y
//	top-right    maximises x-y
//	bottom-left  minimises x-y
//
// Ties are broken by smaller x, then smaller y, so the result never depends on the
// order of pts.
func OrderCorners(pts [4]Point) CornerSet {
	sum := func(p Point) float64 { return p.X + p.Y }
	diff := func(p Point) float64 { return p.X - p.Y }
	return CornerSet{
		TL: pick(pts, sum, false),
		TR: pick(pts, diff, true),
		BR: pick(pts, sum, true),
		BL: pick(pts, diff, false),
	}
}

// pick returns the point with the smallest (or largest) key, breaking ties by x then y.
func pick(pts [4]Point, key func(Point) float64, largest bool) Point {
	best := pts[0]
	for _, p := range pts[1:] {
		kp, kb := key(p), key(best)
		if largest {
			kp, kb = -kp, -kb
		}
		switch {
		case kp < kb:
			best = p
		case kp == kb && (p.X < best.X || (p.X == best.X && p.Y < best.Y)):
			best = p
		}
	}
	return best
}
