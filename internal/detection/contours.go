package detection

import (
	"image"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

// Neighbour offsets in clockwise order (image coordinates, Y down), starting east.
var ring = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

// ringIndex maps an offset in [-1,1]^2 to its position in ring.
func ringIndex(d image.Point) int {
	for i, r := range ring {
		if r == d {
			return i
		}
	}
	return -1
}

// FindExternalContours returns the outer boundary of every connected edge region that
// is not enclosed by another region.
//
// Any non-zero pixel of edges is foreground. Foreground is grouped with 8-connectivity
// and background with 4-connectivity; pixels beyond the image count as background. A
// region is external when it touches the image border or borders background that is
// reachable from the border. Regions sitting inside a hole of another region are
// skipped.
//
// Each contour starts at the region's top-left-most pixel and runs clockwise on screen.
// Pixels along straight horizontal, vertical or diagonal runs are compressed to the
// run's endpoints. Contours are returned in raster order of their start pixels.
func FindExternalContours(edges *image.Gray) []geometry.Contour {
	b := edges.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	m := &binaryMap{w: w, h: h, fg: make([]bool, w*h)}
	for y := 0; y < h; y++ {
		row := edges.Pix[edges.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			m.fg[y*w+x] = row[x] != 0
		}
	}

	outside := m.outerBackground()
	visited := make([]bool, w*h)
	contours := make([]geometry.Contour, 0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !m.fg[i] || visited[i] {
				continue
			}
			// Raster order guarantees (x, y) is the region's top-left-most pixel.
			if m.labelRegion(visited, outside, x, y) {
				contours = append(contours, compressRuns(m.traceBoundary(x, y)))
			}
		}
	}
	return contours
}

type binaryMap struct {
	w, h int
	fg   []bool
}

func (m *binaryMap) at(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.w && y < m.h && m.fg[y*m.w+x]
}

// outerBackground marks background pixels 4-connected to the image border.
func (m *binaryMap) outerBackground() []bool {
	outside := make([]bool, m.w*m.h)
	stack := make([]image.Point, 0, 2*(m.w+m.h))
	push := func(x, y int) {
		i := y*m.w + x
		if !m.fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, image.Point{X: x, Y: y})
		}
	}
	for x := 0; x < m.w; x++ {
		push(x, 0)
		push(x, m.h-1)
	}
	for y := 0; y < m.h; y++ {
		push(0, y)
		push(m.w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx >= 0 && ny >= 0 && nx < m.w && ny < m.h {
				push(nx, ny)
			}
		}
	}
	return outside
}

// labelRegion flood-fills the 8-connected region containing (startX, startY), marking
// it visited, and reports whether the region is external.
func (m *binaryMap) labelRegion(visited, outside []bool, startX, startY int) bool {
	external := false
	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*m.w+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X == 0 || p.Y == 0 || p.X == m.w-1 || p.Y == m.h-1 {
			external = true
		}

		for _, d := range ring {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || ny < 0 || nx >= m.w || ny >= m.h {
				continue
			}
			j := ny*m.w + nx
			if m.fg[j] {
				if !visited[j] {
					visited[j] = true
					stack = append(stack, image.Point{X: nx, Y: ny})
				}
			} else if !external && (d.X == 0 || d.Y == 0) && outside[j] {
				external = true
			}
		}
	}
	return external
}

// traceBoundary walks the outer boundary of the region whose top-left-most pixel is
// (sx, sy) using Moore neighbour tracing.
//
// The walk stops when it is back at the start pixel and about to repeat its first
// move, so thin regions are traversed along both sides.
func (m *binaryMap) traceBoundary(sx, sy int) []geometry.Point {
	start := image.Point{X: sx, Y: sy}
	contour := []geometry.Point{geometry.Pt(float64(sx), float64(sy))}

	cur := start
	back := west // the pixel west of the start is always background
	var first image.Point
	haveFirst := false

	limit := 4*m.w*m.h + 8
	for step := 0; step < limit; step++ {
		next, dir, ok := m.nextBoundary(cur, back)
		if !ok {
			break // isolated pixel
		}
		if cur == start && haveFirst {
			if next == first {
				break
			}
			contour = append(contour, geometry.Pt(float64(sx), float64(sy)))
		}
		if !haveFirst {
			first = next
			haveFirst = true
		}

		// The last background pixel examined becomes the new backtrack position.
		prevBg := cur.Add(ring[(dir+7)%8])
		back = ringIndex(prevBg.Sub(next))
		cur = next
		if cur != start {
			contour = append(contour, geometry.Pt(float64(cur.X), float64(cur.Y)))
		}
	}
	return contour
}

// nextBoundary sweeps clockwise around cur starting just after the backtrack direction
// and returns the first foreground neighbour.
func (m *binaryMap) nextBoundary(cur image.Point, back int) (image.Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := (back + k) % 8
		n := cur.Add(ring[d])
		if m.at(n.X, n.Y) {
			return n, d, true
		}
	}
	return image.Point{}, 0, false
}

// compressRuns drops every vertex whose incoming and outgoing steps have the same
// direction, keeping only the ends of straight runs.
func compressRuns(pts []geometry.Point) geometry.Contour {
	n := len(pts)
	if n < 3 {
		return geometry.Contour(pts)
	}
	out := make(geometry.Contour, 0, n)
	for i := 0; i < n; i++ {
		prev, cur, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
		if cur.Sub(prev) == next.Sub(cur) {
			continue
		}
		out = append(out, cur)
	}
	if len(out) == 0 {
		return geometry.Contour(pts[:1])
	}
	return out
}
