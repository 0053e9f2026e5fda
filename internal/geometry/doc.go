// Package geometry provides the planar geometry used by the measurement pipeline.
//
// Points are float64 pixel coordinates with the image convention: origin at the
// top-left corner, X increasing rightward and Y increasing downward. Contours are
// closed; the last vertex implicitly connects back to the first.
//
// # Contents
//
//   - Polygon measures: Area (shoelace), ArcLength, BoundingRect
//   - Polygon simplification: ApproxPolygon (Douglas-Peucker on a closed curve)
//   - Hulls and rectangles: ConvexHull, MinAreaRect
//   - Corner handling: Quad, CornerSet, OrderCorners
//   - Projective transforms: Homography, ComputeHomography
//
// All functions are pure and allocate their results; inputs are never modified.
package geometry
