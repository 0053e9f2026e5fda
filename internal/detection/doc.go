// Package detection finds the reference card and the joint outline in a frame.
//
// Both detectors work on external contours traced from an adaptive edge map:
//
//   - LocateCard keeps four-vertex polygons that are large enough and shaped like a
//     bank card, and returns the largest. Not finding one is a normal result.
//   - RefineCorners moves the card corners to sub-pixel positions before the
//     homography is computed.
//   - ExtractJoint runs on the rectified, contrast-enhanced frame. It keeps the
//     largest contour and measures it with a minimum-area rectangle so a tilted joint
//     is not overestimated.
//
// Contours are traced with Moore neighbour tracing over 8-connected foreground and
// compressed to their turning points. Only outer boundaries are reported; holes and
// nested shapes are ignored.
//
// All coordinates are pixels of the image passed in, origin at the top-left.
package detection
