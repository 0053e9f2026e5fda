// Package rectify maps a photographed frame onto a metrically scaled plane and maps
// points found on that plane back into the frame.
//
// Two Rectifier implementations exist. Perspective uses the homography defined by the
// four reference card corners and is calibrated. Proportional is used when no card was
// found: it only resizes the frame to the target size, so millimetre values derived
// from it are estimates.
package rectify
