// Package imaging provides the pixel-level stages of the measurement pipeline.
//
// It decodes photographs, caps their working resolution, converts them to
// luminance, and derives adaptive Canny edge maps and CLAHE-enhanced frames for the
// detectors. It also renders the outline overlay that is returned to users.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X increasing
// rightward and Y increasing downward. Images returned by this package have their
// origin at (0,0).
//
// # Edge Maps
//
// Edge maps are *image.Gray values where 255 marks an edge pixel and 0 background.
// Thresholds are derived from the median intensity of the blurred frame
// (see AdaptiveThresholds), so the same settings work under site lighting and
// indoors.
//
// # Thread Safety
//
// Every function allocates its own output and never modifies its input, so calls
// may run concurrently. ByteCache is safe for concurrent use.
//
// # Error Handling
//
// Decode wraps every failure in ErrDecode; check it with errors.Is. Pixel operations
// do not fail.
package imaging
