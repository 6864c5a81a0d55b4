// Package detection finds contours in binary masks and classifies them as
// geometric shapes.
//
// The package turns the thresholded mask produced by the imaging package into
// a per-frame observation: the dominant shape, its size bucket and its area.
//
// # Pipeline
//
//  1. Contour Finding: Suzuki-Abe border following with parent/hole hierarchy
//  2. Filtering: frame-spanning borders and contours below a minimum area are
//     dropped
//  3. Approximation: Douglas-Peucker at a fraction of the contour perimeter
//  4. Classification: four vertices are a Rectangle (or Square when the sides
//     are nearly equal); five or more are an Ellipse when the fitted ellipse is
//     close to circular; anything else is Unknown
//  5. Size Bucketing: Small, Medium or Large by area
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// # Geometry
//
// Contour points are pixel centres. Polygon area, arc length and moments are
// measured on those centres, so a filled n×n square has a contour area of
// (n-1)² while its bounding box is n×n. Pick the area method accordingly when
// tuning MinArea and the size thresholds.
//
// # Limitations
//
// Classification works on a single closed border. Touching objects merge
// into one contour, and heavily blurred or noisy masks break corners into
// extra vertices, which pushes rectangles toward the ellipse test.
package detection
