package detection

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Shape is the classification of a single contour.
type Shape string

const (
	// ShapeUnknown is the sentinel for contours that match no known shape,
	// and for frames where nothing was classified.
	ShapeUnknown   Shape = "Unknown"
	ShapeRectangle Shape = "Rectangle"
	ShapeSquare    Shape = "Square"
	ShapeEllipse   Shape = "Ellipse"
)

// ClassifyOptions tunes polygon approximation and the shape tests.
type ClassifyOptions struct {
	// ApproxEpsilon is the Douglas-Peucker tolerance as a fraction of the
	// contour's perimeter. Typical: 0.02-0.05.
	ApproxEpsilon float64 `yaml:"approx_epsilon" json:"approx_epsilon"`

	// SquareTolerance is the allowed deviation of width/height from 1 for a
	// four-sided contour to count as a square.
	SquareTolerance float64 `yaml:"square_tolerance" json:"square_tolerance"`

	// EllipseMinAxisRatio is the minimum minor/major ratio of the fitted
	// ellipse for a contour with five or more vertices to count as an ellipse.
	EllipseMinAxisRatio float64 `yaml:"ellipse_min_axis_ratio" json:"ellipse_min_axis_ratio"`
}

// DefaultClassifyOptions returns the tuning used by the live camera loop.
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{
		ApproxEpsilon:       0.04,
		SquareTolerance:     0.05,
		EllipseMinAxisRatio: 0.8,
	}
}

// Validate reports option values that cannot classify anything.
func (o ClassifyOptions) Validate() error {
	if o.ApproxEpsilon <= 0 || o.ApproxEpsilon >= 1 {
		return fmt.Errorf("approx_epsilon must be in (0,1), got %v", o.ApproxEpsilon)
	}
	if o.SquareTolerance < 0 || o.SquareTolerance >= 1 {
		return fmt.Errorf("square_tolerance must be in [0,1), got %v", o.SquareTolerance)
	}
	if o.EllipseMinAxisRatio <= 0 || o.EllipseMinAxisRatio > 1 {
		return fmt.Errorf("ellipse_min_axis_ratio must be in (0,1], got %v", o.EllipseMinAxisRatio)
	}
	return nil
}

// Classification is the outcome of Classify with the intermediate geometry
// kept for overlays and diagnostics.
type Classification struct {
	Shape   Shape
	Approx  []r2.Point
	Ellipse *Ellipse
	Aspect  float64
}

// Classify decides the shape of a closed contour from the vertex count of its
// polygon approximation.
//
//   - 4 vertices: Square when the bounding box of the approximation has an
//     aspect ratio within SquareTolerance of 1, otherwise Rectangle.
//   - 5 or more vertices: Ellipse when the fitted ellipse's minor/major ratio
//     is at least EllipseMinAxisRatio, otherwise Unknown.
//   - fewer than 4 vertices: Unknown.
func Classify(points []r2.Point, opts ClassifyOptions) Classification {
	if len(points) < 3 {
		return Classification{Shape: ShapeUnknown}
	}

	epsilon := opts.ApproxEpsilon * ArcLength(points, true)
	approx := ApproxPolyDP(points, epsilon, true)
	result := Classification{Shape: ShapeUnknown, Approx: approx}

	switch {
	case len(approx) == 4:
		minX, minY := approx[0].X, approx[0].Y
		maxX, maxY := minX, minY
		for _, p := range approx[1:] {
			minX, maxX = min(minX, p.X), max(maxX, p.X)
			minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		}
		// Pixel extents, matching an inclusive bounding box.
		w := maxX - minX + 1
		h := maxY - minY + 1
		result.Aspect = w / h
		if result.Aspect >= 1-opts.SquareTolerance && result.Aspect <= 1+opts.SquareTolerance {
			result.Shape = ShapeSquare
		} else {
			result.Shape = ShapeRectangle
		}

	case len(approx) >= 5:
		e, err := FitEllipse(points)
		if err != nil {
			return result
		}
		result.Ellipse = &e
		result.Aspect = e.AxisRatio()
		if e.AxisRatio() >= opts.EllipseMinAxisRatio {
			result.Shape = ShapeEllipse
		}
	}

	return result
}
