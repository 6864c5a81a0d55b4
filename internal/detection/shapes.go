package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/shape-watch/internal/imaging"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

func boundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts the bounds back to an image rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// AreaMethod selects how a contour's area is measured before filtering and
// size bucketing.
type AreaMethod string

const (
	// AreaContour is the polygon area of the traced border.
	AreaContour AreaMethod = "contour"
	// AreaBox is the area of the contour's bounding rectangle.
	AreaBox AreaMethod = "box"
	// AreaPixels counts foreground pixels of the mask inside the bounding
	// rectangle. For a hole border it counts the background pixels instead,
	// so the area is that of the gap.
	AreaPixels AreaMethod = "pixels"
)

// Detection is one classified contour in a frame.
type Detection struct {
	// Shape is the classification of the contour.
	Shape Shape `json:"shape"`

	// Size is the area bucket.
	Size Size `json:"size"`

	// Area is the measured area in square pixels.
	Area float64 `json:"area"`

	// Bounds is the bounding box enclosing the contour.
	Bounds Bounds `json:"bounds"`

	// Center is the contour centroid. Falls back to the bounding box centre
	// when the centroid is undefined.
	Center Point `json:"center"`

	// Vertices is the number of vertices of the polygon approximation.
	Vertices int `json:"vertices"`

	// Color is the mean "#RRGGBB" color of the source frame inside Bounds.
	// Empty when no source frame was supplied.
	Color string `json:"color,omitempty"`

	// Outline is the traced border, kept for rendering.
	Outline []image.Point `json:"-"`
}

// Observation is the per-frame result: the dominant shape, its size bucket
// and area. A frame with nothing classified yields ShapeUnknown/SizeNone.
type Observation struct {
	Shape Shape   `json:"shape"`
	Size  Size    `json:"size"`
	Area  float64 `json:"area"`
	Color string  `json:"color,omitempty"`
}

// UnknownObservation is the observation for a frame with no classified shape.
func UnknownObservation() Observation {
	return Observation{Shape: ShapeUnknown, Size: SizeNone}
}

// FrameResult holds every detection in a frame and the frame's observation.
type FrameResult struct {
	// Detections are all contours that passed the area filter, sorted by
	// area (largest first). Unknown shapes are included.
	Detections []Detection `json:"detections"`

	// Count is the number of detections.
	Count int `json:"count"`

	// Dominant is the observation taken from the largest classified
	// detection.
	Dominant Observation `json:"dominant"`
}

// DetectorOptions configures contour filtering and classification.
type DetectorOptions struct {
	// MinArea drops contours smaller than this many square pixels.
	MinArea float64 `yaml:"min_area" json:"min_area"`

	// OuterOnly skips hole borders.
	OuterOnly bool `yaml:"outer_only" json:"outer_only"`

	// SkipFrameSpanning drops contours whose bounding box covers the whole
	// frame, which is what a bright border or inverted mask produces.
	SkipFrameSpanning bool `yaml:"skip_frame_spanning" json:"skip_frame_spanning"`

	// AreaMethod selects how area is measured.
	AreaMethod AreaMethod `yaml:"area_method" json:"area_method"`

	Classify ClassifyOptions `yaml:"classify" json:"classify"`
	Sizes    SizeThresholds  `yaml:"sizes" json:"sizes"`
}

// DefaultDetectorOptions returns the tuning used by the live camera loop.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MinArea:           1000,
		OuterOnly:         false,
		SkipFrameSpanning: true,
		AreaMethod:        AreaContour,
		Classify:          DefaultClassifyOptions(),
		Sizes:             DefaultSizeThresholds(),
	}
}

// Validate checks option ranges.
func (o DetectorOptions) Validate() error {
	if o.MinArea < 0 {
		return fmt.Errorf("min_area must be >= 0, got %v", o.MinArea)
	}
	switch o.AreaMethod {
	case AreaContour, AreaBox, AreaPixels:
	default:
		return fmt.Errorf("unknown area_method %q", o.AreaMethod)
	}
	if err := o.Classify.Validate(); err != nil {
		return err
	}
	return o.Sizes.Validate()
}

// Detector turns a binary mask into classified detections.
type Detector struct {
	opts DetectorOptions
}

// NewDetector creates a detector. Options are validated.
func NewDetector(opts DetectorOptions) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector options: %w", err)
	}
	return &Detector{opts: opts}, nil
}

// Options returns the detector's configuration.
func (d *Detector) Options() DetectorOptions {
	return d.opts
}

// Detect finds and classifies contours in a binary mask.
//
// Parameters:
//   - mask: Binary image where non-zero pixels are foreground.
//   - src: Optional source frame (same bounds as mask) used to sample each
//     detection's mean color. May be nil.
//
// # Algorithm
//
//  1. Contour Finding: Suzuki-Abe border following over the mask
//  2. Filtering: drop holes (OuterOnly), frame-spanning borders and contours
//     below MinArea
//  3. Classification: polygon approximation vertex count (see Classify)
//  4. Size Bucketing: area against SizeThresholds
//  5. Dominant Selection: the largest detection whose shape is not Unknown
func (d *Detector) Detect(mask *image.Gray, src image.Image) *FrameResult {
	frame := mask.Bounds()
	contours := FindContours(mask)

	detections := make([]Detection, 0)
	for _, c := range contours {
		if d.opts.OuterOnly && c.Hole {
			continue
		}
		if len(c.Points) < 3 {
			continue
		}

		rect := BoundingRect(c.Points)
		if d.opts.SkipFrameSpanning && rect == frame {
			continue
		}

		pts := ToR2(c.Points)
		moments := Moments(pts)
		area := d.measureArea(mask, rect, c.Hole, moments)
		if area < d.opts.MinArea {
			continue
		}

		class := Classify(pts, d.opts.Classify)

		center := Point{
			X: (rect.Min.X + rect.Max.X - 1) / 2,
			Y: (rect.Min.Y + rect.Max.Y - 1) / 2,
		}
		if c, ok := moments.Centroid(); ok {
			center = Point{X: int(math.Round(c.X)), Y: int(math.Round(c.Y))}
		}

		size := SizeNone
		if class.Shape != ShapeUnknown {
			size = SizeOf(area, d.opts.Sizes)
		}

		det := Detection{
			Shape:    class.Shape,
			Size:     size,
			Area:     area,
			Bounds:   boundsOf(rect),
			Center:   center,
			Vertices: len(class.Approx),
			Outline:  c.Points,
		}
		if src != nil {
			det.Color = imaging.MeanColor(src, rect)
		}
		detections = append(detections, det)
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Area > detections[j].Area
	})

	dominant := UnknownObservation()
	for _, det := range detections {
		if det.Shape == ShapeUnknown {
			continue
		}
		dominant = Observation{
			Shape: det.Shape,
			Size:  det.Size,
			Area:  det.Area,
			Color: det.Color,
		}
		break
	}

	return &FrameResult{
		Detections: detections,
		Count:      len(detections),
		Dominant:   dominant,
	}
}

func (d *Detector) measureArea(mask *image.Gray, rect image.Rectangle, hole bool, m PolygonMoments) float64 {
	switch d.opts.AreaMethod {
	case AreaBox:
		return float64(rect.Dx() * rect.Dy())
	case AreaPixels:
		count := 0
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				if (mask.GrayAt(x, y).Y != 0) != hole {
					count++
				}
			}
		}
		return float64(count)
	default:
		return math.Abs(m.M00)
	}
}
