package pipeline

import (
	"image"

	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/imaging"
)

// Analysis is one processed frame.
type Analysis struct {
	// Frame is the (possibly downscaled) frame that was analysed.
	Frame image.Image

	// Prep holds the grayscale image and the binary mask.
	Prep *imaging.Preprocessed

	// Result holds the detections and the frame's observation.
	Result *detection.FrameResult
}

// Analyze runs preprocessing and detection on a single frame. Frames wider
// than maxWidth are downscaled first (0 keeps the original size).
func Analyze(img image.Image, prep imaging.PreprocessOptions, maxWidth int, det *detection.Detector) (*Analysis, error) {
	frame := imaging.Downscale(img, maxWidth)

	p, err := imaging.Preprocess(frame, prep)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Frame:  frame,
		Prep:   p,
		Result: det.Detect(p.Binary, frame),
	}, nil
}

// Overlay lists the outlines and per-shape labels to draw for a. Every
// detection gets an outline; only classified ones get a label at their
// centroid.
func (a *Analysis) Overlay() []imaging.OverlayShape {
	shapes := make([]imaging.OverlayShape, 0, len(a.Result.Detections))
	for _, d := range a.Result.Detections {
		s := imaging.OverlayShape{
			Outline: d.Outline,
			Anchor:  image.Point{X: d.Center.X, Y: d.Center.Y},
		}
		if d.Shape != detection.ShapeUnknown {
			s.Label = string(d.Shape)
		}
		shapes = append(shapes, s)
	}
	return shapes
}
