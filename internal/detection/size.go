package detection

import "fmt"

// Size is the approximate size bucket of a detection.
type Size string

const (
	// SizeNone accompanies ShapeUnknown.
	SizeNone   Size = "None"
	SizeSmall  Size = "Small"
	SizeMedium Size = "Medium"
	SizeLarge  Size = "Large"
)

// SizeThresholds are the upper area bounds (exclusive, square pixels) of the
// Small and Medium buckets. Anything at or above Medium is Large.
type SizeThresholds struct {
	Small  float64 `yaml:"small" json:"small"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// DefaultSizeThresholds suits a 640x480 frame with the object at arm's length.
func DefaultSizeThresholds() SizeThresholds {
	return SizeThresholds{Small: 5000, Medium: 20000}
}

// Validate requires 0 < Small < Medium.
func (t SizeThresholds) Validate() error {
	if t.Small <= 0 || t.Medium <= t.Small {
		return fmt.Errorf("size thresholds must satisfy 0 < small < medium, got small=%v medium=%v", t.Small, t.Medium)
	}
	return nil
}

// SizeOf buckets an area.
func SizeOf(area float64, t SizeThresholds) Size {
	switch {
	case area < t.Small:
		return SizeSmall
	case area < t.Medium:
		return SizeMedium
	default:
		return SizeLarge
	}
}
