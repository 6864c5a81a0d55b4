package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// ThresholdMethod selects how the blurred grayscale frame becomes a binary
// mask.
type ThresholdMethod string

const (
	// ThresholdBinary keeps pixels brighter than Level.
	ThresholdBinary ThresholdMethod = "binary"
	// ThresholdBinaryInv keeps pixels at or below Level (dark objects).
	ThresholdBinaryInv ThresholdMethod = "binary_inv"
	// ThresholdOtsu picks Level from the frame histogram, then behaves like
	// ThresholdBinary.
	ThresholdOtsu ThresholdMethod = "otsu"
	// ThresholdAdaptive compares each pixel to the mean of its neighbourhood
	// and keeps pixels darker than mean-C.
	ThresholdAdaptive ThresholdMethod = "adaptive"
	// ThresholdEdges keeps Canny edges.
	ThresholdEdges ThresholdMethod = "edges"
)

// PreprocessOptions configures Preprocess.
type PreprocessOptions struct {
	// Method is the thresholding method.
	Method ThresholdMethod `yaml:"method" json:"method"`

	// Level is the fixed threshold (0-255) for binary and binary_inv.
	Level uint8 `yaml:"level" json:"level"`

	// BlockSize is the odd neighbourhood width for adaptive thresholding.
	BlockSize int `yaml:"block_size" json:"block_size"`

	// C is subtracted from the neighbourhood mean in adaptive thresholding.
	C float64 `yaml:"c" json:"c"`

	// EdgeLow and EdgeHigh are the hysteresis thresholds (0-255) for edges.
	EdgeLow  int `yaml:"edge_low" json:"edge_low"`
	EdgeHigh int `yaml:"edge_high" json:"edge_high"`

	// Blur enables a Gaussian blur (sigma 1.4) before thresholding.
	Blur bool `yaml:"blur" json:"blur"`

	// ErodeIterations and DilateIterations run 3x3 morphology on the mask to
	// remove speckle noise.
	ErodeIterations  int `yaml:"erode_iterations" json:"erode_iterations"`
	DilateIterations int `yaml:"dilate_iterations" json:"dilate_iterations"`
}

// DefaultPreprocessOptions mirrors the tuning of the live camera loop:
// blur, fixed threshold at 60, two erosions then two dilations.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Method:           ThresholdBinary,
		Level:            60,
		BlockSize:        11,
		C:                2,
		EdgeLow:          50,
		EdgeHigh:         150,
		Blur:             true,
		ErodeIterations:  2,
		DilateIterations: 2,
	}
}

// Validate checks option ranges.
func (o PreprocessOptions) Validate() error {
	switch o.Method {
	case ThresholdBinary, ThresholdBinaryInv, ThresholdOtsu:
	case ThresholdAdaptive:
		if o.BlockSize < 3 || o.BlockSize%2 == 0 {
			return fmt.Errorf("block_size must be odd and >= 3, got %d", o.BlockSize)
		}
	case ThresholdEdges:
		if o.EdgeLow < 0 || o.EdgeHigh > 255 || o.EdgeLow > o.EdgeHigh {
			return fmt.Errorf("edge thresholds must satisfy 0 <= low <= high <= 255, got %d/%d", o.EdgeLow, o.EdgeHigh)
		}
	default:
		return fmt.Errorf("unknown threshold method %q", o.Method)
	}
	if o.ErodeIterations < 0 || o.DilateIterations < 0 {
		return fmt.Errorf("morphology iterations must be >= 0")
	}
	return nil
}

// Preprocessed holds the intermediate images of Preprocess.
type Preprocessed struct {
	// Gray is the (optionally blurred) grayscale frame.
	Gray *image.Gray

	// Binary is the cleaned mask: 255 for foreground, 0 for background.
	Binary *image.Gray

	// Level is the threshold that was applied. Zero for adaptive and edges.
	Level uint8
}

// Preprocess converts a color frame into a binary mask ready for contour
// finding.
//
// # Pipeline
//
//  1. Grayscale conversion
//  2. Gaussian blur, sigma 1.4 (when enabled)
//  3. Thresholding by Method
//  4. ErodeIterations erosions followed by DilateIterations dilations
//
// Returns an error only for invalid options.
func Preprocess(img image.Image, opts PreprocessOptions) (*Preprocessed, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	gray := toGray(effect.Grayscale(img))
	if opts.Blur {
		gray = gaussianBlur(gray)
	}

	result := &Preprocessed{Gray: gray}

	switch opts.Method {
	case ThresholdBinary:
		result.Level = opts.Level
		result.Binary = thresholdAbove(gray, opts.Level)
	case ThresholdBinaryInv:
		result.Level = opts.Level
		result.Binary = invert(thresholdAbove(gray, opts.Level))
	case ThresholdOtsu:
		result.Level = OtsuLevel(gray)
		result.Binary = thresholdAbove(gray, result.Level)
	case ThresholdAdaptive:
		result.Binary = adaptiveThreshold(gray, opts.BlockSize, opts.C)
	case ThresholdEdges:
		result.Binary = CannyEdges(gray, opts.EdgeLow, opts.EdgeHigh)
	}

	result.Binary = Erode(result.Binary, opts.ErodeIterations)
	result.Binary = Dilate(result.Binary, opts.DilateIterations)

	return result, nil
}

// thresholdAbove maps pixels strictly brighter than level to 255.
func thresholdAbove(gray *image.Gray, level uint8) *image.Gray {
	if level == 255 {
		return image.NewGray(gray.Bounds())
	}
	return rebase(segment.Threshold(gray, level+1), gray.Bounds())
}

func invert(gray *image.Gray) *image.Gray {
	return toGray(effect.Invert(gray))
}

// Erode shrinks foreground regions, one 3x3 pass per iteration.
func Erode(mask *image.Gray, iterations int) *image.Gray {
	for i := 0; i < iterations; i++ {
		mask = rebase(toGray(effect.Erode(mask, 1)), mask.Bounds())
	}
	return mask
}

// Dilate grows foreground regions, one 3x3 pass per iteration.
func Dilate(mask *image.Gray, iterations int) *image.Gray {
	for i := 0; i < iterations; i++ {
		mask = rebase(toGray(effect.Dilate(mask, 1)), mask.Bounds())
	}
	return mask
}

// OtsuLevel returns the threshold that maximises the between-class variance
// of the grayscale histogram.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var sumAll float64
	for v, n := range hist {
		sumAll += float64(v * n)
	}

	var sumBg float64
	weightBg := 0
	best := 0.0
	level := 0
	for v := 0; v < 256; v++ {
		weightBg += hist[v]
		if weightBg == 0 {
			continue
		}
		weightFg := total - weightBg
		if weightFg == 0 {
			break
		}
		sumBg += float64(v * hist[v])
		meanBg := sumBg / float64(weightBg)
		meanFg := (sumAll - sumBg) / float64(weightFg)
		between := float64(weightBg) * float64(weightFg) * (meanBg - meanFg) * (meanBg - meanFg)
		if between > best {
			best = between
			level = v
		}
	}
	return uint8(level)
}

// adaptiveThreshold marks pixels darker than their block mean minus c, using
// an integral image so each pixel costs O(1).
func adaptiveThreshold(gray *image.Gray, blockSize int, c float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	integral := make([]int64, (width+1)*(height+1))
	for y := 0; y < height; y++ {
		var rowSum int64
		for x := 0; x < width; x++ {
			rowSum += int64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			integral[(y+1)*(width+1)+x+1] = integral[y*(width+1)+x+1] + rowSum
		}
	}

	half := blockSize / 2
	out := image.NewGray(bounds)
	for y := 0; y < height; y++ {
		y0 := clamp(y-half, 0, height-1)
		y1 := clamp(y+half, 0, height-1) + 1
		for x := 0; x < width; x++ {
			x0 := clamp(x-half, 0, width-1)
			x1 := clamp(x+half, 0, width-1) + 1
			sum := integral[y1*(width+1)+x1] - integral[y0*(width+1)+x1] -
				integral[y1*(width+1)+x0] + integral[y0*(width+1)+x0]
			mean := float64(sum) / float64((x1-x0)*(y1-y0))
			v := float64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)
			if v <= mean-c {
				out.SetGray(x+bounds.Min.X, y+bounds.Min.Y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// blurSigma matches the spread of the classic 5x5 Gaussian kernel.
const blurSigma = 1.4

// gaussianBlur smooths the frame with a Gaussian of blurSigma. Borders are
// clamped, and the result keeps the source bounds.
func gaussianBlur(gray *image.Gray) *image.Gray {
	return rebase(toGray(imaging.Blur(gray, blurSigma)), gray.Bounds())
}

// toGray converts any image to *image.Gray, reusing it when it already is one.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	out := image.NewGray(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// rebase moves a zero-origin result back onto the source bounds.
func rebase(img *image.Gray, bounds image.Rectangle) *image.Gray {
	if img.Bounds() == bounds {
		return img
	}
	img.Rect = bounds
	return img
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
