package imaging

import (
	"image"
	"math"
)

// CannyEdges performs Canny-style edge detection on a grayscale frame and
// returns a mask with edges at 255.
//
// The frame is expected to be blurred already (Preprocess does this), so the
// implementation starts at the gradient stage:
//
//  1. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  2. Non-maximum suppression: keep only local maxima along the gradient
//     direction, thinning edges to one pixel
//  3. Hysteresis thresholding: magnitudes above high are strong edges; those
//     between low and high survive only next to a strong edge
//
// Thresholds are on the 0-255 intensity scale. Lower thresholds detect more
// edges but increase noise. Edges are thin, so contours found on them trace
// both sides of each outline; follow with a dilation to close gaps.
func CannyEdges(gray *image.Gray, low, high int) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := image.NewGray(bounds)
	if width < 3 || height < 3 {
		return out
	}

	pix := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[y*gray.Stride+x]) / 255.0
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -pix(x-1, y-1) + pix(x+1, y-1) +
				-2*pix(x-1, y) + 2*pix(x+1, y) +
				-pix(x-1, y+1) + pix(x+1, y+1)
			gy := -pix(x-1, y-1) - 2*pix(x, y-1) - pix(x+1, y-1) +
				pix(x-1, y+1) + 2*pix(x, y+1) + pix(x+1, y+1)
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	mag := func(x, y int) float64 { return magnitude[y*width+x] }

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := direction[y*width+x]
			m := mag(x, y)

			// Image y grows downward, so a positive angle points down-right.
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1, n2 = mag(x-1, y), mag(x+1, y)
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1, n2 = mag(x-1, y-1), mag(x+1, y+1)
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1, n2 = mag(x, y-1), mag(x, y+1)
			default:
				n1, n2 = mag(x+1, y-1), mag(x-1, y+1)
			}

			if m >= n1 && m >= n2 {
				suppressed[y*width+x] = m
			}
		}
	}

	lowThresh := float64(low) / 255.0
	highThresh := float64(high) / 255.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := suppressed[y*width+x]
			switch {
			case val >= highThresh && val > 0:
				out.Pix[y*out.Stride+x] = 255
			case val >= lowThresh && val > 0:
				strong := false
				for ky := -1; ky <= 1 && !strong; ky++ {
					for kx := -1; kx <= 1 && !strong; kx++ {
						py := clamp(y+ky, 0, height-1)
						px := clamp(x+kx, 0, width-1)
						if suppressed[py*width+px] >= highThresh {
							strong = true
						}
					}
				}
				if strong {
					out.Pix[y*out.Stride+x] = 255
				}
			}
		}
	}

	return out
}
