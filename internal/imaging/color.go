package imaging

import (
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// MeanColor returns the average color of img inside rect as "#RRGGBB".
// The rectangle is clipped to the image; an empty intersection yields "".
func MeanColor(img image.Image, rect image.Rectangle) string {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return ""
	}

	var r, g, b float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c, _ := colorful.MakeColor(img.At(x, y))
			r += c.R
			g += c.G
			b += c.B
		}
	}
	n := float64(rect.Dx() * rect.Dy())
	mean := colorful.Color{R: r / n, G: g / n, B: b / n}.Clamped()
	return strings.ToUpper(mean.Hex())
}

// ParseColor parses "#RRGGBB" into an opaque color, falling back to fallback
// when the string is not a valid hex color.
func ParseColor(hex string, fallback color.Color) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c
}
