package imaging

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// OverlayStyle holds the colors used when annotating a frame. Colors are hex
// strings ("#RRGGBB").
type OverlayStyle struct {
	OutlineColor string `yaml:"outline_color" json:"outline_color"`
	LabelColor   string `yaml:"label_color" json:"label_color"`
	BannerColor  string `yaml:"banner_color" json:"banner_color"`

	// Thickness is the outline width in pixels.
	Thickness int `yaml:"thickness" json:"thickness"`
}

// DefaultOverlayStyle draws green outlines and banner with white shape
// labels.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		OutlineColor: "#00FF00",
		LabelColor:   "#FFFFFF",
		BannerColor:  "#00FF00",
		Thickness:    2,
	}
}

// OverlayShape is one outline to draw, with an optional label placed near
// Anchor.
type OverlayShape struct {
	Outline []image.Point
	Label   string
	Anchor  image.Point
}

// Banner position and per-shape label offset, in pixels.
var (
	bannerOrigin = image.Point{X: 10, Y: 30}
	labelOffset  = image.Point{X: -20, Y: -20}
)

// Annotate copies frame and draws every shape outline, each shape's label at
// its anchor offset by (-20,-20), and the banner text at (10,30).
func Annotate(frame image.Image, shapes []OverlayShape, banner string, style OverlayStyle) *image.RGBA {
	bounds := frame.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, frame, bounds.Min, draw.Src)

	outline := ParseColor(style.OutlineColor, color.RGBA{0, 255, 0, 255})
	label := ParseColor(style.LabelColor, color.White)
	bannerColor := ParseColor(style.BannerColor, color.RGBA{0, 255, 0, 255})
	thickness := style.Thickness
	if thickness < 1 {
		thickness = 1
	}

	for _, s := range shapes {
		drawPolyline(out, s.Outline, outline, thickness)
	}
	for _, s := range shapes {
		if s.Label == "" {
			continue
		}
		drawText(out, s.Anchor.Add(labelOffset), s.Label, label)
	}
	if banner != "" {
		drawText(out, bounds.Min.Add(bannerOrigin), banner, bannerColor)
	}

	return out
}

// drawPolyline draws a closed polyline through points.
func drawPolyline(img *image.RGBA, points []image.Point, c color.Color, thickness int) {
	if len(points) == 0 {
		return
	}
	for i := range points {
		drawLine(img, points[i], points[(i+1)%len(points)], c, thickness)
	}
}

// drawLine rasterises a segment with Bresenham's algorithm, stamping a
// thickness×thickness square at each step.
func drawLine(img *image.RGBA, a, b image.Point, c color.Color, thickness int) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	half := thickness / 2
	for {
		stamp := image.Rect(x-half, y-half, x-half+thickness, y-half+thickness)
		draw.Draw(img, stamp.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// drawText writes s with its baseline starting at p.
func drawText(img *image.RGBA, p image.Point, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
