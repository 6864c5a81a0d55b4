package detection

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name   string
		points []r2.Point
		want   float64
	}{
		{"unit square", []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, 1},
		{"10x10 square", []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}, 100},
		{"clockwise order", []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}}, 100},
		{"triangle", []r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 3}}, 6},
		{"degenerate line", []r2.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PolygonArea(tt.points)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PolygonArea: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonArea_PixelContour(t *testing.T) {
	mask := createMask(60, 60)
	fillRect(mask, 10, 10, 30, 30)

	contours := FindContours(mask)
	if len(contours) != 1 {
		t.Fatalf("contours: got %d, want 1", len(contours))
	}

	// Border runs through pixel centres, so a filled 20x20 square encloses 19x19
	if got := PolygonArea(ToR2(contours[0].Points)); got != 361 {
		t.Errorf("area: got %v, want 361", got)
	}
}

func TestArcLength(t *testing.T) {
	square := []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	if got := ArcLength(square, true); got != 40 {
		t.Errorf("closed: got %v, want 40", got)
	}
	if got := ArcLength(square, false); got != 30 {
		t.Errorf("open: got %v, want 30", got)
	}
	if got := ArcLength(square[:1], true); got != 0 {
		t.Errorf("single point: got %v, want 0", got)
	}
}

func TestBoundingRect(t *testing.T) {
	points := []image.Point{{5, 7}, {12, 3}, {8, 20}}
	if got := BoundingRect(points); got != image.Rect(5, 3, 13, 21) {
		t.Errorf("BoundingRect: got %v, want (5,3)-(13,21)", got)
	}
	if got := BoundingRect(nil); got != (image.Rectangle{}) {
		t.Errorf("empty: got %v, want zero rectangle", got)
	}
	if got := BoundingRect([]image.Point{{2, 2}}); got.Dx() != 1 || got.Dy() != 1 {
		t.Errorf("single point: got %v, want 1x1", got)
	}
}

func TestMoments_Centroid(t *testing.T) {
	m := Moments([]r2.Point{{X: 10, Y: 20}, {X: 30, Y: 20}, {X: 30, Y: 60}, {X: 10, Y: 60}})

	c, ok := m.Centroid()
	if !ok {
		t.Fatal("centroid should be defined")
	}
	if math.Abs(c.X-20) > 1e-9 || math.Abs(c.Y-40) > 1e-9 {
		t.Errorf("centroid: got (%v,%v), want (20,40)", c.X, c.Y)
	}

	// Central moments of a w×h rectangle: w³h/12 and wh³/12
	if math.Abs(m.Mu20-20*20*20*40/12.0) > 1e-6 {
		t.Errorf("mu20: got %v, want %v", m.Mu20, 20*20*20*40/12.0)
	}
	if math.Abs(m.Mu02-20*40*40*40/12.0) > 1e-6 {
		t.Errorf("mu02: got %v, want %v", m.Mu02, 20*40*40*40/12.0)
	}
	if math.Abs(m.Mu11) > 1e-6 {
		t.Errorf("mu11 of axis-aligned rectangle: got %v, want 0", m.Mu11)
	}
}

func TestMoments_Degenerate(t *testing.T) {
	m := Moments([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}})
	if _, ok := m.Centroid(); ok {
		t.Error("collinear points should have no centroid")
	}
}

func TestApproxPolyDP(t *testing.T) {
	// Square sampled with extra points along each side
	var points []r2.Point
	for x := 0.0; x < 10; x++ {
		points = append(points, r2.Point{X: x, Y: 0})
	}
	for y := 0.0; y < 10; y++ {
		points = append(points, r2.Point{X: 10, Y: y})
	}
	for x := 10.0; x > 0; x-- {
		points = append(points, r2.Point{X: x, Y: 10})
	}
	for y := 10.0; y > 0; y-- {
		points = append(points, r2.Point{X: 0, Y: y})
	}

	approx := ApproxPolyDP(points, 1, true)
	if len(approx) != 4 {
		t.Fatalf("vertices: got %d (%v), want 4", len(approx), approx)
	}
	want := map[r2.Point]bool{{X: 0, Y: 0}: true, {X: 10, Y: 0}: true, {X: 10, Y: 10}: true, {X: 0, Y: 10}: true}
	for _, p := range approx {
		if !want[p] {
			t.Errorf("unexpected vertex %v", p)
		}
	}
}

func TestApproxPolyDP_Open(t *testing.T) {
	line := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0.1}, {X: 2, Y: -0.1}, {X: 3, Y: 0}, {X: 4, Y: 0}}
	approx := ApproxPolyDP(line, 0.5, false)
	if len(approx) != 2 || approx[0] != line[0] || approx[1] != line[4] {
		t.Errorf("open polyline: got %v, want endpoints only", approx)
	}
}

func TestApproxPolyDP_Short(t *testing.T) {
	in := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	out := ApproxPolyDP(in, 1, true)
	if len(out) != 2 {
		t.Errorf("short input: got %d points, want 2", len(out))
	}
	out[0] = r2.Point{X: 9, Y: 9}
	if in[0] != (r2.Point{}) {
		t.Error("ApproxPolyDP should not alias its input")
	}
}

func TestFitEllipse_Circle(t *testing.T) {
	e, err := FitEllipse(sampleEllipse(r2.Point{X: 100, Y: 80}, 30, 30, 128))
	if err != nil {
		t.Fatalf("FitEllipse failed: %v", err)
	}

	if math.Abs(e.Center.X-100) > 0.01 || math.Abs(e.Center.Y-80) > 0.01 {
		t.Errorf("center: got %v, want (100,80)", e.Center)
	}
	if math.Abs(e.MajorAxis-60) > 0.5 || math.Abs(e.MinorAxis-60) > 0.5 {
		t.Errorf("axes: got %.2f/%.2f, want 60/60", e.MajorAxis, e.MinorAxis)
	}
	if e.AxisRatio() < 0.99 {
		t.Errorf("axis ratio: got %.3f, want ~1", e.AxisRatio())
	}
}

func TestFitEllipse_Elongated(t *testing.T) {
	e, err := FitEllipse(sampleEllipse(r2.Point{X: 0, Y: 0}, 40, 10, 128))
	if err != nil {
		t.Fatalf("FitEllipse failed: %v", err)
	}

	if math.Abs(e.MajorAxis-80) > 0.5 || math.Abs(e.MinorAxis-20) > 0.5 {
		t.Errorf("axes: got %.2f/%.2f, want 80/20", e.MajorAxis, e.MinorAxis)
	}
	if math.Abs(math.Sin(e.AngleDeg*math.Pi/180)) > 0.01 {
		t.Errorf("angle: got %.2f, want major axis along X", e.AngleDeg)
	}
}

func TestFitEllipse_TooFewPoints(t *testing.T) {
	_, err := FitEllipse([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}})
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("error: got %v, want ErrTooFewPoints", err)
	}
}

func TestFitEllipse_NoArea(t *testing.T) {
	_, err := FitEllipse([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}, {X: 4, Y: 0}})
	if err == nil {
		t.Error("expected error for collinear points")
	}
}

// sampleEllipse returns n points on an axis-aligned ellipse with semi-axes a
// (along X) and b (along Y).
func sampleEllipse(center r2.Point, a, b float64, n int) []r2.Point {
	points := make([]r2.Point, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = r2.Point{X: center.X + a*math.Cos(theta), Y: center.Y + b*math.Sin(theta)}
	}
	return points
}
