package detection

import (
	"errors"
	"image"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// ErrTooFewPoints is returned by FitEllipse when the contour cannot define an
// ellipse.
var ErrTooFewPoints = errors.New("at least 5 points are required to fit an ellipse")

// ToR2 converts pixel points to floating point vectors.
func ToR2(points []image.Point) []r2.Point {
	out := make([]r2.Point, len(points))
	for i, p := range points {
		out[i] = r2.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// ArcLength returns the length of the polyline through points. When closed is
// true the segment from the last point back to the first is included.
func ArcLength(points []r2.Point, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var length float64
	for i := 1; i < len(points); i++ {
		length += points[i].Sub(points[i-1]).Norm()
	}
	if closed {
		length += points[0].Sub(points[len(points)-1]).Norm()
	}
	return length
}

// PolygonArea returns the absolute area enclosed by the polygon (shoelace
// formula). Pixel-traced contours measure between pixel centres, so a filled
// n×n square reports (n-1)².
func PolygonArea(points []r2.Point) float64 {
	return math.Abs(Moments(points).M00)
}

// BoundingRect returns the smallest pixel rectangle containing every point.
// Max is exclusive, so a single point has a 1×1 rectangle.
func BoundingRect(points []image.Point) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X > r.Max.X {
			r.Max.X = p.X
		}
		if p.Y > r.Max.Y {
			r.Max.Y = p.Y
		}
	}
	r.Max = r.Max.Add(image.Point{X: 1, Y: 1})
	return r
}

// PolygonMoments holds the spatial moments of a closed polygon up to second
// order. Central moments are derived from the raw ones.
type PolygonMoments struct {
	M00, M10, M01    float64
	M20, M11, M02    float64
	Mu20, Mu11, Mu02 float64
}

// Moments computes polygon moments with Green's theorem. The orientation of
// the polygon does not matter; moments are normalised to a positive M00.
func Moments(points []r2.Point) PolygonMoments {
	var m PolygonMoments
	n := len(points)
	if n < 3 {
		return m
	}
	for i := 0; i < n; i++ {
		a := points[i]
		b := points[(i+1)%n]
		cross := a.X*b.Y - b.X*a.Y
		m.M00 += cross
		m.M10 += cross * (a.X + b.X)
		m.M01 += cross * (a.Y + b.Y)
		m.M20 += cross * (a.X*a.X + a.X*b.X + b.X*b.X)
		m.M11 += cross * (a.X*(2*a.Y+b.Y) + b.X*(a.Y+2*b.Y))
		m.M02 += cross * (a.Y*a.Y + a.Y*b.Y + b.Y*b.Y)
	}
	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	m.M20 /= 12
	m.M11 /= 24
	m.M02 /= 12
	if m.M00 < 0 {
		m.M00, m.M10, m.M01 = -m.M00, -m.M10, -m.M01
		m.M20, m.M11, m.M02 = -m.M20, -m.M11, -m.M02
	}
	if m.M00 != 0 {
		cx := m.M10 / m.M00
		cy := m.M01 / m.M00
		m.Mu20 = m.M20 - cx*m.M10
		m.Mu11 = m.M11 - cx*m.M01
		m.Mu02 = m.M02 - cy*m.M01
	}
	return m
}

// Centroid returns the centre of mass. ok is false for degenerate polygons
// with zero area.
func (m PolygonMoments) Centroid() (c r2.Point, ok bool) {
	if m.M00 == 0 {
		return r2.Point{}, false
	}
	return r2.Point{X: m.M10 / m.M00, Y: m.M01 / m.M00}, true
}

// ApproxPolyDP simplifies a polyline with the Douglas-Peucker algorithm so no
// dropped point lies further than epsilon from the simplified shape.
//
// For closed contours the polygon is split at the point furthest from the
// first point and both halves are simplified independently, so the result
// never contains a repeated closing vertex.
func ApproxPolyDP(points []r2.Point, epsilon float64, closed bool) []r2.Point {
	if len(points) < 3 {
		out := make([]r2.Point, len(points))
		copy(out, points)
		return out
	}
	if !closed {
		return douglasPeucker(points, epsilon)
	}

	far := 0
	farDist := -1.0
	for i, p := range points {
		if d := p.Sub(points[0]).Norm(); d > farDist {
			far, farDist = i, d
		}
	}
	if far == 0 {
		return []r2.Point{points[0]}
	}

	first := douglasPeucker(points[:far+1], epsilon)
	rest := make([]r2.Point, 0, len(points)-far+1)
	rest = append(rest, points[far:]...)
	rest = append(rest, points[0])
	second := douglasPeucker(rest, epsilon)

	out := make([]r2.Point, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

func douglasPeucker(points []r2.Point, epsilon float64) []r2.Point {
	n := len(points)
	if n < 3 {
		out := make([]r2.Point, n)
		copy(out, points)
		return out
	}

	start, end := points[0], points[n-1]
	idx := 0
	maxDist := 0.0
	for i := 1; i < n-1; i++ {
		if d := segmentDistance(points[i], start, end); d > maxDist {
			idx, maxDist = i, d
		}
	}

	if maxDist <= epsilon {
		return []r2.Point{start, end}
	}

	left := douglasPeucker(points[:idx+1], epsilon)
	right := douglasPeucker(points[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(p, a, b r2.Point) float64 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return p.Sub(a).Norm()
	}
	t := p.Sub(a).Dot(ab) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Mul(t))).Norm()
}

// Ellipse is a fitted ellipse. Axes are full lengths, not semi-axes.
type Ellipse struct {
	Center    r2.Point
	MajorAxis float64
	MinorAxis float64
	AngleDeg  float64 // orientation of the major axis, 0 = along +X
}

// AxisRatio is minor/major in [0, 1]; 1 is a circle.
func (e Ellipse) AxisRatio() float64 {
	if e.MajorAxis == 0 {
		return 0
	}
	return e.MinorAxis / e.MajorAxis
}

// FitEllipse fits the ellipse having the same area moments as the closed
// contour.
//
// The second-order central moments of the enclosed region form a covariance
// matrix whose eigenvalues λ give the axes of the equivalent ellipse as
// 4·sqrt(λ). At least five points are required.
func FitEllipse(points []r2.Point) (Ellipse, error) {
	if len(points) < 5 {
		return Ellipse{}, ErrTooFewPoints
	}
	m := Moments(points)
	center, ok := m.Centroid()
	if !ok {
		return Ellipse{}, errors.New("contour encloses no area")
	}

	cov := mat.NewSymDense(2, []float64{
		m.Mu20 / m.M00, m.Mu11 / m.M00,
		m.Mu11 / m.M00, m.Mu02 / m.M00,
	})
	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Ellipse{}, errors.New("failed to factorize contour covariance")
	}
	values := eig.Values(nil) // ascending
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	minor := 4 * math.Sqrt(math.Max(values[0], 0))
	major := 4 * math.Sqrt(math.Max(values[1], 0))
	angle := math.Atan2(vectors.At(1, 1), vectors.At(0, 1)) * 180 / math.Pi

	return Ellipse{
		Center:    center,
		MajorAxis: major,
		MinorAxis: minor,
		AngleDeg:  angle,
	}, nil
}
