package detection

import "image"

// Contour is a traced border of a foreground region in a binary image.
//
// Points are border pixels in trace order, in the coordinate space of the
// source image. Contours are returned in the order their starting pixel is
// met by a raster scan, so a region's outer border always precedes its holes.
type Contour struct {
	// Points are the 8-connected border pixels in trace order.
	Points []image.Point

	// Hole is true when the border separates a foreground region from an
	// enclosed background region.
	Hole bool

	// Parent is the index of the enclosing contour, or -1 when the contour is
	// enclosed only by the image frame.
	Parent int
}

// 8-neighbourhood in clockwise order (y grows downward), starting east.
var neighbours = [8]image.Point{
	{X: 1, Y: 0},
	{X: 1, Y: 1},
	{X: 0, Y: 1},
	{X: -1, Y: 1},
	{X: -1, Y: 0},
	{X: -1, Y: -1},
	{X: 0, Y: -1},
	{X: 1, Y: -1},
}

func directionOf(from, to image.Point) int {
	d := to.Sub(from)
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 0
}

// FindContours traces every border in a binary image using Suzuki-Abe border
// following, returning both outer borders and hole borders with their
// parent relationships.
//
// Any non-zero pixel is foreground. The image is treated as if surrounded by
// a one pixel background frame, so regions touching the image edge are traced
// normally.
//
// # Algorithm
//
//  1. Raster-scan the padded label grid.
//  2. A foreground pixel with background on its left starts an outer border;
//     a foreground pixel with background on its right starts a hole border.
//  3. Each new border is followed clockwise-then-counterclockwise around the
//     8-neighbourhood, labelling visited pixels with the border number.
//  4. The parent is derived from the last border crossed on the current row
//     and the types of both borders.
func FindContours(binary *image.Gray) []Contour {
	bounds := binary.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Label grid padded by one pixel on every side.
	stride := width + 2
	f := make([]int32, stride*(height+2))
	for y := 0; y < height; y++ {
		row := binary.Pix[y*binary.Stride : y*binary.Stride+width]
		for x, v := range row {
			if v != 0 {
				f[(y+1)*stride+x+1] = 1
			}
		}
	}
	at := func(p image.Point) int32 { return f[p.Y*stride+p.X] }
	set := func(p image.Point, v int32) { f[p.Y*stride+p.X] = v }

	// borderHole[nbd] and borderParent[nbd] describe border number nbd.
	// Border 1 is the image frame, a hole border with no parent.
	borderHole := []bool{false, true}
	borderParent := []int32{-1, -1}

	contours := make([]Contour, 0)
	nbd := int32(1)

	for i := 1; i <= height; i++ {
		lnbd := int32(1)
		for j := 1; j <= width; j++ {
			cur := image.Point{X: j, Y: i}
			fij := at(cur)
			if fij == 0 {
				continue
			}

			var from image.Point
			hole := false
			switch {
			case fij == 1 && at(image.Point{X: j - 1, Y: i}) == 0:
				from = image.Point{X: j - 1, Y: i}
			case fij >= 1 && at(image.Point{X: j + 1, Y: i}) == 0:
				from = image.Point{X: j + 1, Y: i}
				hole = true
				if fij > 1 {
					lnbd = fij
				}
			default:
				if fij != 1 {
					lnbd = abs32(fij)
				}
				continue
			}

			nbd++
			parent := lnbd
			if hole == borderHole[lnbd] {
				parent = borderParent[lnbd]
			}
			borderHole = append(borderHole, hole)
			borderParent = append(borderParent, parent)

			points := traceBorder(cur, from, nbd, at, set)
			for k := range points {
				points[k] = points[k].Add(bounds.Min).Sub(image.Point{X: 1, Y: 1})
			}

			contourParent := -1
			if parent > 1 {
				contourParent = int(parent) - 2
			}
			contours = append(contours, Contour{
				Points: points,
				Hole:   hole,
				Parent: contourParent,
			})

			if v := at(cur); v != 1 {
				lnbd = abs32(v)
			}
		}
	}

	return contours
}

// traceBorder follows one border starting at start, where from is the
// background neighbour that triggered the border. Visited pixels are
// relabelled with nbd (or -nbd when the pixel to their east is background)
// so they are not picked up again by the raster scan.
func traceBorder(start, from image.Point, nbd int32, at func(image.Point) int32, set func(image.Point, int32)) []image.Point {
	// Clockwise search for the first non-zero neighbour.
	d0 := directionOf(start, from)
	first := image.Point{}
	found := false
	for k := 0; k < 8; k++ {
		n := start.Add(neighbours[(d0+k)%8])
		if at(n) != 0 {
			first = n
			found = true
			break
		}
	}
	if !found {
		set(start, -nbd)
		return []image.Point{start}
	}

	points := make([]image.Point, 0, 64)
	prev := first
	cur := start
	for {
		points = append(points, cur)

		// Counterclockwise search starting after prev.
		dPrev := directionOf(cur, prev)
		eastExamined := false
		var next image.Point
		for k := 1; k <= 8; k++ {
			d := (dPrev - k + 16) % 8
			n := cur.Add(neighbours[d])
			if at(n) != 0 {
				next = n
				break
			}
			if d == 0 {
				eastExamined = true
			}
		}

		if eastExamined {
			set(cur, -nbd)
		} else if at(cur) == 1 {
			set(cur, nbd)
		}

		if next == start && cur == first {
			break
		}
		prev = cur
		cur = next
	}

	return points
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
