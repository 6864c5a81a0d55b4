package detection

import (
	"image"
	"image/color"
	"testing"
)

func TestFindContours_FilledSquare(t *testing.T) {
	mask := createMask(100, 100)
	fillRect(mask, 20, 20, 60, 60)

	contours := FindContours(mask)
	if len(contours) != 1 {
		t.Fatalf("contours: got %d, want 1", len(contours))
	}

	c := contours[0]
	if c.Hole {
		t.Error("outer border reported as hole")
	}
	if c.Parent != -1 {
		t.Errorf("parent: got %d, want -1", c.Parent)
	}
	if got := BoundingRect(c.Points); got != image.Rect(20, 20, 60, 60) {
		t.Errorf("bounding rect: got %v, want (20,20)-(60,60)", got)
	}
	// Perimeter pixels of a 40x40 square
	if len(c.Points) != 4*39 {
		t.Errorf("border points: got %d, want %d", len(c.Points), 4*39)
	}
	if c.Points[0] != (image.Point{X: 20, Y: 20}) {
		t.Errorf("trace should start at the first raster pixel, got %v", c.Points[0])
	}
}

func TestFindContours_Empty(t *testing.T) {
	if contours := FindContours(createMask(50, 50)); len(contours) != 0 {
		t.Errorf("empty mask: got %d contours, want 0", len(contours))
	}
	if contours := FindContours(createMask(0, 0)); contours != nil {
		t.Errorf("zero-size mask: got %v, want nil", contours)
	}
}

func TestFindContours_SinglePixel(t *testing.T) {
	mask := createMask(10, 10)
	mask.SetGray(4, 6, color.Gray{Y: 255})

	contours := FindContours(mask)
	if len(contours) != 1 {
		t.Fatalf("contours: got %d, want 1", len(contours))
	}
	if len(contours[0].Points) != 1 || contours[0].Points[0] != (image.Point{X: 4, Y: 6}) {
		t.Errorf("points: got %v, want [(4,6)]", contours[0].Points)
	}
}

func TestFindContours_HoleHierarchy(t *testing.T) {
	mask := createMask(100, 100)
	fillRect(mask, 10, 10, 90, 90)
	clearRect(mask, 30, 30, 70, 70)

	contours := FindContours(mask)
	if len(contours) != 2 {
		t.Fatalf("contours: got %d, want 2", len(contours))
	}

	outer, hole := contours[0], contours[1]
	if outer.Hole || outer.Parent != -1 {
		t.Errorf("outer: hole=%v parent=%d, want false/-1", outer.Hole, outer.Parent)
	}
	if !hole.Hole || hole.Parent != 0 {
		t.Errorf("hole: hole=%v parent=%d, want true/0", hole.Hole, hole.Parent)
	}
	// The hole border runs along the foreground pixels around the gap
	if got := BoundingRect(hole.Points); got != image.Rect(29, 29, 71, 71) {
		t.Errorf("hole bounding rect: got %v, want (29,29)-(71,71)", got)
	}
}

func TestFindContours_NestedObject(t *testing.T) {
	mask := createMask(120, 120)
	fillRect(mask, 10, 10, 110, 110)
	clearRect(mask, 25, 25, 95, 95)
	fillRect(mask, 45, 45, 75, 75)

	contours := FindContours(mask)
	if len(contours) != 3 {
		t.Fatalf("contours: got %d, want 3", len(contours))
	}
	inner := contours[2]
	if inner.Hole {
		t.Error("island inside a hole should be an outer border")
	}
	if inner.Parent != 1 {
		t.Errorf("island parent: got %d, want 1 (the hole)", inner.Parent)
	}
}

func TestFindContours_SeparateObjects(t *testing.T) {
	mask := createMask(100, 50)
	fillRect(mask, 5, 5, 25, 25)
	fillRect(mask, 50, 10, 90, 40)

	contours := FindContours(mask)
	if len(contours) != 2 {
		t.Fatalf("contours: got %d, want 2", len(contours))
	}
	for i, c := range contours {
		if c.Hole || c.Parent != -1 {
			t.Errorf("contour %d: hole=%v parent=%d, want top-level outer", i, c.Hole, c.Parent)
		}
	}
}

func TestFindContours_TouchingEdge(t *testing.T) {
	mask := createMask(40, 40)
	fillRect(mask, 0, 0, 40, 40)

	contours := FindContours(mask)
	if len(contours) != 1 {
		t.Fatalf("contours: got %d, want 1", len(contours))
	}
	if got := BoundingRect(contours[0].Points); got != mask.Bounds() {
		t.Errorf("bounding rect: got %v, want %v", got, mask.Bounds())
	}
}

func TestFindContours_OffsetBounds(t *testing.T) {
	full := createMask(60, 60)
	fillRect(full, 20, 20, 40, 40)
	sub := full.SubImage(image.Rect(10, 10, 50, 50)).(*image.Gray)

	contours := FindContours(sub)
	if len(contours) != 1 {
		t.Fatalf("contours: got %d, want 1", len(contours))
	}
	if got := BoundingRect(contours[0].Points); got != image.Rect(20, 20, 40, 40) {
		t.Errorf("bounding rect: got %v, want source coordinates (20,20)-(40,40)", got)
	}
}

// Helper functions

func createMask(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// fillRect sets [x1,x2)x[y1,y2) to foreground.
func fillRect(mask *image.Gray, x1, y1, x2, y2 int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
}

func clearRect(mask *image.Gray, x1, y1, x2, y2 int) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			mask.SetGray(x, y, color.Gray{Y: 0})
		}
	}
}

func fillDisc(mask *image.Gray, cx, cy, r int) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
}

// fillTriangle fills the right triangle with legs along the top and left
// edges starting at (x0,y0).
func fillTriangle(mask *image.Gray, x0, y0, leg int) {
	for y := 0; y < leg; y++ {
		for x := 0; x < leg-y; x++ {
			mask.SetGray(x0+x, y0+y, color.Gray{Y: 255})
		}
	}
}
