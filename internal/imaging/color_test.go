package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestMeanColor(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  string
	}{
		{"red", color.RGBA{255, 0, 0, 255}, "#FF0000"},
		{"green", color.RGBA{0, 255, 0, 255}, "#00FF00"},
		{"white", color.White, "#FFFFFF"},
		{"black", color.Black, "#000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createInMemoryImage(20, 20, tt.color)
			got := MeanColor(img, img.Bounds())
			if got != tt.want {
				t.Errorf("MeanColor: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMeanColor_Region(t *testing.T) {
	img := createSquareImage(40, 40, 10, 30, color.RGBA{0, 0, 255, 255}, color.Black)

	if got := MeanColor(img, image.Rect(10, 10, 30, 30)); got != "#0000FF" {
		t.Errorf("square region: got %s, want #0000FF", got)
	}
	if got := MeanColor(img, image.Rect(0, 0, 5, 5)); got != "#000000" {
		t.Errorf("background region: got %s, want #000000", got)
	}
}

func TestMeanColor_Mixed(t *testing.T) {
	// Left half white, right half black averages to mid gray
	img := createInMemoryImage(10, 10, color.Black)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			img.Set(x, y, color.White)
		}
	}

	got := MeanColor(img, img.Bounds())
	if got != "#808080" && got != "#7F7F7F" {
		t.Errorf("mixed region: got %s, want mid gray", got)
	}
}

func TestMeanColor_OutsideImage(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	if got := MeanColor(img, image.Rect(20, 20, 30, 30)); got != "" {
		t.Errorf("disjoint region: got %q, want empty", got)
	}
	// Partially overlapping rectangles are clipped
	if got := MeanColor(img, image.Rect(5, 5, 50, 50)); got != "#FFFFFF" {
		t.Errorf("clipped region: got %s, want #FFFFFF", got)
	}
}

func TestParseColor(t *testing.T) {
	fallback := color.RGBA{1, 2, 3, 255}

	r, g, b, _ := ParseColor("#FF8000", fallback).RGBA()
	if r>>8 != 255 || g>>8 != 128 || b>>8 != 0 {
		t.Errorf("ParseColor(#FF8000): got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}

	for _, bad := range []string{"", "red", "#GGGGGG", "FF0000"} {
		if got := ParseColor(bad, fallback); got != fallback {
			t.Errorf("ParseColor(%q): got %v, want fallback", bad, got)
		}
	}
}
