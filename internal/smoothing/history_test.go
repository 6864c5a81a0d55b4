package smoothing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/shape-watch/internal/detection"
)

func rec(shape detection.Shape, size detection.Size, area float64) Record {
	return Record{Shape: shape, Size: size, Area: area}
}

var (
	square  = rec(detection.ShapeSquare, detection.SizeMedium, 9000)
	ellipse = rec(detection.ShapeEllipse, detection.SizeLarge, 25000)
	unknown = detection.UnknownObservation()
)

func TestNewHistory_Capacity(t *testing.T) {
	tests := []struct {
		capacity int
		want     int
	}{
		{5, 5},
		{1, 1},
		{0, 1},
		{-3, 1},
	}

	for _, tt := range tests {
		if got := NewHistory(tt.capacity).Cap(); got != tt.want {
			t.Errorf("NewHistory(%d).Cap(): got %d, want %d", tt.capacity, got, tt.want)
		}
	}
}

func TestHistory_FIFOEviction(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Push(rec(detection.ShapeSquare, detection.SizeSmall, float64(i)))
	}

	if h.Len() != 3 {
		t.Fatalf("len: got %d, want 3", h.Len())
	}
	want := []Record{
		rec(detection.ShapeSquare, detection.SizeSmall, 3),
		rec(detection.ShapeSquare, detection.SizeSmall, 4),
		rec(detection.ShapeSquare, detection.SizeSmall, 5),
	}
	if diff := cmp.Diff(want, h.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	newest, ok := h.Newest()
	if !ok || newest.Area != 5 {
		t.Errorf("newest: got %+v (ok=%v), want area 5", newest, ok)
	}
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)

	if h.Records() != nil {
		t.Error("empty history should have no records")
	}
	if _, ok := h.Newest(); ok {
		t.Error("empty history should have no newest record")
	}
	if _, ok := h.Stable(); ok {
		t.Error("empty history should not be stable")
	}
	if got := h.Label(); got != Placeholder {
		t.Errorf("label: got %q, want placeholder", got)
	}
}

func TestHistory_Stable(t *testing.T) {
	tests := []struct {
		name       string
		records    []Record
		wantStable bool
		wantLabel  string
	}{
		{
			name:       "not yet full",
			records:    []Record{square, square, square, square},
			wantStable: false,
			wantLabel:  Placeholder,
		},
		{
			name:       "unanimous",
			records:    []Record{square, square, square, square, square},
			wantStable: true,
			wantLabel:  "Detected Shape: Medium Square",
		},
		{
			name:       "one dissenter",
			records:    []Record{square, square, ellipse, square, square},
			wantStable: false,
			wantLabel:  Placeholder,
		},
		{
			name: "size disagrees",
			records: []Record{square, square, square, square,
				rec(detection.ShapeSquare, detection.SizeLarge, 21000)},
			wantStable: false,
			wantLabel:  Placeholder,
		},
		{
			name:       "unanimous unknown",
			records:    []Record{unknown, unknown, unknown, unknown, unknown},
			wantStable: false,
			wantLabel:  Placeholder,
		},
		{
			name: "area ignored",
			records: []Record{
				rec(detection.ShapeEllipse, detection.SizeLarge, 20000),
				rec(detection.ShapeEllipse, detection.SizeLarge, 22000),
				rec(detection.ShapeEllipse, detection.SizeLarge, 24000),
				rec(detection.ShapeEllipse, detection.SizeLarge, 26000),
				rec(detection.ShapeEllipse, detection.SizeLarge, 28000),
			},
			wantStable: true,
			wantLabel:  "Detected Shape: Large Ellipse",
		},
		{
			name:       "dissenter evicted",
			records:    []Record{ellipse, square, square, square, square, square},
			wantStable: true,
			wantLabel:  "Detected Shape: Medium Square",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(5)
			for _, r := range tt.records {
				h.Push(r)
			}

			_, stable := h.Stable()
			if stable != tt.wantStable {
				t.Errorf("stable: got %v, want %v", stable, tt.wantStable)
			}
			if got := h.Label(); got != tt.wantLabel {
				t.Errorf("label: got %q, want %q", got, tt.wantLabel)
			}
		})
	}
}

func TestHistory_StableReturnsNewest(t *testing.T) {
	h := NewHistory(3)
	h.Push(rec(detection.ShapeRectangle, detection.SizeSmall, 1500))
	h.Push(rec(detection.ShapeRectangle, detection.SizeSmall, 1600))
	h.Push(rec(detection.ShapeRectangle, detection.SizeSmall, 1700))

	got, ok := h.Stable()
	if !ok {
		t.Fatal("history should be stable")
	}
	if diff := cmp.Diff(rec(detection.ShapeRectangle, detection.SizeSmall, 1700), got); diff != "" {
		t.Errorf("stable record mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_CapacityOne(t *testing.T) {
	h := NewHistory(1)

	h.Push(square)
	if got := h.Label(); got != "Detected Shape: Medium Square" {
		t.Errorf("label: got %q", got)
	}
	h.Push(unknown)
	if got := h.Label(); got != Placeholder {
		t.Errorf("label after unknown: got %q, want placeholder", got)
	}
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(2)
	h.Push(square)
	h.Push(square)

	h.Reset()

	if h.Len() != 0 {
		t.Errorf("len after reset: got %d, want 0", h.Len())
	}
	if _, ok := h.Stable(); ok {
		t.Error("reset history should not be stable")
	}
	h.Push(ellipse)
	if diff := cmp.Diff([]Record{ellipse}, h.Records()); diff != "" {
		t.Errorf("records after reset mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelFor(t *testing.T) {
	got := LabelFor(rec(detection.ShapeRectangle, detection.SizeSmall, 0))
	if got != "Detected Shape: Small Rectangle" {
		t.Errorf("LabelFor: got %q", got)
	}
}
