// Package smoothing filters per-frame observations over time so the displayed
// label only changes once the classifier has agreed with itself for a whole
// window of frames.
package smoothing

import (
	"fmt"

	"github.com/ironsheep/shape-watch/internal/detection"
)

// DefaultCapacity is the number of frames that must agree before a label is
// shown.
const DefaultCapacity = 5

// Placeholder is the label shown while the history is not unanimous.
const Placeholder = "Detecting shape..."

// Record is one frame's observation.
type Record = detection.Observation

// History is a fixed-capacity FIFO of records. Once full, each push evicts
// the oldest record.
//
// History is not safe for concurrent use; the frame loop owns it.
type History struct {
	records  []Record
	capacity int
	head     int // next write position
	size     int
}

// NewHistory creates an empty history. Capacities below 1 are raised to 1.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		records:  make([]Record, capacity),
		capacity: capacity,
	}
}

// Push appends a record, overwriting the oldest when at capacity.
func (h *History) Push(r Record) {
	h.records[h.head] = r
	h.head = (h.head + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Len returns the number of stored records.
func (h *History) Len() int {
	return h.size
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return h.capacity
}

// Newest returns the most recently pushed record.
func (h *History) Newest() (Record, bool) {
	if h.size == 0 {
		return Record{}, false
	}
	return h.records[(h.head-1+h.capacity)%h.capacity], true
}

// Records returns the stored records from oldest to newest.
func (h *History) Records() []Record {
	if h.size == 0 {
		return nil
	}
	out := make([]Record, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.records[(h.head-h.size+i+h.capacity)%h.capacity]
	}
	return out
}

// Stable reports whether the window is full, every record agrees on shape and
// size, and the shape is known. The returned record is the newest one, so its
// area is the latest measurement. Area never takes part in the comparison.
func (h *History) Stable() (Record, bool) {
	if h.size < h.capacity {
		return Record{}, false
	}
	newest, _ := h.Newest()
	if newest.Shape == detection.ShapeUnknown {
		return Record{}, false
	}
	for _, r := range h.records {
		if r.Shape != newest.Shape || r.Size != newest.Size {
			return Record{}, false
		}
	}
	return newest, true
}

// Label returns the text to display for the current window.
func (h *History) Label() string {
	r, ok := h.Stable()
	if !ok {
		return Placeholder
	}
	return LabelFor(r)
}

// LabelFor formats the label of a stable record.
func LabelFor(r Record) string {
	return fmt.Sprintf("Detected Shape: %s %s", r.Size, r.Shape)
}

// Reset empties the history.
func (h *History) Reset() {
	for i := range h.records {
		h.records[i] = Record{}
	}
	h.head = 0
	h.size = 0
}
