// Package events records label changes of the frame loop and fans them out
// to sinks: the structured log, an SQLite journal and an MQTT broker.
package events

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/smoothing"
)

// Event is emitted whenever the displayed label changes, including back to
// the placeholder.
type Event struct {
	SessionID string          `json:"session_id"`
	Seq       uint64          `json:"seq"`
	Time      time.Time       `json:"time"`
	Label     string          `json:"label"`
	Shape     detection.Shape `json:"shape"`
	Size      detection.Size  `json:"size"`
	Area      float64         `json:"area"`
	Color     string          `json:"color,omitempty"`
	Stable    bool            `json:"stable"`
}

// Sink receives events. Emit must not block the frame loop for long;
// implementations bound their own I/O.
type Sink interface {
	Emit(ctx context.Context, e Event) error
	Close() error
}

// NewSessionID returns a fresh identifier for one run of the loop.
func NewSessionID() string {
	return uuid.NewString()
}

// Stamper turns label transitions into events carrying the session id and a
// per-session sequence number.
type Stamper struct {
	session string
	seq     atomic.Uint64
	now     func() time.Time
}

// NewStamper stamps events for session.
func NewStamper(session string) *Stamper {
	return &Stamper{session: session, now: time.Now}
}

// Session returns the session id.
func (s *Stamper) Session() string {
	return s.session
}

// FromTransition builds the event for tr. Placeholder transitions carry
// Unknown/None so consumers never see a stale shape.
func (s *Stamper) FromTransition(tr smoothing.Transition) Event {
	e := Event{
		SessionID: s.session,
		Seq:       s.seq.Add(1),
		Time:      s.now().UTC(),
		Label:     tr.Label,
		Shape:     detection.ShapeUnknown,
		Size:      detection.SizeNone,
		Stable:    tr.Stable,
	}
	if tr.Stable {
		e.Shape = tr.Record.Shape
		e.Size = tr.Record.Size
		e.Area = tr.Record.Area
		e.Color = tr.Record.Color
	}
	return e
}

// Multi fans events out to several sinks. Every sink is attempted; failures
// are joined.
type Multi []Sink

// Emit sends e to every sink.
func (m Multi) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink logs through logger, or slog.Default when logger is nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

// Emit logs the event at info level.
func (s *LogSink) Emit(ctx context.Context, e Event) error {
	s.Logger.InfoContext(ctx, "label changed",
		"session", e.SessionID,
		"seq", e.Seq,
		"label", e.Label,
		"shape", string(e.Shape),
		"size", string(e.Size),
		"area", e.Area,
		"color", e.Color,
		"stable", e.Stable,
	)
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error {
	return nil
}
