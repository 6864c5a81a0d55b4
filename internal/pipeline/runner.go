// Package pipeline runs the per-frame loop: acquire, preprocess, detect,
// smooth, report and display.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/events"
	"github.com/ironsheep/shape-watch/internal/imaging"
	"github.com/ironsheep/shape-watch/internal/smoothing"
)

// Source yields frames. Implementations return io.EOF when they run out.
type Source interface {
	Read(ctx context.Context) (image.Image, error)
}

// Display shows the annotated frame and the mask, waiting up to delay
// milliseconds for input. quit is true when the user asked to stop.
type Display interface {
	Show(frame image.Image, mask *image.Gray, delay int) (quit bool, err error)
	Close() error
}

// Options tunes the loop.
type Options struct {
	Preprocess imaging.PreprocessOptions `yaml:"preprocess" json:"preprocess"`
	Overlay    imaging.OverlayStyle      `yaml:"overlay" json:"overlay"`

	// MaxWidth downscales wider frames before processing (0 disables).
	MaxWidth int `yaml:"max_width" json:"max_width"`

	// KeyDelay is how long each frame waits for a key press, in milliseconds.
	KeyDelay int `yaml:"key_delay" json:"key_delay"`

	// MaxFrames stops the loop after this many frames (0 runs until the
	// source ends or the user quits).
	MaxFrames int `yaml:"max_frames" json:"max_frames"`
}

// DefaultOptions matches the live camera loop.
func DefaultOptions() Options {
	return Options{
		Preprocess: imaging.DefaultPreprocessOptions(),
		Overlay:    imaging.DefaultOverlayStyle(),
		KeyDelay:   1,
	}
}

// Stats summarises a run.
type Stats struct {
	Frames       int           `json:"frames"`
	StableFrames int           `json:"stable_frames"`
	Transitions  int           `json:"transitions"`
	SinkErrors   int           `json:"sink_errors"`
	Elapsed      time.Duration `json:"elapsed"`
	Label        string        `json:"label"`
}

// FPS is the effective frame rate over the run.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// StopReason says why Run returned.
type StopReason string

const (
	StopQuitKey     StopReason = "quit key"
	StopEndOfStream StopReason = "end of stream"
	StopCancelled   StopReason = "cancelled"
	StopMaxFrames   StopReason = "frame limit"
	StopReadError   StopReason = "read error"
)

// Runner owns one run of the loop. Display and Sink may be nil.
type Runner struct {
	Source   Source
	Display  Display
	Sink     events.Sink
	Detector *detection.Detector
	Tracker  *smoothing.Tracker
	Stamper  *events.Stamper
	Options  Options
	Logger   *slog.Logger

	stats  Stats
	reason StopReason
}

// NewRunner wires a runner with a fresh tracker of the given window size and
// a new session. Display and sink are optional.
func NewRunner(src Source, display Display, sink events.Sink, det *detection.Detector, window int, opts Options) *Runner {
	return &Runner{
		Source:   src,
		Display:  display,
		Sink:     sink,
		Detector: det,
		Tracker:  smoothing.NewTracker(smoothing.NewHistory(window)),
		Stamper:  events.NewStamper(events.NewSessionID()),
		Options:  opts,
		Logger:   slog.Default(),
	}
}

// Run processes frames until the source ends, the user presses q/Q/Esc, the
// frame limit is reached or ctx is cancelled.
//
// A failed read ends the loop without retrying. io.EOF and cancellation are
// normal endings and return nil; any other read error is returned wrapped.
func (r *Runner) Run(ctx context.Context) error {
	if r.Source == nil || r.Detector == nil || r.Tracker == nil {
		return fmt.Errorf("runner requires a source, a detector and a tracker")
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
	if r.Stamper == nil {
		r.Stamper = events.NewStamper(events.NewSessionID())
	}

	r.stats = Stats{Label: r.Tracker.Label()}
	start := time.Now()
	defer func() {
		r.stats.Elapsed = time.Since(start)
		r.Logger.Info("frame loop stopped",
			"session", r.Stamper.Session(),
			"reason", string(r.reason),
			"frames", r.stats.Frames,
			"stable_frames", r.stats.StableFrames,
			"transitions", r.stats.Transitions,
			"sink_errors", r.stats.SinkErrors,
			"fps", fmt.Sprintf("%.1f", r.stats.FPS()),
		)
	}()

	r.Logger.Info("frame loop started",
		"session", r.Stamper.Session(),
		"headless", r.Display == nil,
		"window", r.Tracker.History().Cap(),
	)

	for {
		if err := ctx.Err(); err != nil {
			r.reason = StopCancelled
			return nil
		}
		if r.Options.MaxFrames > 0 && r.stats.Frames >= r.Options.MaxFrames {
			r.reason = StopMaxFrames
			return nil
		}

		img, err := r.Source.Read(ctx)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				r.reason = StopEndOfStream
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				r.reason = StopCancelled
				return nil
			default:
				r.reason = StopReadError
				r.Logger.Error("frame read failed", "error", err)
				return fmt.Errorf("failed to read frame: %w", err)
			}
		}

		quit, err := r.step(ctx, img)
		if err != nil {
			return err
		}
		if quit {
			r.reason = StopQuitKey
			return nil
		}
	}
}

// step processes one frame and reports whether the user asked to quit.
func (r *Runner) step(ctx context.Context, img image.Image) (bool, error) {
	a, err := Analyze(img, r.Options.Preprocess, r.Options.MaxWidth, r.Detector)
	if err != nil {
		return false, fmt.Errorf("failed to analyze frame: %w", err)
	}
	r.stats.Frames++

	obs := a.Result.Dominant
	r.Logger.Debug("frame analyzed",
		"frame", r.stats.Frames,
		"detections", a.Result.Count,
		"shape", string(obs.Shape),
		"size", string(obs.Size),
		"area", obs.Area,
	)

	if tr, changed := r.Tracker.Update(obs); changed {
		r.stats.Transitions++
		r.stats.Label = tr.Label
		r.emit(ctx, tr)
	}
	if _, ok := r.Tracker.History().Stable(); ok {
		r.stats.StableFrames++
	}

	if r.Display == nil {
		return false, nil
	}

	annotated := imaging.Annotate(a.Frame, a.Overlay(), r.Tracker.Label(), r.Options.Overlay)
	quit, err := r.Display.Show(annotated, a.Prep.Binary, r.Options.KeyDelay)
	if err != nil {
		return false, fmt.Errorf("failed to display frame: %w", err)
	}
	return quit, nil
}

func (r *Runner) emit(ctx context.Context, tr smoothing.Transition) {
	if r.Sink == nil {
		return
	}
	if err := r.Sink.Emit(ctx, r.Stamper.FromTransition(tr)); err != nil {
		r.stats.SinkErrors++
		r.Logger.Warn("failed to emit label event", "error", err)
	}
}

// Stats returns the counters of the last (or current) run.
func (r *Runner) Stats() Stats {
	return r.stats
}

// StopReason returns why the last run ended.
func (r *Runner) StopReason() StopReason {
	return r.reason
}
