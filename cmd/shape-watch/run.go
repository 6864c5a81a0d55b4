package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ironsheep/shape-watch/internal/capture"
	"github.com/ironsheep/shape-watch/internal/config"
	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/events"
	"github.com/ironsheep/shape-watch/internal/pipeline"
	"github.com/ironsheep/shape-watch/internal/replay"
	"github.com/ironsheep/shape-watch/internal/server"
)

// Camera finder settings.
const (
	probeCount   = 10
	previewDelay = 2 * time.Second
)

// newLogger builds the text logger at the configured level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// openSinks builds the event fan-out for a session: always the log, plus the
// journal and MQTT publisher when configured. An unreachable broker is not
// fatal; the publisher keeps reconnecting in the background.
func openSinks(ctx context.Context, cfg *config.Config, session string, logger *slog.Logger) (events.Sink, error) {
	sinks := events.Multi{events.NewLogSink(logger)}

	if cfg.Journal.Path != "" {
		journal, err := events.OpenJournal(cfg.Journal.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("recording label events", "journal", cfg.Journal.Path)
		sinks = append(sinks, journal)
	}

	if cfg.MQTT.Broker != "" {
		pub := events.NewMQTTPublisher(cfg.MQTT, session)
		if err := pub.Connect(ctx); err != nil {
			logger.Warn("mqtt broker unavailable, events will be dropped until it connects",
				"broker", cfg.MQTT.Broker, "error", err)
		}
		logger.Info("publishing label events", "topic", pub.Topic())
		sinks = append(sinks, pub)
	}

	return sinks, nil
}

func newRunner(ctx context.Context, cfg *config.Config, src pipeline.Source, display pipeline.Display, logger *slog.Logger) (*pipeline.Runner, func(), error) {
	det, err := detection.NewDetector(cfg.Detection)
	if err != nil {
		return nil, nil, err
	}

	session := events.NewSessionID()
	sink, err := openSinks(ctx, cfg, session, logger)
	if err != nil {
		return nil, nil, err
	}

	opts := pipeline.Options{
		Preprocess: cfg.Preprocess,
		Overlay:    cfg.Display.Overlay,
		MaxWidth:   cfg.Display.MaxWidth,
		KeyDelay:   cfg.Display.KeyDelay,
	}
	r := pipeline.NewRunner(src, display, sink, det, cfg.Smoothing.Window, opts)
	r.Stamper = events.NewStamper(session)
	r.Logger = logger

	cleanup := func() {
		if err := sink.Close(); err != nil {
			logger.Warn("failed to close event sinks", "error", err)
		}
	}
	return r, cleanup, nil
}

// runCamera is the live loop: camera in, "Frame" and "Threshold" windows out.
func runCamera(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("opening camera",
		"device", cfg.Camera.Device,
		"backend", string(cfg.Camera.Backend),
		"opencv", capture.Version(),
	)
	cam, err := capture.OpenCamera(cfg.Camera)
	if err != nil {
		return err
	}
	defer cam.Close()

	w, h, fps := cam.Properties()
	logger.Debug("capture properties", "width", w, "height", h, "fps", fps)

	var display pipeline.Display
	if !cfg.Display.Headless {
		d := capture.NewDisplay(cfg.Display.FrameTitle, cfg.Display.ThresholdTitle)
		defer d.Close()
		display = d
	}

	r, cleanup, err := newRunner(ctx, cfg, cam, display, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return r.Run(ctx)
}

// runReplay classifies a directory of stills without windows and prints the
// final label.
func runReplay(ctx context.Context, cfg *config.Config, dir string, logger *slog.Logger) error {
	src, err := replay.NewDirSource(dir, replay.WithLoop(cfg.Replay.Loop))
	if err != nil {
		return err
	}
	defer src.Close()
	logger.Info("replaying frames", "dir", dir, "frames", src.Len(), "loop", cfg.Replay.Loop)

	r, cleanup, err := newRunner(ctx, cfg, src, nil, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	r.Options.MaxFrames = cfg.Replay.MaxFrames

	if err := r.Run(ctx); err != nil {
		return err
	}

	stats := r.Stats()
	fmt.Printf("%s\n", stats.Label)
	fmt.Printf("  Frames: %d (stable %d, transitions %d)\n", stats.Frames, stats.StableFrames, stats.Transitions)
	return nil
}

// runDevices is the camera finder: probe, print a table, then preview each
// working device unless headless.
func runDevices(ctx context.Context, cfg *config.Config) error {
	devices := capture.ProbeDevices(ctx, probeCount, cfg.Camera.Backend)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tRESOLUTION\tFPS\tSTATUS")
	for _, d := range devices {
		status := "ok"
		if !d.OK {
			status = d.Error
		}
		fmt.Fprintf(tw, "%d\t%s\t%dx%d\t%.1f\t%s\n", d.Index, d.Name, d.Width, d.Height, d.FPS, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if cfg.Display.Headless {
		return nil
	}
	return capture.Preview(ctx, devices, previewDelay)
}

// runServe runs the MCP server, with the journal (read side) and the camera
// prober available to its tools.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	opts := []server.Option{
		server.WithVersion(Version),
		server.WithLogger(logger),
		server.WithPreprocessOptions(cfg.Preprocess),
		server.WithDetectorOptions(cfg.Detection),
		server.WithOverlayStyle(cfg.Display.Overlay),
		server.WithProber(func(ctx context.Context, maxIndex int) []capture.DeviceInfo {
			return capture.ProbeDevices(ctx, maxIndex, cfg.Camera.Backend)
		}),
	}

	if cfg.Journal.Path != "" {
		journal, err := events.OpenJournal(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer journal.Close()
		opts = append(opts, server.WithJournal(journal))
	}

	logger.Debug("mcp server listening on stdio")
	return server.New(opts...).Run(ctx)
}
