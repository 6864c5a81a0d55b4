package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/shape-watch/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("shape-watch - live webcam shape classifier")
	fmt.Println()
	fmt.Println("Usage: shape-watch [command]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)           Classify shapes from the configured camera")
	fmt.Println("  devices          List capture devices and preview each one")
	fmt.Println("  replay <dir>     Classify a directory of still frames headless")
	fmt.Println("  serve            Run the MCP server over stdin/stdout")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  SHAPEWATCH_CONFIG=path.yaml       Configuration file")
	fmt.Println("  SHAPEWATCH_DEVICE=0               Camera index")
	fmt.Println("  SHAPEWATCH_LOG_LEVEL=debug        Log level (debug, info, warn, error)")
	fmt.Println("  SHAPEWATCH_HEADLESS=true          Run without windows")
	fmt.Println("  SHAPEWATCH_JOURNAL=events.db      Record label changes to SQLite")
	fmt.Println("  SHAPEWATCH_MQTT_BROKER=host:1883  Publish label changes over MQTT")
	fmt.Println()
	fmt.Println("Press q or Esc in the Frame window to quit.")
}

func main() {
	command := ""
	var args []string
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	switch command {
	case "--version", "-v", "version":
		fmt.Printf("shape-watch %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	case "", "devices", "replay", "serve":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "shape-watch: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout is reserved for the MCP protocol in serve mode.
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shape-watch: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)
	logger.Debug("starting shape-watch", "version", Version, "build_time", BuildTime, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case "devices":
		err = runDevices(ctx, cfg)
	case "replay":
		if len(args) != 1 {
			fmt.Fprintln(os.Stderr, "usage: shape-watch replay <dir>")
			os.Exit(2)
		}
		err = runReplay(ctx, cfg, args[0], logger)
	case "serve":
		err = runServe(ctx, cfg, logger)
	default:
		err = runCamera(ctx, cfg, logger)
	}

	if err != nil {
		logger.Error("shape-watch failed", "command", command, "error", err)
		stop()
		os.Exit(1)
	}
}
