package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/shape-watch/internal/capture"
	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/events"
	"github.com/ironsheep/shape-watch/internal/imaging"
)

// EventReader returns the most recent label events, newest first.
type EventReader interface {
	Recent(ctx context.Context, n int) ([]events.Event, error)
}

// Prober lists capture devices with indices up to maxIndex.
type Prober func(ctx context.Context, maxIndex int) []capture.DeviceInfo

// Server handles MCP protocol communication
type Server struct {
	cache      *imaging.FrameCache
	preprocess imaging.PreprocessOptions
	detector   detection.DetectorOptions
	overlay    imaging.OverlayStyle
	journal    EventReader
	prober     Prober
	version    string
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithJournal enables shape_recent_events.
func WithJournal(r EventReader) Option {
	return func(s *Server) { s.journal = r }
}

// WithProber enables camera_list.
func WithProber(p Prober) Option {
	return func(s *Server) { s.prober = p }
}

// WithPreprocessOptions sets the defaults that tool arguments override.
func WithPreprocessOptions(opts imaging.PreprocessOptions) Option {
	return func(s *Server) { s.preprocess = opts }
}

// WithDetectorOptions sets the defaults that tool arguments override.
func WithDetectorOptions(opts detection.DetectorOptions) Option {
	return func(s *Server) { s.detector = opts }
}

// WithOverlayStyle sets the colors used by shape_annotate.
func WithOverlayStyle(style imaging.OverlayStyle) Option {
	return func(s *Server) { s.overlay = style }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger. Logs must not go to stdout.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts ...Option) *Server {
	s := &Server{
		cache:      imaging.NewFrameCache(),
		preprocess: imaging.DefaultPreprocessOptions(),
		detector:   detection.DefaultDetectorOptions(),
		overlay:    imaging.DefaultOverlayStyle(),
		version:    "dev",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves requests from stdin, writing responses to stdout.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads line-delimited JSON-RPC requests from r and writes responses
// to w until r is exhausted or ctx is cancelled. Cancellation returns at once
// even while a read is blocked; the reading goroutine then ends with r.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lines := make(chan []byte)
	var readErr error
	go func() {
		defer close(lines)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr = scanner.Err()
	}()

	encoder := json.NewEncoder(w)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				if readErr != nil {
					return fmt.Errorf("scanner error: %w", readErr)
				}
				return nil
			}
			line = l
		}

		if ctx.Err() != nil {
			return nil
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "shape-watch",
				"version": s.version,
			},
		},
	}
}
