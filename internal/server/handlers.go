package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/shape-watch/internal/detection"
	"github.com/ironsheep/shape-watch/internal/events"
	"github.com/ironsheep/shape-watch/internal/imaging"
	"github.com/ironsheep/shape-watch/internal/pipeline"
	"github.com/ironsheep/shape-watch/internal/smoothing"
)

// Tool argument limits.
const (
	defaultEventCount = 10
	maxEventCount     = 500
	defaultProbeCount = 5
	maxProbeCount     = 16
)

var (
	// ErrNoJournal is returned by shape_recent_events when the server was
	// started without an event journal.
	ErrNoJournal = errors.New("no event journal configured")

	// ErrNoProber is returned by camera_list when device probing is disabled.
	ErrNoProber = errors.New("camera probing not available")
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shape_classify").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "frame_load":
		return s.handleFrameLoad(args)

	// Shape Classification
	case "shape_classify":
		return s.handleShapeClassify(args)
	case "shape_threshold":
		return s.handleShapeThreshold(args)
	case "shape_annotate":
		return s.handleShapeAnnotate(args)

	// Live Session
	case "shape_recent_events":
		return s.handleRecentEvents(ctx, args)
	case "camera_list":
		return s.handleCameraList(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Still Frame Handlers ===

type frameLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

type regionArgs struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// stillArgs are the arguments shared by the still-image tools. Pointer
// fields distinguish "not given" from zero.
type stillArgs struct {
	Path    string      `json:"path"`
	Region  *regionArgs `json:"region,omitempty"`
	Method  string      `json:"method,omitempty"`
	Level   *int        `json:"level,omitempty"`
	MinArea *float64    `json:"min_area,omitempty"`
}

// load returns the cached frame, cropped to the region when one is given.
func (s *Server) load(a stillArgs) (image.Image, error) {
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Region == nil {
		return img, nil
	}
	return imaging.CropRegion(img, a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
}

func (s *Server) preprocessOptions(a stillArgs) (imaging.PreprocessOptions, error) {
	opts := s.preprocess
	if a.Method != "" {
		opts.Method = imaging.ThresholdMethod(a.Method)
	}
	if a.Level != nil {
		if *a.Level < 0 || *a.Level > 255 {
			return opts, fmt.Errorf("level must be between 0 and 255, got %d", *a.Level)
		}
		opts.Level = uint8(*a.Level)
	}
	return opts, opts.Validate()
}

func (s *Server) newDetector(a stillArgs) (*detection.Detector, error) {
	opts := s.detector
	if a.MinArea != nil {
		opts.MinArea = *a.MinArea
	}
	return detection.NewDetector(opts)
}

func (s *Server) analyze(args json.RawMessage) (*pipeline.Analysis, error) {
	var a stillArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a)
	if err != nil {
		return nil, err
	}
	prep, err := s.preprocessOptions(a)
	if err != nil {
		return nil, err
	}
	det, err := s.newDetector(a)
	if err != nil {
		return nil, err
	}
	return pipeline.Analyze(img, prep, 0, det)
}

// ClassifyResult is the shape_classify response.
type ClassifyResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Label is what the live loop would show if every frame in its window
	// looked like this one.
	Label string `json:"label"`

	Dominant   detection.Observation `json:"dominant"`
	Count      int                   `json:"count"`
	Detections []detection.Detection `json:"detections"`

	// ThresholdLevel is the level applied (Otsu's pick for method otsu).
	ThresholdLevel uint8 `json:"threshold_level"`
}

func (s *Server) handleShapeClassify(args json.RawMessage) (interface{}, error) {
	a, err := s.analyze(args)
	if err != nil {
		return nil, err
	}

	label := smoothing.Placeholder
	if a.Result.Dominant.Shape != detection.ShapeUnknown {
		label = smoothing.LabelFor(a.Result.Dominant)
	}

	return &ClassifyResult{
		Width:          a.Frame.Bounds().Dx(),
		Height:         a.Frame.Bounds().Dy(),
		Label:          label,
		Dominant:       a.Result.Dominant,
		Count:          a.Result.Count,
		Detections:     a.Result.Detections,
		ThresholdLevel: a.Prep.Level,
	}, nil
}

// ThresholdResult is the shape_threshold response.
type ThresholdResult struct {
	*imaging.EncodedImage
	ThresholdLevel   uint8   `json:"threshold_level"`
	ForegroundPixels int     `json:"foreground_pixels"`
	ForegroundRatio  float64 `json:"foreground_ratio"`
}

func (s *Server) handleShapeThreshold(args json.RawMessage) (interface{}, error) {
	var a stillArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a)
	if err != nil {
		return nil, err
	}
	opts, err := s.preprocessOptions(a)
	if err != nil {
		return nil, err
	}
	p, err := imaging.Preprocess(img, opts)
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNG(p.Binary)
	if err != nil {
		return nil, err
	}

	fg := 0
	for _, v := range p.Binary.Pix {
		if v != 0 {
			fg++
		}
	}
	total := p.Binary.Bounds().Dx() * p.Binary.Bounds().Dy()
	ratio := 0.0
	if total > 0 {
		ratio = float64(fg) / float64(total)
	}

	return &ThresholdResult{
		EncodedImage:     encoded,
		ThresholdLevel:   p.Level,
		ForegroundPixels: fg,
		ForegroundRatio:  ratio,
	}, nil
}

func (s *Server) handleShapeAnnotate(args json.RawMessage) (interface{}, error) {
	a, err := s.analyze(args)
	if err != nil {
		return nil, err
	}

	banner := ""
	if a.Result.Dominant.Shape != detection.ShapeUnknown {
		banner = smoothing.LabelFor(a.Result.Dominant)
	}
	return imaging.EncodePNG(imaging.Annotate(a.Frame, a.Overlay(), banner, s.overlay))
}

// === Live Session Handlers ===

type recentEventsArgs struct {
	Count int `json:"count"`
}

// RecentEventsResult is the shape_recent_events response.
type RecentEventsResult struct {
	Count  int            `json:"count"`
	Events []events.Event `json:"events"`
}

func (s *Server) handleRecentEvents(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.journal == nil {
		return nil, ErrNoJournal
	}
	var a recentEventsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Count <= 0 {
		a.Count = defaultEventCount
	}
	if a.Count > maxEventCount {
		a.Count = maxEventCount
	}

	evs, err := s.journal.Recent(ctx, a.Count)
	if err != nil {
		return nil, err
	}
	if evs == nil {
		evs = []events.Event{}
	}
	return &RecentEventsResult{Count: len(evs), Events: evs}, nil
}

type cameraListArgs struct {
	MaxIndex int `json:"max_index"`
}

func (s *Server) handleCameraList(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.prober == nil {
		return nil, ErrNoProber
	}
	var a cameraListArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxIndex <= 0 {
		a.MaxIndex = defaultProbeCount
	}
	if a.MaxIndex > maxProbeCount {
		a.MaxIndex = maxProbeCount
	}

	devices := s.prober(ctx, a.MaxIndex)
	available := 0
	for _, d := range devices {
		if d.OK {
			available++
		}
	}
	return map[string]interface{}{
		"devices":   devices,
		"available": available,
	}, nil
}
