package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// regionProperty is the optional crop rectangle shared by the still-image
// tools.
func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
			"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
			"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
			"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
		},
		"required":    []string{"x1", "y1", "x2", "y2"},
		"description": "Optional region to analyze. If omitted, analyzes the entire image.",
	}
}

// thresholdProperties are the preprocessing overrides shared by the
// still-image tools.
func thresholdProperties() map[string]interface{} {
	return map[string]interface{}{
		"method": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"binary", "binary_inv", "otsu", "adaptive", "edges"},
			"description": "Thresholding method (default binary: bright shapes on a dark background)",
		},
		"level": map[string]interface{}{
			"type":        "integer",
			"description": "Threshold level 0-255 for binary and binary_inv (default 60). Pixels strictly brighter are foreground.",
		},
	}
}

func stillImageSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"region": regionProperty(),
	}
	for k, v := range thresholdProperties() {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	minArea := map[string]interface{}{
		"min_area": map[string]interface{}{
			"type":        "number",
			"description": "Ignore contours smaller than this many square pixels (default 1000)",
		},
	}

	return []Tool{
		// Still frames
		{
			Name:        "frame_load",
			Description: "Load a still frame and return its dimensions, format and file size. The frame is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Shape Classification
		{
			Name:        "shape_classify",
			Description: "Classify the shapes in a still image as Square, Rectangle or Ellipse (Unknown otherwise), with Small/Medium/Large size buckets. Returns every detection plus the dominant (largest classified) shape and its one-frame label.",
			InputSchema: stillImageSchema(minArea),
		},
		{
			Name:        "shape_threshold",
			Description: "Return the binary mask the classifier sees, as base64-encoded PNG. Use this to tune the threshold method and level.",
			InputSchema: stillImageSchema(nil),
		},
		{
			Name:        "shape_annotate",
			Description: "Draw detected shape outlines and names onto the image and return it as base64-encoded PNG.",
			InputSchema: stillImageSchema(minArea),
		},

		// Live Session
		{
			Name:        "shape_recent_events",
			Description: "List the most recent stable-label changes recorded by the live loop, newest first. Requires a configured journal.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of events to return (default 10, max 500)",
						"default":     10,
					},
				},
			},
		},
		{
			Name:        "camera_list",
			Description: "Probe camera indices and report which ones deliver frames, with their resolution and frame rate.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_index": map[string]interface{}{
						"type":        "integer",
						"description": "Probe device indices 0 to max_index-1 (default 5)",
						"default":     5,
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
