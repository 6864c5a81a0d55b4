// Package server implements the MCP (Model Context Protocol) server for the
// shape classifier.
//
// The server exposes the same preprocessing and classification the live
// camera loop runs, applied to still images, so a client can check how a
// frame would be labelled and tune thresholds without a camera attached.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Still Frames:
//   - frame_load: Load a frame and get metadata
//   - shape_classify: Classify shapes and report the dominant one
//   - shape_threshold: Return the binary mask as PNG
//   - shape_annotate: Return the frame with outlines and names drawn
//
// Live Session:
//   - shape_recent_events: Recent stable-label changes (needs a journal)
//   - camera_list: Probe capture devices (needs a prober)
//
// # Frame Caching
//
// Frames are cached by path and reloaded when the file's modification time
// changes. The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.WithJournal(journal))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
