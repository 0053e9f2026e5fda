// Package server implements the MCP (Model Context Protocol) server for gasket
// measurement.
//
// The server speaks JSON-RPC 2.0 over stdio and exposes the measurement pipeline as
// tools, so an assistant can check a photograph for the reference card, measure the
// joint, draw its outline and export it for cutting.
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
// Measurement:
//   - gasket_detect_card: Check that the bank card reference is in view
//   - gasket_process_image: Measure the joint and return its normalised outline
//
// Output:
//   - gasket_render_overlay: Draw an outline onto the photograph (PNG)
//   - gasket_export_dxf: Export an outline as a millimetre DXF drawing
//
// Diagnostics:
//   - gasket_edge_preview: Show the adaptive edge map the detectors work on
//
// Image tools accept either a file path or base64-encoded image bytes.
//
// # Image Caching
//
// File contents are cached by path for the lifetime of the process, so repeated
// calls on the same photograph (detect, then process, then overlay) read it from disk
// once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A missing card or joint is not an error; it is reported in the tool result.
//
// # Usage
//
//	srv := server.New(pipeline.New(pipeline.DefaultConfig()))
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
