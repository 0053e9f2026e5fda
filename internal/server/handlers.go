package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/ironsheep/gasket-measure-mcp/internal/imaging"
	"github.com/ironsheep/gasket-measure-mcp/internal/outline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "gasket_process_image").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if s.debug {
		log.Printf("[DEBUG] tool %s took %v (error: %v)", params.Name, time.Since(start), err)
	}
	if err != nil {
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Measurement
	case "gasket_detect_card":
		return s.handleDetectCard(args)
	case "gasket_process_image":
		return s.handleProcessImage(args)

	// Output
	case "gasket_render_overlay":
		return s.handleRenderOverlay(args)
	case "gasket_export_dxf":
		return s.handleExportDXF(args)

	// Diagnostics
	case "gasket_edge_preview":
		return s.handleEdgePreview(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	mcpErr := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		mcpErr.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   mcpErr,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// imageSource names where a tool reads its photograph from.
type imageSource struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// load returns the encoded image bytes, from the cache for paths.
func (s *Server) load(src imageSource) ([]byte, error) {
	switch {
	case src.Path != "":
		return s.cache.Load(src.Path)
	case src.ImageBase64 != "":
		encoded := src.ImageBase64
		// Accept data URLs as pasted from browsers.
		if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
			encoded = encoded[i+len(";base64,"):]
		}
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid image_base64: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("either path or image_base64 is required")
	}
}

// === Measurement Handlers ===

func (s *Server) handleDetectCard(args json.RawMessage) (interface{}, error) {
	var a imageSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a)
	if err != nil {
		return nil, err
	}
	return s.pipeline.DetectCard(data), nil
}

func (s *Server) handleProcessImage(args json.RawMessage) (interface{}, error) {
	var a imageSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Process(data)
}

// === Output Handlers ===

type renderOverlayArgs struct {
	imageSource
	ContourPoints []geometry.Point `json:"contour_points"`
}

// OverlayResult is the rendered outline image.
type OverlayResult struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	PointCount  int    `json:"point_count"`
}

func (s *Server) handleRenderOverlay(args json.RawMessage) (interface{}, error) {
	var a renderOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	png, err := s.pipeline.RenderOverlay(data, a.ContourPoints)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{
		ImageBase64: base64.StdEncoding.EncodeToString(png),
		MimeType:    "image/png",
		PointCount:  len(a.ContourPoints),
	}, nil
}

type exportDXFArgs struct {
	ContourPoints []geometry.Point `json:"contour_points"`
	WidthMM       float64          `json:"width_mm"`
	HeightMM      float64          `json:"height_mm"`
}

// DXFResult carries a DXF drawing as text.
type DXFResult struct {
	DXF        string  `json:"dxf"`
	Units      string  `json:"units"`
	WidthMM    float64 `json:"width_mm"`
	HeightMM   float64 `json:"height_mm"`
	PointCount int     `json:"point_count"`
}

func (s *Server) handleExportDXF(args json.RawMessage) (interface{}, error) {
	var a exportDXFArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	dxf, err := outline.EncodeDXF(a.ContourPoints, a.WidthMM, a.HeightMM)
	if err != nil {
		return nil, err
	}
	return &DXFResult{
		DXF:        string(dxf),
		Units:      "mm",
		WidthMM:    a.WidthMM,
		HeightMM:   a.HeightMM,
		PointCount: len(a.ContourPoints),
	}, nil
}

// === Diagnostic Handlers ===

type edgePreviewArgs struct {
	imageSource
	Sigma float64 `json:"sigma"`
}

func (s *Server) handleEdgePreview(args json.RawMessage) (interface{}, error) {
	var a edgePreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	cfg := s.pipeline.Config()
	edges := cfg.Card.Edges
	if a.Sigma > 0 {
		edges.Sigma = a.Sigma
	}
	frame, _ := imaging.NormalizeResolution(img, cfg.MaxWidth)
	return imaging.EdgeDetect(frame, edges)
}
