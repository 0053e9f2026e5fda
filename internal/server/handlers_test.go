package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestPNG returns PNG bytes of a w x h black frame with an optional white
// rectangle (x0,y0)-(x1,y1). A negative x0 leaves the frame plain.
func createTestPNG(t *testing.T, w, h, x0, y0, x1, y1 int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if x0 >= 0 && x >= x0 && x <= x1 && y >= y0 && y <= y1 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// createCardPNG returns a 640x480 frame holding a centred white card.
func createCardPNG(t *testing.T) []byte {
	t.Helper()
	cardH := int(math.Round(320 / 1.586))
	x0, y0 := 160, (480-cardH)/2
	return createTestPNG(t, 640, 480, x0, y0, x0+319, y0+cardH-1)
}

// createTestImageFile writes data to a temporary file and returns its path.
func createTestImageFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the response.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

// decodeToolResult unmarshals the text content of a successful tool response.
func decodeToolResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("content: got %v", result["content"])
	}
	if content[0]["type"] != "text" {
		t.Errorf("content type: got %v, want text", content[0]["type"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), v); err != nil {
		t.Fatalf("tool result is not JSON: %v\n%s", err, text)
	}
}

func TestHandleToolsCall_DetectCard(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createCardPNG(t))

	var got struct {
		CardDetected bool    `json:"card_detected"`
		Confidence   float64 `json:"confidence"`
	}
	decodeToolResult(t, callTool(t, s, "gasket_detect_card", map[string]interface{}{"path": path}), &got)

	if !got.CardDetected {
		t.Error("card_detected: got false, want true")
	}
	if got.Confidence <= 0 {
		t.Errorf("confidence: got %v, want > 0", got.Confidence)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache entries: got %d, want 1", s.cache.Len())
	}
}

func TestHandleToolsCall_DetectCard_Base64(t *testing.T) {
	s := newTestServer()
	encoded := base64.StdEncoding.EncodeToString(createCardPNG(t))

	tests := []struct {
		name  string
		value string
	}{
		{"plain", encoded},
		{"data url", "data:image/png;base64," + encoded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got struct {
				CardDetected bool `json:"card_detected"`
			}
			decodeToolResult(t, callTool(t, s, "gasket_detect_card", map[string]interface{}{"image_base64": tt.value}), &got)
			if !got.CardDetected {
				t.Error("card_detected: got false, want true")
			}
		})
	}
}

func TestHandleToolsCall_DetectCard_NotAnImage(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, []byte("not-an-image"))

	var got struct {
		CardDetected bool    `json:"card_detected"`
		Confidence   float64 `json:"confidence"`
	}
	decodeToolResult(t, callTool(t, s, "gasket_detect_card", map[string]interface{}{"path": path}), &got)
	if got.CardDetected || got.Confidence != 0 {
		t.Errorf("got %+v, want no card with zero confidence", got)
	}
}

func TestHandleToolsCall_ProcessImage(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createTestPNG(t, 200, 150, -1, 0, 0, 0))

	var got struct {
		ContourPoints [][2]float64 `json:"contour_points"`
		Dimensions    struct {
			WidthMM  float64 `json:"width_mm"`
			HeightMM float64 `json:"height_mm"`
		} `json:"dimensions"`
		CalibrationWarning bool    `json:"calibration_warning"`
		ProcessingScale    float64 `json:"processing_scale"`
	}
	decodeToolResult(t, callTool(t, s, "gasket_process_image", map[string]interface{}{"path": path}), &got)

	if !got.CalibrationWarning {
		t.Error("calibration_warning: got false on a blank frame, want true")
	}
	if len(got.ContourPoints) != 4 {
		t.Errorf("contour_points: got %d points, want the 4-point fallback", len(got.ContourPoints))
	}
	if got.ProcessingScale != 1 {
		t.Errorf("processing_scale: got %v, want 1", got.ProcessingScale)
	}
	if got.Dimensions.WidthMM != 85.6 || got.Dimensions.HeightMM != 54 {
		t.Errorf("dimensions: got %+v, want the whole 85.6 x 54 mm plane", got.Dimensions)
	}
}

func TestHandleToolsCall_ProcessImage_DecodeError(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, []byte("not-an-image"))

	resp := callTool(t, s, "gasket_process_image", map[string]interface{}{"path": path})
	if resp.Error == nil {
		t.Fatal("Expected error for undecodable image")
	}
	if resp.Error.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", resp.Error.Code)
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "invalid image") {
		t.Errorf("Error data: got %v, want it to mention the invalid image", resp.Error.Data)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "gasket_process_image", map[string]interface{}{"path": "/nonexistent/photo.jpg"})
	if resp.Error == nil || resp.Error.Code != -32000 {
		t.Errorf("got %+v, want a -32000 error", resp.Error)
	}
}

func TestHandleToolsCall_MissingImage(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "gasket_detect_card", map[string]interface{}{})
	if resp.Error == nil {
		t.Fatal("Expected error without path or image_base64")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "path or image_base64") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_RenderOverlay(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createTestPNG(t, 100, 100, -1, 0, 0, 0))

	var got OverlayResult
	decodeToolResult(t, callTool(t, s, "gasket_render_overlay", map[string]interface{}{
		"path":           path,
		"contour_points": [][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.75, 0.75}, {0.25, 0.75}},
	}), &got)

	if got.MimeType != "image/png" {
		t.Errorf("mime_type: got %s, want image/png", got.MimeType)
	}
	if got.PointCount != 4 {
		t.Errorf("point_count: got %d, want 4", got.PointCount)
	}
	raw, err := base64.StdEncoding.DecodeString(got.ImageBase64)
	if err != nil {
		t.Fatalf("image_base64 is not base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("overlay is not a PNG: %v", err)
	}
	if _, g, _, _ := img.At(50, 25).RGBA(); g>>8 != 255 {
		t.Errorf("outline pixel green channel: got %d, want 255", g>>8)
	}
}

func TestHandleToolsCall_RenderOverlay_BadPoint(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createTestPNG(t, 10, 10, -1, 0, 0, 0))

	resp := callTool(t, s, "gasket_render_overlay", map[string]interface{}{
		"path":           path,
		"contour_points": [][]float64{{0.1, 0.2, 0.3}},
	})
	if resp.Error == nil {
		t.Fatal("Expected error for a three-coordinate point")
	}
}

func TestHandleToolsCall_ExportDXF(t *testing.T) {
	s := newTestServer()

	var got DXFResult
	decodeToolResult(t, callTool(t, s, "gasket_export_dxf", map[string]interface{}{
		"contour_points": [][2]float64{{0.1, 0.2}, {0.9, 0.2}, {0.9, 0.8}, {0.1, 0.8}},
		"width_mm":       30.5,
		"height_mm":      20.0,
	}), &got)

	if got.Units != "mm" {
		t.Errorf("units: got %s, want mm", got.Units)
	}
	if got.PointCount != 4 {
		t.Errorf("point_count: got %d, want 4", got.PointCount)
	}
	if !strings.Contains(got.DXF, "LWPOLYLINE") || !strings.Contains(got.DXF, "$INSUNITS") {
		t.Error("dxf is missing the polyline or the units header")
	}
	if !strings.HasSuffix(got.DXF, "EOF\n") {
		t.Error("dxf does not end with EOF")
	}
}

func TestHandleToolsCall_ExportDXF_TooFewPoints(t *testing.T) {
	s := newTestServer()
	resp := callTool(t, s, "gasket_export_dxf", map[string]interface{}{
		"contour_points": [][2]float64{{0.1, 0.2}, {0.9, 0.2}},
		"width_mm":       30.5,
		"height_mm":      20.0,
	})
	if resp.Error == nil {
		t.Fatal("Expected error for a two-point outline")
	}
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "at least 3 points") {
		t.Errorf("Error data: got %v", resp.Error.Data)
	}
}

func TestHandleToolsCall_EdgePreview(t *testing.T) {
	s := newTestServer()
	path := createTestImageFile(t, createCardPNG(t))

	tests := []struct {
		name  string
		sigma float64
	}{
		{"default sigma", 0},
		{"joint sigma", 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]interface{}{"path": path}
			if tt.sigma > 0 {
				args["sigma"] = tt.sigma
			}
			var got struct {
				Width       int    `json:"width"`
				Height      int    `json:"height"`
				ImageBase64 string `json:"image_base64"`
			}
			decodeToolResult(t, callTool(t, s, "gasket_edge_preview", args), &got)
			if got.Width != 640 || got.Height != 480 {
				t.Errorf("size: got %dx%d, want 640x480", got.Width, got.Height)
			}
			if got.ImageBase64 == "" {
				t.Error("image_base64 is empty")
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{invalid`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("got %+v, want a -32602 error", resp.Error)
	}
}

func TestExecuteTool_UnknownTool(t *testing.T) {
	s := newTestServer()
	_, err := s.executeTool("nonexistent_tool", json.RawMessage(`{}`))
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer()
	for _, tool := range GetToolDefinitions() {
		if _, err := s.executeTool(tool.Name, json.RawMessage(`{invalid json}`)); err == nil {
			t.Errorf("%s: expected error for invalid JSON", tool.Name)
		}
	}
}
