package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageSourceProperties returns the schema properties shared by every tool that reads
// a photograph. Exactly one of them should be given.
func imageSourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the photograph (JPEG, PNG, GIF, WebP, BMP or TIFF)",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image bytes, used when no path is given",
		},
	}
}

// contourPointsProperty describes a normalised outline as returned by
// gasket_process_image.
func contourPointsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Outline as [x, y] pairs in [0,1] image coordinates, e.g. contour_points from gasket_process_image",
		"items": map[string]interface{}{
			"type":     "array",
			"items":    map[string]interface{}{"type": "number"},
			"minItems": 2,
			"maxItems": 2,
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Measurement
		{
			Name:        "gasket_detect_card",
			Description: "Check whether a bank card (85.6 x 53.98 mm) is visible in the photograph. The card is the scale reference; without it measurements are uncalibrated. Returns card_detected and an advisory confidence in [0,1].",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
			},
		},
		{
			Name:        "gasket_process_image",
			Description: "Measure the gasket or joint in a photograph containing a bank card. Returns the outline as normalised contour_points, its width_mm and height_mm (longest and shortest side of the minimum-area rectangle), and calibration_warning when no card was found and the millimetre values are estimates.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageSourceProperties(),
			},
		},

		// Output
		{
			Name:        "gasket_render_overlay",
			Description: "Draw a closed outline onto the photograph and return it as base64-encoded PNG. Use it to show the user what was measured.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageSourceProperties(), map[string]interface{}{
					"contour_points": contourPointsProperty(),
				}),
				"required": []string{"contour_points"},
			},
		},
		{
			Name:        "gasket_export_dxf",
			Description: "Export an outline as an ASCII DXF drawing in millimetres (one closed LWPOLYLINE). The outline's bounding box is scaled to exactly width_mm x height_mm.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"contour_points": contourPointsProperty(),
					"width_mm": map[string]interface{}{
						"type":        "number",
						"description": "Outline width in millimetres",
					},
					"height_mm": map[string]interface{}{
						"type":        "number",
						"description": "Outline height in millimetres",
					},
				},
				"required": []string{"contour_points", "width_mm", "height_mm"},
			},
		},

		// Diagnostics
		{
			Name:        "gasket_edge_preview",
			Description: "Render the adaptive edge map used for card detection as base64-encoded PNG, with the thresholds chosen from the image median. Useful to understand why a card was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(imageSourceProperties(), map[string]interface{}{
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Threshold spread around the median intensity. Default 0.33 (card); the joint stage uses 0.4",
						"default":     0.33,
					},
				}),
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
