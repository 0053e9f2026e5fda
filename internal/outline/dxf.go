package outline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
)

const (
	dxfLayer   = "JOINT"
	dxfUnitsMM = "4" // $INSUNITS millimetres
)

// EncodeDXF writes the outline as an ASCII DXF drawing holding one closed LWPOLYLINE
// in millimetres on layer JOINT.
//
// Image coordinates grow downward while CAD coordinates grow upward, so Y is mirrored
// inside the bounding box. The box itself stays 0..widthMM by 0..heightMM.
func EncodeDXF(points []geometry.Point, widthMM, heightMM float64) ([]byte, error) {
	mm, err := ScaleToMillimeters(points, widthMM, heightMM)
	if err != nil {
		return nil, err
	}
	vertices := make([][]float64, len(mm))
	for i, p := range mm {
		vertices[i] = []float64{p.X, heightMM - p.Y}
	}

	d := dxf.NewDrawing()
	if _, err := d.AddLayer(dxfLayer, dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return nil, fmt.Errorf("failed to add layer: %w", err)
	}
	if _, err := d.LwPolyline(true, vertices...); err != nil {
		return nil, fmt.Errorf("failed to add outline: %w", err)
	}

	data, err := render(d)
	if err != nil {
		return nil, err
	}
	return withUnits(data, dxfUnitsMM)
}

// render saves the drawing through a scratch file and returns its contents.
func render(d *drawing.Drawing) ([]byte, error) {
	dir, err := os.MkdirTemp("", "gasket-dxf-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "joint.dxf")
	if err := d.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to write dxf: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dxf: %w", err)
	}
	return data, nil
}

// withUnits inserts a $INSUNITS header variable directly after the HEADER section
// marker.
func withUnits(data []byte, units string) ([]byte, error) {
	text := string(data)
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	lines := strings.Split(text, eol)
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i-1]) != "2" || strings.TrimSpace(lines[i]) != "HEADER" {
			continue
		}
		out := make([]string, 0, len(lines)+4)
		out = append(out, lines[:i+1]...)
		out = append(out, "  9", "$INSUNITS", " 70", units)
		out = append(out, lines[i+1:]...)
		return []byte(strings.Join(out, eol)), nil
	}
	return nil, fmt.Errorf("failed to set units: dxf has no HEADER section")
}
