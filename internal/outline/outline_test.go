package outline

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/ironsheep/gasket-measure-mcp/internal/geometry"
)

var squareOutline = []geometry.Point{
	geometry.Pt(0.1, 0.2),
	geometry.Pt(0.9, 0.2),
	geometry.Pt(0.9, 0.8),
	geometry.Pt(0.1, 0.8),
}

type dxfPair struct {
	code  int
	value string
}

// parseDXF splits DXF text into group code/value pairs.
func parseDXF(t *testing.T, data []byte) []dxfPair {
	t.Helper()
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines)%2 != 0 {
		t.Fatalf("dxf has an odd number of lines (%d)", len(lines))
	}
	pairs := make([]dxfPair, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		code, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			t.Fatalf("line %d: bad group code %q", i+1, lines[i])
		}
		pairs = append(pairs, dxfPair{code: code, value: strings.TrimSpace(lines[i+1])})
	}
	return pairs
}

// polylineOf returns the vertices and the closed flag of the first LWPOLYLINE.
func polylineOf(t *testing.T, pairs []dxfPair) ([]geometry.Point, bool) {
	t.Helper()
	start := -1
	for i, p := range pairs {
		if p.code == 0 && p.value == "LWPOLYLINE" {
			start = i
			break
		}
	}
	if start < 0 {
		t.Fatal("no LWPOLYLINE entity")
	}

	var pts []geometry.Point
	closed := false
	for _, p := range pairs[start+1:] {
		if p.code == 0 {
			break
		}
		v, _ := strconv.ParseFloat(p.value, 64)
		switch p.code {
		case 70:
			closed = int(v)&1 == 1
		case 10:
			pts = append(pts, geometry.Pt(v, 0))
		case 20:
			pts[len(pts)-1].Y = v
		}
	}
	return pts, closed
}

func headerValue(pairs []dxfPair, name string) (string, bool) {
	for i, p := range pairs {
		if p.code == 9 && p.value == name && i+1 < len(pairs) {
			return pairs[i+1].value, true
		}
	}
	return "", false
}

func TestScaleToMillimeters(t *testing.T) {
	got, err := ScaleToMillimeters(squareOutline, 30.5, 20)
	if err != nil {
		t.Fatalf("ScaleToMillimeters() error = %v", err)
	}
	want := []geometry.Point{
		geometry.Pt(0, 0), geometry.Pt(30.5, 0), geometry.Pt(30.5, 20), geometry.Pt(0, 20),
	}
	for i := range want {
		if math.Abs(got[i].X-want[i].X) > 1e-9 || math.Abs(got[i].Y-want[i].Y) > 1e-9 {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScaleToMillimeters_DegenerateAxis(t *testing.T) {
	flat := []geometry.Point{geometry.Pt(0.2, 0.5), geometry.Pt(0.4, 0.5), geometry.Pt(0.6, 0.5)}
	got, err := ScaleToMillimeters(flat, 10, 5)
	if err != nil {
		t.Fatalf("ScaleToMillimeters() error = %v", err)
	}
	for i, p := range got {
		if p.Y != 0 {
			t.Errorf("point %d Y = %v, want 0 for a flat outline", i, p.Y)
		}
	}
	if math.Abs(got[2].X-10) > 1e-9 {
		t.Errorf("last X = %v, want 10", got[2].X)
	}
}

func TestScaleToMillimeters_Validation(t *testing.T) {
	tests := []struct {
		name   string
		points []geometry.Point
		w, h   float64
		isFew  bool
	}{
		{"empty", nil, 10, 10, true},
		{"two points", squareOutline[:2], 10, 10, true},
		{"negative width", squareOutline, -1, 10, false},
		{"nan height", squareOutline, 10, math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScaleToMillimeters(tt.points, tt.w, tt.h)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrTooFewPoints); got != tt.isFew {
				t.Errorf("errors.Is(err, ErrTooFewPoints) = %v, want %v", got, tt.isFew)
			}
		})
	}
}

func TestEncodeDXF_BoundingBoxAndClosure(t *testing.T) {
	data, err := EncodeDXF(squareOutline, 30.5, 20.0)
	if err != nil {
		t.Fatalf("EncodeDXF() error = %v", err)
	}
	pairs := parseDXF(t, data)

	if v, ok := headerValue(pairs, "$INSUNITS"); !ok || v != "4" {
		t.Errorf("$INSUNITS = %q (present %v), want 4", v, ok)
	}
	if last := pairs[len(pairs)-1]; last.code != 0 || last.value != "EOF" {
		t.Errorf("last pair = %+v, want EOF", last)
	}

	pts, closed := polylineOf(t, pairs)
	if !closed {
		t.Error("LWPOLYLINE is not closed")
	}
	if len(pts) != 4 {
		t.Fatalf("vertex count = %d, want 4", len(pts))
	}

	minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if math.Abs((maxX-minX)-30.5) > 0.1 || math.Abs((maxY-minY)-20.0) > 0.1 {
		t.Errorf("bounding box = %.3f x %.3f, want 30.5 x 20.0", maxX-minX, maxY-minY)
	}
}

func TestEncodeDXF_FlipsY(t *testing.T) {
	data, err := EncodeDXF(squareOutline, 30.5, 20.0)
	if err != nil {
		t.Fatalf("EncodeDXF() error = %v", err)
	}
	pts, _ := polylineOf(t, parseDXF(t, data))

	// The first image point is the top-left corner, which is at the top in CAD.
	if pts[0].X != 0 || pts[0].Y != 20 {
		t.Errorf("first vertex = %v, want (0, 20)", pts[0])
	}
	if pts[2].X != 30.5 || pts[2].Y != 0 {
		t.Errorf("third vertex = %v, want (30.5, 0)", pts[2])
	}
}

func TestEncodeDXF_TooFewPoints(t *testing.T) {
	_, err := EncodeDXF(squareOutline[:2], 30.5, 20.0)
	if !errors.Is(err, ErrTooFewPoints) {
		t.Errorf("error = %v, want ErrTooFewPoints", err)
	}
}

func TestEncodeDXF_DrawingStructure(t *testing.T) {
	data, err := EncodeDXF(squareOutline, 30.5, 20.0)
	if err != nil {
		t.Fatalf("EncodeDXF() error = %v", err)
	}
	pairs := parseDXF(t, data)

	sections := map[string]bool{}
	for i, p := range pairs {
		if p.code == 0 && p.value == "SECTION" && i+1 < len(pairs) {
			sections[pairs[i+1].value] = true
		}
	}
	for _, name := range []string{"HEADER", "TABLES", "ENTITIES"} {
		if !sections[name] {
			t.Errorf("section %s missing", name)
		}
	}

	layer := ""
	for i, p := range pairs {
		if p.code == 0 && p.value == "LWPOLYLINE" {
			for _, q := range pairs[i+1:] {
				if q.code == 0 {
					break
				}
				if q.code == 8 {
					layer = q.value
				}
			}
			break
		}
	}
	if layer != dxfLayer {
		t.Errorf("polyline layer = %q, want %q", layer, dxfLayer)
	}
}

func TestWithUnits(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "after header marker",
			in:   "  0\nSECTION\n  2\nHEADER\n  9\n$ACADVER\n  1\nAC1015\n",
			want: "  0\nSECTION\n  2\nHEADER\n  9\n$INSUNITS\n 70\n4\n  9\n$ACADVER\n  1\nAC1015\n",
		},
		{
			name: "crlf line endings",
			in:   "0\r\nSECTION\r\n2\r\nHEADER\r\n0\r\nENDSEC\r\n",
			want: "0\r\nSECTION\r\n2\r\nHEADER\r\n  9\r\n$INSUNITS\r\n 70\r\n4\r\n0\r\nENDSEC\r\n",
		},
		{
			name:    "no header",
			in:      "  0\nSECTION\n  2\nENTITIES\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := withUnits([]byte(tt.in), dxfUnitsMM)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("withUnits() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("withUnits() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}
