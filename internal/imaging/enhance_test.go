package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestCLAHE_Uniform(t *testing.T) {
	out := CLAHE(newGray(100, 70, 128), DefaultCLAHEConfig())
	if out.Bounds() != image.Rect(0, 0, 100, 70) {
		t.Fatalf("bounds = %v, want 100x70", out.Bounds())
	}
	first := out.Pix[0]
	for i, v := range out.Pix {
		if v != first {
			t.Fatalf("uniform input produced non-uniform output at %d: %d vs %d", i, v, first)
		}
	}
}

func TestCLAHE_StretchesLowContrast(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			g.SetGray(x, y, color.Gray{uint8(100 + (x+y)%11)})
		}
	}

	out := CLAHE(g, DefaultCLAHEConfig())
	lo, hi := uint8(255), uint8(0)
	for _, v := range out.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if int(hi)-int(lo) <= 10 {
		t.Errorf("output range %d..%d not wider than input range 100..110", lo, hi)
	}
}

func TestCLAHE_PreservesOrder(t *testing.T) {
	g := newStepImage(64, 64, 32, 40, 200)
	out := CLAHE(g, DefaultCLAHEConfig())
	if out.GrayAt(5, 5).Y >= out.GrayAt(60, 5).Y {
		t.Errorf("dark side %d should stay darker than bright side %d",
			out.GrayAt(5, 5).Y, out.GrayAt(60, 5).Y)
	}
}

func TestClipHistogram(t *testing.T) {
	var hist [256]int
	hist[10] = 600
	clipHistogram(&hist, 100)

	total := 0
	for _, v := range hist {
		total += v
	}
	if total != 600 {
		t.Errorf("clipping changed the pixel count: %d", total)
	}
	if hist[10] > 100+2 {
		t.Errorf("clipped bin = %d, want about the limit", hist[10])
	}
}

func TestDilate(t *testing.T) {
	g := newGray(9, 9, 0)
	g.SetGray(4, 4, color.Gray{255})

	out := Dilate(g, 1)
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			inside := x >= 3 && x <= 5 && y >= 3 && y <= 5
			v := out.GrayAt(x, y).Y
			if inside && v != 255 {
				t.Errorf("(%d,%d) = %d, want 255 inside the 3x3 block", x, y, v)
			}
			if !inside && v != 0 {
				t.Errorf("(%d,%d) = %d, want 0 outside the 3x3 block", x, y, v)
			}
		}
	}

	if n := countNonZero(Dilate(g, 0)); n != 1 {
		t.Errorf("radius 0 should copy, got %d lit pixels", n)
	}
}
