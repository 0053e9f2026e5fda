package detection

import (
	"image"
	"math"
)

// newFilledGray returns a w x h gray image with background bg and the inclusive
// rectangle (x0,y0)-(x1,y1) filled with fg.
func newFilledGray(w, h int, bg uint8, x0, y0, x1, y1 int, fg uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = bg
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if x >= 0 && y >= 0 && x < w && y < h {
				g.Pix[y*g.Stride+x] = fg
			}
		}
	}
	return g
}

// newCardImage returns a black frame with a centred white card of the given width
// and long/short ratio.
func newCardImage(w, h, cardW int, ratio float64) *image.Gray {
	cardH := int(math.Round(float64(cardW) / ratio))
	x0 := (w - cardW) / 2
	y0 := (h - cardH) / 2
	return newFilledGray(w, h, 0, x0, y0, x0+cardW-1, y0+cardH-1, 255)
}

// newRotatedRectImage draws a filled rectangle of size rw x rh rotated by deg degrees
// about the frame centre.
func newRotatedRectImage(w, h int, bg uint8, rw, rh, deg float64, fg uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			if math.Abs(u) <= rw/2 && math.Abs(v) <= rh/2 {
				g.Pix[y*g.Stride+x] = fg
			} else {
				g.Pix[y*g.Stride+x] = bg
			}
		}
	}
	return g
}

// grayFromRows builds a binary image from strings where '#' is foreground.
func grayFromRows(rows ...string) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, len(rows[0]), len(rows)))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				g.Pix[y*g.Stride+x] = 255
			}
		}
	}
	return g
}

// newTrapezoidImage draws a white trapezoid on black with horizontal top and bottom
// edges at rows y0 and y1. The top edge spans [topL, topR] and the bottom [botL, botR].
func newTrapezoidImage(w, h, y0, y1 int, topL, topR, botL, botR float64) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := y0; y <= y1; y++ {
		t := float64(y-y0) / float64(y1-y0)
		left := topL + t*(botL-topL)
		right := topR + t*(botR-topR)
		for x := 0; x < w; x++ {
			if float64(x) >= left && float64(x) <= right {
				g.Pix[y*g.Stride+x] = 255
			}
		}
	}
	return g
}
