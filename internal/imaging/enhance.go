package imaging

import (
	"image"
	"math"
)

// CLAHEConfig controls contrast-limited adaptive histogram equalisation.
type CLAHEConfig struct {
	ClipLimit float64 `json:"clip_limit"` // relative to a flat histogram; 0 disables clipping
	TilesX    int     `json:"tiles_x"`
	TilesY    int     `json:"tiles_y"`
}

// DefaultCLAHEConfig returns an 8x8 tile grid with clip limit 2.5.
func DefaultCLAHEConfig() CLAHEConfig {
	return CLAHEConfig{ClipLimit: 2.5, TilesX: 8, TilesY: 8}
}

// CLAHE equalises g tile by tile, limiting contrast amplification, and blends the
// per-tile mappings bilinearly so no tile seams appear.
//
// When the image does not divide evenly into tiles, histograms are gathered over an
// image extended by reflection so every tile has the same size. Each tile histogram is
// clipped at ClipLimit*tileArea/256 (at least 1) and the clipped excess is spread
// evenly over all bins, with any remainder added at regular bin intervals.
func CLAHE(g *image.Gray, cfg CLAHEConfig) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	src := ToGray(g)
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	tilesX, tilesY := cfg.TilesX, cfg.TilesY
	if tilesX < 1 {
		tilesX = 1
	}
	if tilesY < 1 {
		tilesY = 1
	}

	extW, extH := w, h
	if w%tilesX != 0 {
		extW = w + tilesX - w%tilesX
	}
	if h%tilesY != 0 {
		extH = h + tilesY - h%tilesY
	}
	tileW, tileH := extW/tilesX, extH/tilesY
	tileArea := tileW * tileH

	const histSize = 256
	clipLimit := 0
	if cfg.ClipLimit > 0 {
		clipLimit = int(cfg.ClipLimit * float64(tileArea) / histSize)
		if clipLimit < 1 {
			clipLimit = 1
		}
	}

	luts := make([][histSize]uint8, tilesX*tilesY)
	lutScale := float64(histSize-1) / float64(tileArea)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			var hist [histSize]int
			for y := ty * tileH; y < (ty+1)*tileH; y++ {
				row := src.Pix[reflect101(y, h)*src.Stride:]
				for x := tx * tileW; x < (tx+1)*tileW; x++ {
					hist[row[reflect101(x, w)]]++
				}
			}

			if clipLimit > 0 {
				clipHistogram(&hist, clipLimit)
			}

			lut := &luts[ty*tilesX+tx]
			sum := 0
			for i := range hist {
				sum += hist[i]
				lut[i] = clampUint8(float64(sum) * lutScale)
			}
		}
	}

	invTW, invTH := 1/float64(tileW), 1/float64(tileH)
	for y := 0; y < h; y++ {
		tyf := float64(y)*invTH - 0.5
		ty1 := int(math.Floor(tyf))
		ty2 := ty1 + 1
		ya := tyf - float64(ty1)
		ty1 = clamp(ty1, 0, tilesY-1)
		ty2 = clamp(ty2, 0, tilesY-1)

		row := src.Pix[y*src.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			txf := float64(x)*invTW - 0.5
			tx1 := int(math.Floor(txf))
			tx2 := tx1 + 1
			xa := txf - float64(tx1)
			tx1 = clamp(tx1, 0, tilesX-1)
			tx2 = clamp(tx2, 0, tilesX-1)

			v := row[x]
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bottom := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			dst[x] = clampUint8(top*(1-ya) + bottom*ya)
		}
	}
	return out
}

// clipHistogram caps every bin at limit and redistributes the excess.
func clipHistogram(hist *[256]int, limit int) {
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	batch := excess / len(hist)
	residual := excess - batch*len(hist)
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := len(hist) / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < len(hist) && residual > 0; i, residual = i+step, residual-1 {
			hist[i]++
		}
	}
}
