package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
)

// EdgeConfig controls adaptive Canny edge extraction.
type EdgeConfig struct {
	// BlurSize is the Gaussian kernel size applied before gradient computation. Must be
	// odd; values <= 1 disable blurring.
	BlurSize int `json:"blur_size"`

	// Sigma spreads the hysteresis thresholds around the median intensity:
	// low = (1-Sigma)*median, high = (1+Sigma)*median.
	Sigma float64 `json:"sigma"`

	// FallbackLow and FallbackHigh are used when the adaptive pair collapses, which
	// happens on very dark frames.
	FallbackLow  int `json:"fallback_low"`
	FallbackHigh int `json:"fallback_high"`

	// MinHigh is the smallest adaptive high threshold accepted before falling back.
	MinHigh int `json:"min_high"`
}

// CardEdgeConfig returns the edge settings used to look for the reference card.
func CardEdgeConfig() EdgeConfig {
	return EdgeConfig{BlurSize: 5, Sigma: 0.33, FallbackLow: 30, FallbackHigh: 100, MinHigh: 20}
}

// JointEdgeConfig returns the slightly wider edge settings used on the rectified joint.
func JointEdgeConfig() EdgeConfig {
	cfg := CardEdgeConfig()
	cfg.Sigma = 0.4
	return cfg
}

// ToGray converts img to 8-bit luminance using the ITU-R BT.601 weights
// 0.299 R + 0.587 G + 0.114 B in 14-bit fixed point. Alpha is ignored. The result
// always has its origin at (0, 0).
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):])
		}
		return out
	}

	src := imaging.Clone(img)
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := uint32(row[4*x]), uint32(row[4*x+1]), uint32(row[4*x+2])
			dst[x] = uint8((r*4899 + g*9617 + bl*1868 + 8192) >> 14)
		}
	}
	return out
}

// GaussianBlur smooths g with a separable ksize x ksize Gaussian kernel.
//
// Kernel sizes 3, 5 and 7 use the binomial approximations ([1 2 1], [1 4 6 4 1],
// [1 6 15 20 15 6 1]); larger sizes derive sigma from the size as
// 0.3*((ksize-1)*0.5-1)+0.8. Borders are reflected without repeating the edge pixel.
// Even sizes are rounded up; sizes <= 1 return a copy.
func GaussianBlur(g *image.Gray, ksize int) *image.Gray {
	if ksize <= 1 {
		return ToGray(g)
	}
	if ksize%2 == 0 {
		ksize++
	}
	kernel := gaussianKernel(ksize)
	half := ksize / 2

	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	src := ToGray(g)
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += kernel[k+half] * float64(row[reflect101(x+k, w)])
			}
			tmp[y*w+x] = sum
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += kernel[k+half] * tmp[reflect101(y+k, h)*w+x]
			}
			out.Pix[y*out.Stride+x] = clampUint8(sum)
		}
	}
	return out
}

func gaussianKernel(ksize int) []float64 {
	var k []float64
	switch ksize {
	case 3:
		k = []float64{1, 2, 1}
	case 5:
		k = []float64{1, 4, 6, 4, 1}
	case 7:
		k = []float64{1, 6, 15, 20, 15, 6, 1}
	default:
		sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
		half := ksize / 2
		k = make([]float64, ksize)
		for i := range k {
			d := float64(i - half)
			k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		}
	}
	var sum float64
	for _, v := range k {
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Median returns the median intensity of g, averaging the two middle values when the
// pixel count is even.
func Median(g *image.Gray) float64 {
	n := g.Bounds().Dx() * g.Bounds().Dy()
	if n == 0 {
		return 0
	}
	bins := histogram.NewRGBAHistogram(g).R.Bins

	lo, hi := (n-1)/2, n/2
	loVal, hiVal := -1, -1
	seen := 0
	for v, count := range bins {
		seen += count
		if loVal < 0 && seen > lo {
			loVal = v
		}
		if seen > hi {
			hiVal = v
			break
		}
	}
	return float64(loVal+hiVal) / 2
}

// AdaptiveThresholds derives Canny hysteresis thresholds from the median intensity.
// When the derived pair collapses (high <= low, or high below cfg.MinHigh) the fixed
// fallback pair is returned instead.
func AdaptiveThresholds(median float64, cfg EdgeConfig) (low, high int) {
	low = int(math.Max(0, (1-cfg.Sigma)*median))
	high = int(math.Min(255, (1+cfg.Sigma)*median))
	if high <= low || high < cfg.MinHigh {
		return cfg.FallbackLow, cfg.FallbackHigh
	}
	return low, high
}

// DetectEdges blurs gray and runs Canny with thresholds adapted to the blurred
// image's median intensity.
func DetectEdges(gray *image.Gray, cfg EdgeConfig) *image.Gray {
	blurred := GaussianBlur(gray, cfg.BlurSize)
	low, high := AdaptiveThresholds(Median(blurred), cfg)
	return Canny(blurred, low, high)
}

// Canny runs Canny edge detection on g and returns a binary map with edges at 255.
//
// # Algorithm
//
//  1. Sobel 3x3 gradients with replicated borders; magnitude is |Gx| + |Gy|.
//  2. Non-maximum suppression along the gradient direction quantised to horizontal,
//     vertical or one of the two diagonals (boundaries at 22.5 and 67.5 degrees).
//     Along a ridge of equal magnitudes only the first pixel is kept, so edges stay
//     one pixel wide.
//  3. Hysteresis: pixels above high seed edges, which then grow through 8-connected
//     pixels above low.
//
// The thresholds are swapped if low > high.
func Canny(g *image.Gray, low, high int) *image.Gray {
	if low > high {
		low, high = high, low
	}
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	src := ToGray(g)
	out := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}

	px := func(x, y int) int {
		return int(src.Pix[clamp(y, 0, h-1)*src.Stride+clamp(x, 0, w-1)])
	}

	dx := make([]int, w*h)
	dy := make([]int, w*h)
	mag := make([]int, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			gy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) -
				px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			i := y*w + x
			dx[i], dy[i] = gx, gy
			mag[i] = absInt(gx) + absInt(gy)
		}
	}

	at := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		tan22 = 0.4142135623730951
		tan67 = 2.414213562373095
	)
	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	var stack []int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := float64(absInt(dx[i])), float64(absInt(dy[i]))
			var keep bool
			switch {
			case ay < ax*tan22:
				keep = m > at(x-1, y) && m >= at(x+1, y)
			case ay > ax*tan67:
				keep = m > at(x, y-1) && m >= at(x, y+1)
			default:
				s := 1
				if (dx[i] < 0) != (dy[i] < 0) {
					s = -1
				}
				keep = m > at(x-s, y-1) && m > at(x+s, y+1)
			}
			if !keep {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out.Pix[(i/w)*out.Stride+i%w] = 255
		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	return out
}

// EdgeDetectResult contains an edge map encoded as base64 PNG.
//
// White pixels (255) are edges and black pixels (0) are background.
type EdgeDetectResult struct {
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	ThresholdLow  int     `json:"threshold_low"`
	ThresholdHigh int     `json:"threshold_high"`
	Median        float64 `json:"median"`
	ImageBase64   string  `json:"image_base64"`
	MimeType      string  `json:"mime_type"`
}

// EdgeDetect renders the adaptive edge map of img as a PNG preview, reporting the
// thresholds that were chosen. It is the same edge stage the card detector sees and is
// meant for diagnosing why a card was or was not found.
func EdgeDetect(img image.Image, cfg EdgeConfig) (*EdgeDetectResult, error) {
	blurred := GaussianBlur(ToGray(img), cfg.BlurSize)
	median := Median(blurred)
	low, high := AdaptiveThresholds(median, cfg)
	edges := Canny(blurred, low, high)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, edges, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}

	return &EdgeDetectResult{
		Width:         edges.Bounds().Dx(),
		Height:        edges.Bounds().Dy(),
		ThresholdLow:  low,
		ThresholdHigh: high,
		Median:        median,
		ImageBase64:   base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:      "image/png",
	}, nil
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring around the edge
// pixel without repeating it (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
