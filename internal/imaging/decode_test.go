package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// encodeTestPNG renders img as PNG bytes.
func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// newSolidRGBA returns an opaque image filled with c.
func newSolidRGBA(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestDecode(t *testing.T) {
	data := encodeTestPNG(t, newSolidRGBA(40, 30, color.RGBA{10, 20, 30, 255}))

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("dimensions: got %dx%d, want 40x30", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"text", []byte("not-an-image")},
		{"truncated png", []byte("\x89PNG\r\n\x1a\n\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("expected ErrDecode, got %v", err)
			}
		})
	}
}

func TestByteCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	want := encodeTestPNG(t, newSolidRGBA(8, 8, color.RGBA{255, 0, 0, 255}))
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cache := NewByteCache()
	got, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("cached bytes differ from file contents")
	}

	if cache.Len() != 1 {
		t.Errorf("Len after load = %d, want 1", cache.Len())
	}

	// A deleted file is an error and leaves no entry behind.
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove test file: %v", err)
	}
	if _, err := cache.Load(path); err == nil {
		t.Error("expected error loading a deleted file")
	}
	if cache.Len() != 0 {
		t.Errorf("Len after deleted load = %d, want 0", cache.Len())
	}
}

func TestByteCache_RereadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	first := encodeTestPNG(t, newSolidRGBA(8, 8, color.RGBA{255, 0, 0, 255}))
	if err := os.WriteFile(path, first, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	stamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}

	cache := NewByteCache()
	if _, err := cache.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Re-shot to the same path.
	second := encodeTestPNG(t, newSolidRGBA(16, 16, color.RGBA{0, 0, 255, 255}))
	if err := os.WriteFile(path, second, 0o644); err != nil {
		t.Fatalf("failed to rewrite test file: %v", err)
	}
	later := stamp.Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}

	got, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Error("Load returned the stale contents of a rewritten file")
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}

	again, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if &again[0] != &got[0] {
		t.Error("unchanged file was read again instead of served from the cache")
	}
}

func TestByteCache_Concurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, encodeTestPNG(t, newSolidRGBA(4, 4, color.RGBA{A: 255})), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	cache := NewByteCache()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", cache.Len())
	}
}

func TestNormalizeResolution(t *testing.T) {
	wide := newSolidRGBA(4096, 100, color.RGBA{200, 200, 200, 255})
	out, scale := NormalizeResolution(wide, 2048)
	if scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", scale)
	}
	if out.Bounds().Dx() != 2048 || out.Bounds().Dy() != 50 {
		t.Errorf("dimensions: got %dx%d, want 2048x50", out.Bounds().Dx(), out.Bounds().Dy())
	}

	narrow := newSolidRGBA(640, 480, color.RGBA{A: 255})
	out, scale = NormalizeResolution(narrow, 2048)
	if scale != 1 || out != image.Image(narrow) {
		t.Errorf("narrow image should pass through unchanged (scale %v)", scale)
	}

	if _, scale := NormalizeResolution(wide, 0); scale != 1 {
		t.Errorf("maxWidth 0 should disable resizing, got scale %v", scale)
	}
}
