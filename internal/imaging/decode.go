package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode is returned when input bytes are empty or cannot be decoded as an image.
var ErrDecode = errors.New("invalid image")

// Decode parses encoded image bytes into an image.
//
// JPEG, PNG and GIF are supported through the standard library; WebP, BMP and TIFF
// through golang.org/x/image. EXIF orientation tags are honoured so photographs taken
// on phones come out upright.
//
// # Errors
//
// Any failure, including empty input, returns an error wrapping ErrDecode.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}
	return img, nil
}

// ByteCache provides thread-safe caching of raw image file contents keyed by path.
//
// The pipeline consumes encoded bytes, so the cache holds what was read from disk
// rather than a decoded image. Every Load stats the file and rereads it when its
// modification time or size changed, so a photo re-shot to the same path is never
// served stale. Entries for files that disappeared are dropped.
//
//	cache := imaging.NewByteCache()
//	data, err := cache.Load("/path/to/photo.jpg")
//	if err != nil {
//	    return err
//	}
//	result, err := p.Process(data)
type ByteCache struct {
	mu    sync.RWMutex
	files map[string]cachedFile
}

type cachedFile struct {
	data    []byte
	modTime time.Time
	size    int64
}

// NewByteCache creates an empty cache.
func NewByteCache() *ByteCache {
	return &ByteCache{files: make(map[string]cachedFile)}
}

// Load returns the contents of path, reading it from disk on first use and whenever
// the file changed since it was cached.
//
// The returned slice is shared with the cache and must not be modified.
func (c *ByteCache) Load(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.RLock()
	entry, ok := c.files[path]
	c.mu.RUnlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.Evict(path)
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.Lock()
	c.files[path] = cachedFile{data: data, modTime: info.ModTime(), size: info.Size()}
	c.mu.Unlock()

	return data, nil
}

// Evict removes a single path from the cache.
func (c *ByteCache) Evict(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
}

// Clear drops every cached entry.
func (c *ByteCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string]cachedFile)
	c.mu.Unlock()
}

// Len reports the number of cached files.
func (c *ByteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}
