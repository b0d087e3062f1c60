package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/tiff" // Register TIFF format decoder (orthomosaic exports)
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// ImageCache keeps recently decoded uploads in memory, keyed by the path they
// were loaded from, so that segmenting, aggregating and classifying the same
// upload decodes it once.
//
// Paths are used verbatim: a relative and an absolute path to the same file
// are two entries. A cache with a positive capacity drops its oldest entry
// once it holds more images than that; full-size orthomosaics are large.
//
// ImageCache is safe for concurrent use.
type ImageCache struct {
	mu       sync.RWMutex
	images   map[string]image.Image
	order    []string
	capacity int
}

// DefaultCacheSize is the number of decoded images the server keeps.
const DefaultCacheSize = 4

// NewImageCache creates an empty cache holding at most capacity images. A
// capacity of zero or less means no limit.
func NewImageCache(capacity int) *ImageCache {
	return &ImageCache{
		images:   make(map[string]image.Image),
		capacity: capacity,
	}
}

// Load returns the image at path, decoding it on first use. Failed decodes
// are not cached.
//
// Errors wrap superpixel.ErrNotFound for a missing file and
// superpixel.ErrInput for a file that is not a supported image.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := Decode(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[path]; !ok {
		c.order = append(c.order, path)
	}
	c.images[path] = img
	for c.capacity > 0 && len(c.order) > c.capacity {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
	return img, nil
}

// ImageInfo describes an upload before it is segmented.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is derived from the file extension; see FormatOf.
	Format string `json:"format"`

	// ColorDepth is "16-bit" for 16-bit-per-channel images, else "8-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports an alpha channel. Segmentation ignores it.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`

	// LongestSide is max(Width, Height). Segmentation downsizes images whose
	// longest side exceeds its configured ceiling.
	LongestSide int `json:"longest_side"`
}

// LoadImageInfo loads path through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		Format:        FormatOf(path),
		ColorDepth:    "8-bit",
		FileSizeBytes: stat.Size(),
	}
	info.LongestSide = max(info.Width, info.Height)

	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray16:
		info.ColorDepth = "16-bit"
	}
	return info, nil
}

// Decode reads and decodes the image at path without caching it.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, superpixel.NotFoundError("image %s", path)
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, superpixel.InputError("failed to decode image %s: %v", filepath.Base(path), err)
	}
	return img, nil
}

// FormatOf maps a file extension to a format name:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".tif", ".tiff" -> "tiff"
//   - ".webp" -> "webp"
//   - Other extensions -> "unknown"
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	}
	return "unknown"
}
