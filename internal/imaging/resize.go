package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultMaxDimension is the longest side, in pixels, an image may have
// before segmentation downsizes it.
const DefaultMaxDimension = 3000

// DownscaleResult describes the frame an operation actually worked on.
type DownscaleResult struct {
	// Image is the downscaled image, or the input itself when no resize
	// was needed.
	Image image.Image

	// Scale is the factor applied to both axes (1.0 when unchanged).
	Scale float64

	// Downscaled reports whether a resize happened.
	Downscaled bool
}

// Downscale shrinks img proportionally so its longest side is at most
// maxDimension. Images already within the limit are returned unchanged.
//
// New dimensions are truncated, not rounded: a 6000x4001 image with a limit
// of 3000 becomes 3000x2000. Resampling is bilinear. A non-positive
// maxDimension disables the limit.
func Downscale(img image.Image, maxDimension int) DownscaleResult {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := max(w, h)
	if maxDimension <= 0 || longest <= maxDimension {
		return DownscaleResult{Image: img, Scale: 1.0}
	}

	scale := float64(maxDimension) / float64(longest)
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	return DownscaleResult{
		Image:      imaging.Resize(img, newW, newH, imaging.Linear),
		Scale:      scale,
		Downscaled: true,
	}
}
