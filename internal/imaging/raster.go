package imaging

import (
	"image"
	"image/color"

	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// Raster is a 3-channel float copy of an image with every component
// normalized to [0, 1].
//
// Building a Raster is how the pipeline coerces arbitrary inputs to RGB:
//   - Gray and paletted images are expanded, so gray values repeat across
//     all three channels
//   - Alpha is dropped; only the first three channels are kept
//   - 8-bit and 16-bit sources are scaled from their full 16-bit component
//     value, so both land in the same [0, 1] range
type Raster struct {
	Width  int
	Height int

	// Pix holds interleaved R, G, B values, len = Width*Height*3.
	Pix []float64
}

// NewRaster converts img into a normalized RGB raster.
//
// Returns an error wrapping superpixel.ErrInput if img has zero area.
func NewRaster(img image.Image) (*Raster, error) {
	if img == nil {
		return nil, superpixel.InputError("image is nil")
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, superpixel.InputError("image has zero area (%dx%d)", w, h)
	}

	r := &Raster{Width: w, Height: h, Pix: make([]float64, w*h*3)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// NRGBA64 un-premultiplies, so translucent pixels keep their color.
			c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			off := (y*w + x) * 3
			r.Pix[off] = float64(c.R) / 0xffff
			r.Pix[off+1] = float64(c.G) / 0xffff
			r.Pix[off+2] = float64(c.B) / 0xffff
		}
	}
	return r, nil
}

// Offset returns the index of the red component of pixel (x, y) in Pix.
func (r *Raster) Offset(x, y int) int {
	return (y*r.Width + x) * 3
}

// RGB returns the normalized components of pixel (x, y).
func (r *Raster) RGB(x, y int) (float64, float64, float64) {
	off := r.Offset(x, y)
	return r.Pix[off], r.Pix[off+1], r.Pix[off+2]
}

// LabPlane converts every pixel to CIELAB once. The result is interleaved
// L, a, b with the scaling described on Lab.
func (r *Raster) LabPlane() []float64 {
	out := make([]float64, len(r.Pix))
	for off := 0; off < len(r.Pix); off += 3 {
		lab := Lab(r.Pix[off], r.Pix[off+1], r.Pix[off+2])
		out[off] = lab.L
		out[off+1] = lab.A
		out[off+2] = lab.B
	}
	return out
}
