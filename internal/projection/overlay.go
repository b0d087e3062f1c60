package projection

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/superpixel-tools/internal/imaging"
	"github.com/ironsheep/superpixel-tools/internal/superpixel"
)

// DefaultOpacity is the palette weight used by Overlay when callers have no
// preference.
const DefaultOpacity = 0.45

// Palette maps a class index to its overlay color.
type Palette []color.NRGBA

// DefaultPalette colors the three default classes good, moderate and bad.
func DefaultPalette() Palette {
	return Palette{
		{R: 0x78, G: 0xff, B: 0x9a, A: 0xff},
		{R: 0xff, G: 0xb3, B: 0x47, A: 0xff},
		{R: 0xff, G: 0x63, B: 0x63, A: 0xff},
	}
}

// ParsePalette builds a palette from hex colors such as "#78ff9a".
func ParsePalette(hex []string) (Palette, error) {
	p := make(Palette, len(hex))
	for i, h := range hex {
		c, err := imgutil.ParseHexColor(h)
		if err != nil {
			return nil, superpixel.InputError("palette entry %d: %v", i, err)
		}
		p[i] = c
	}
	return p, nil
}

// Hex formats the palette as "#RRGGBB" strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = imgutil.HexOf(c)
	}
	return out
}

// Overlay blends the palette color of every mask pixel over img:
//
//	out = opacity*palette + (1-opacity)*img
//
// img and mask must have the same dimensions and opacity must lie in [0, 1];
// errors wrap superpixel.ErrInput otherwise. A class with no palette entry
// wraps superpixel.ErrConsistency.
func Overlay(img image.Image, mask *superpixel.ClassMask, p Palette, opacity float64) (*image.NRGBA, error) {
	if img == nil || mask == nil {
		return nil, superpixel.InputError("image and mask are required")
	}
	b := img.Bounds()
	if b.Dx() != mask.Width || b.Dy() != mask.Height {
		return nil, superpixel.InputError("image is %dx%d but mask is %dx%d", b.Dx(), b.Dy(), mask.Width, mask.Height)
	}
	if opacity < 0 || opacity > 1 {
		return nil, superpixel.InputError("opacity must be within [0, 1], got %g", opacity)
	}

	layer := image.NewNRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for i, class := range mask.Values {
		if class < 0 || class >= len(p) {
			return nil, superpixel.ConsistencyError("class %d at (%d,%d) has no palette color", class, i%mask.Width, i/mask.Width)
		}
		c := p[class]
		off := (i/mask.Width)*layer.Stride + (i%mask.Width)*4
		layer.Pix[off] = c.R
		layer.Pix[off+1] = c.G
		layer.Pix[off+2] = c.B
		layer.Pix[off+3] = 0xff
	}

	// Alpha is dropped, as it is when segmenting.
	base := imaging.Clone(img)
	for i := 3; i < len(base.Pix); i += 4 {
		base.Pix[i] = 0xff
	}

	return imaging.Overlay(base, layer, image.Pt(0, 0), opacity), nil
}

// Result is a projected class mask with an optional overlay.
type Result struct {
	Mask    *superpixel.ClassMask
	Overlay *image.NRGBA
}

// Render projects predictions onto g and, when img is non-nil, blends the
// result over it.
func Render(img image.Image, g *superpixel.LabelGrid, predictions []int, p Palette, opacity float64) (*Result, error) {
	mask, err := Project(g, predictions)
	if err != nil {
		return nil, err
	}
	res := &Result{Mask: mask}
	if img == nil {
		return res, nil
	}
	res.Overlay, err = Overlay(img, mask, p, opacity)
	if err != nil {
		return nil, err
	}
	return res, nil
}
