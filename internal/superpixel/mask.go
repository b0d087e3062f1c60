package superpixel

import (
	"image"
	"image/color"
)

// ClassMask holds one class value per pixel. It is used both for ground
// truth masks loaded from disk and for projected predictions.
type ClassMask struct {
	Width  int
	Height int
	Values []int
}

// NewClassMask allocates a mask with every pixel set to fill.
func NewClassMask(width, height, fill int) *ClassMask {
	m := &ClassMask{
		Width:  width,
		Height: height,
		Values: make([]int, width*height),
	}
	if fill != 0 {
		for i := range m.Values {
			m.Values[i] = fill
		}
	}
	return m
}

// At returns the class at (x, y). No bounds checking is performed.
func (m *ClassMask) At(x, y int) int {
	return m.Values[y*m.Width+x]
}

// ClassMaskFromImage reads a ground truth mask. Paletted images contribute
// their palette index, which is how most labeling tools store class ids;
// every other image contributes its 8-bit gray value.
func ClassMaskFromImage(img image.Image) (*ClassMask, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, InputError("mask has zero area")
	}
	m := NewClassMask(b.Dx(), b.Dy(), 0)
	switch src := img.(type) {
	case *image.Paletted:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				m.Values[y*m.Width+x] = int(src.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
			}
		}
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				m.Values[y*m.Width+x] = int(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				m.Values[y*m.Width+x] = int(g.Y)
			}
		}
	}
	return m, nil
}

// Image encodes the mask as 8-bit gray. Values outside 0..255 are clamped.
func (m *ClassMask) Image() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Values {
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out.Pix[(i/m.Width)*out.Stride+i%m.Width] = uint8(v)
	}
	return out
}
