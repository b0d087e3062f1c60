package imaging

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// LabColor is a CIE L*a*b* color (D65 white point).
//
// Components use the conventional ranges rather than go-colorful's unit
// scaling:
//   - L: lightness, 0 (black) to 100 (white)
//   - A: green (negative) to red (positive), roughly -128 to 127
//   - B: blue (negative) to yellow (positive), roughly -128 to 127
type LabColor struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// Lab converts normalized sRGB components (0-1) to CIELAB.
func Lab(r, g, b float64) LabColor {
	l, a, bb := colorful.Color{R: r, G: g, B: b}.Lab()
	return LabColor{L: l * 100, A: a * 100, B: bb * 100}
}

// ParseHexColor parses "#RRGGBB", "#RGB" or "#RRGGBBAA". The leading "#"
// is optional. Colors without an alpha component are fully opaque.
func ParseHexColor(hex string) (color.NRGBA, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	if len(hex) == 9 {
		val, err := strconv.ParseUint(hex[1:], 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
		}
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexOf formats the RGB part of c as "#RRGGBB".
func HexOf(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
}
