package garment

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrBadColor is returned for color strings that are not #rgb or #rrggbb.
var ErrBadColor = errors.New("garment: bad color")

// Swatches is the fixed base color palette offered by the editor.
var Swatches = []color.NRGBA{
	{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, // white
	{R: 0x1a, G: 0x1a, B: 0x1a, A: 0xff}, // black
	{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}, // heather grey
	{R: 0x1e, G: 0x3a, B: 0x8a, A: 0xff}, // navy
	{R: 0xb9, G: 0x1c, B: 0x1c, A: 0xff}, // red
	{R: 0x15, G: 0x80, B: 0x3d, A: 0xff}, // green
}

// ParseHex parses "#rrggbb", "#rgb" or the same without '#'.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as #rrggbb. Alpha is dropped.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
