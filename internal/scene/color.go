package scene

import (
	"fmt"
	"strconv"
	"strings"
)

var namedColors = map[string][3]uint8{
	"white":  {0xFF, 0xFF, 0xFF},
	"black":  {0x00, 0x00, 0x00},
	"red":    {0xFF, 0x00, 0x00},
	"green":  {0x00, 0xFF, 0x00},
	"blue":   {0x00, 0x00, 0xFF},
	"yellow": {0xFF, 0xFF, 0x00},
}

// RGB is an opaque 24-bit colour.
type RGB struct {
	R, G, B uint8
}

// Hex renders the colour as RRGGBB without a prefix.
func (c RGB) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// ParseColor accepts #RRGGBB (with or without '#') or one of the named colours.
func ParseColor(value string) (RGB, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if rgb, ok := namedColors[trimmed]; ok {
		return RGB{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
	}
	hex := strings.TrimPrefix(trimmed, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("unsupported color %q", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("unsupported color %q", value)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}
