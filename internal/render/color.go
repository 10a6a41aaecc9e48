package render

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidHex reports whether value is exactly '#' followed by six hex digits.
func ValidHex(value string) bool {
	return hexColorRegex.MatchString(value)
}

// NormalizeHex upper-cases a valid #RRGGBB value.
func NormalizeHex(value string) (string, error) {
	if !ValidHex(value) {
		return "", fmt.Errorf("color %q is not #RRGGBB", value)
	}
	return strings.ToUpper(value), nil
}

func ParseHex(value string) (color.RGBA, error) {
	if !ValidHex(value) {
		return color.RGBA{}, fmt.Errorf("color %q is not #RRGGBB", value)
	}
	rgb, err := strconv.ParseUint(value[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", value, err)
	}
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF}, nil
}
