// Package color normalizes instruction colors to hex notation.
package color

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/matzehuels/stitchgraph/pkg/errors"
)

// Default is the fill of instructions without a color.
const Default = "#ffffff"

// Normalize returns name as "#rrggbb". It accepts CSS color names in any
// case and the "#rgb" and "#rrggbb" forms.
func Normalize(name string) (string, error) {
	c, err := Parse(name)
	if err != nil {
		return "", err
	}
	return Hex(c), nil
}

// Parse converts a color name or hex string to RGBA.
func Parse(name string) (color.RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidInput, "unknown color %q", name)
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidInput, "invalid hex color %q", name)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid hex color %q", name)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// Hex formats c as "#rrggbb", dropping alpha.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Resolve is like Normalize but never fails: strings that are not colors
// map to a stable color derived from their hash, so distinct unknown names
// stay distinguishable in charts.
func Resolve(name string) string {
	if hex, err := Normalize(name); err == nil {
		return hex
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	v := h.Sum32()
	return Hex(color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff})
}

// OrDefault resolves name, falling back to [Default] when it is unset.
func OrDefault(name string, ok bool) string {
	if !ok || name == "" {
		return Default
	}
	return Resolve(name)
}

// Contrast returns black or white, whichever is more readable on hex.
func Contrast(hex string) string {
	c, err := Parse(hex)
	if err != nil {
		return "#000000"
	}
	luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if luma > 140 {
		return "#000000"
	}
	return "#ffffff"
}
