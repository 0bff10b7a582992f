// Package colors adjusts configured hex colors so bar text stays readable
// against the configured background.
package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func hexToRGB(hex string) (r, g, b int64) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return -1, -1, -1
	}
	r, errR := strconv.ParseInt(hex[0:2], 16, 64)
	g, errG := strconv.ParseInt(hex[2:4], 16, 64)
	b, errB := strconv.ParseInt(hex[4:6], 16, 64)
	if errR != nil || errG != nil || errB != nil {
		return -1, -1, -1
	}
	return r, g, b
}

// IsHex reports whether s is a six-digit hex color, with or without the
// leading hash. ANSI palette indices are passed through untouched elsewhere.
func IsHex(s string) bool {
	r, _, _ := hexToRGB(s)
	return r >= 0
}

func gammaSRGB(val float64) float64 {
	if val <= 0.03928 {
		return val / 12.92
	}
	return math.Pow((val+0.055)/1.055, 2.4)
}

// Luminance is the WCAG relative luminance of a hex color, 0 (black) to 1
// (white). Invalid colors read as black.
func Luminance(hex string) float64 {
	r, g, b := hexToRGB(hex)
	if r < 0 {
		return 0
	}
	rs := gammaSRGB(float64(r) / 255.0)
	gs := gammaSRGB(float64(g) / 255.0)
	bs := gammaSRGB(float64(b) / 255.0)
	return 0.2126*rs + 0.7152*gs + 0.0722*bs
}

// ContrastRatio is the WCAG contrast ratio between two hex colors, 1 (none)
// to 21 (black on white).
func ContrastRatio(fg, bg string) float64 {
	l1 := Luminance(fg)
	l2 := Luminance(bg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// Adjust lightens (positive amount) or darkens (negative) a hex color.
// amount is a fraction of full scale; 0.1 shifts every channel by ~25.
func Adjust(hex string, amount float64) string {
	r, g, b := hexToRGB(hex)
	if r < 0 {
		return hex
	}
	shift := func(v int64) int64 {
		adjusted := float64(v) + 255.0*amount
		if adjusted < 0 {
			adjusted = 0
		}
		if adjusted > 255 {
			adjusted = 255
		}
		return int64(adjusted)
	}
	return fmt.Sprintf("#%02x%02x%02x", shift(r), shift(g), shift(b))
}

// EnsureContrast nudges fg toward the pole opposite bg until the pair meets
// minRatio (4.5 for WCAG AA). Non-hex inputs come back unchanged.
func EnsureContrast(fg, bg string, minRatio float64) string {
	if !IsHex(fg) || !IsHex(bg) {
		return fg
	}
	step := 0.1
	if Luminance(bg) > 0.5 {
		step = -0.1
	}
	adjusted := fg
	for i := 0; i < 10 && ContrastRatio(adjusted, bg) < minRatio; i++ {
		adjusted = Adjust(adjusted, step)
	}
	return adjusted
}
