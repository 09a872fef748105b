package util

import (
	"regexp"
	"strings"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsHexColor reports whether s is a six-digit hex color including the #.
func IsHexColor(s string) bool {
	return hexColorRegex.MatchString(s)
}

// NormalizeHexColor uppercases the hex digits of a valid color. Returns the
// input unchanged when it is not a valid hex color.
func NormalizeHexColor(s string) string {
	if !IsHexColor(s) {
		return s
	}
	return "#" + strings.ToUpper(s[1:])
}

// ParseHexLines extracts the hex colors from model output: one color per
// line, anything that is not a bare six-digit hex line is dropped.
func ParseHexLines(text string, max int) []string {
	var colors []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !IsHexColor(line) {
			continue
		}
		colors = append(colors, line)
		if len(colors) == max {
			break
		}
	}
	return colors
}
