// Package export renders palettes into the file formats designers pull into
// their tools: css custom properties, scss variables, an Adobe-importable
// color list, structured json, a tailwind config fragment and a figma
// color,name listing.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/util"
)

type Format string

const (
	FormatCSS      Format = "css"
	FormatSCSS     Format = "scss"
	FormatAdobe    Format = "adobe"
	FormatJSON     Format = "json"
	FormatTailwind Format = "tailwind"
	FormatFigma    Format = "figma"
)

// Formats lists every supported format in a stable order.
func Formats() []Format {
	return []Format{FormatCSS, FormatSCSS, FormatAdobe, FormatJSON, FormatTailwind, FormatFigma}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatCSS, FormatSCSS, FormatAdobe, FormatJSON, FormatTailwind, FormatFigma:
		return f, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("unknown export format %q", s))
}

// File is a rendered export: content plus the filename a browser download
// would carry.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// Render produces the export file for a palette. Colors must all be hex;
// there is no count restriction here so partial palettes export too.
func Render(format Format, keyword string, colors []string) (*File, error) {
	if len(colors) == 0 {
		return nil, apperrors.MissingRequired("colors")
	}
	for _, color := range colors {
		if !util.IsHexColor(color) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid hex color %q", color))
		}
	}
	if strings.TrimSpace(keyword) == "" {
		keyword = "palette"
	}

	base := baseFilename(keyword)
	switch format {
	case FormatCSS:
		return &File{base + ".css", "text/css", renderCSS(colors)}, nil
	case FormatSCSS:
		return &File{base + ".scss", "text/x-scss", renderSCSS(colors)}, nil
	case FormatAdobe:
		return &File{base + ".txt", "text/plain", strings.Join(colors, "\n")}, nil
	case FormatJSON:
		content, err := renderJSON(keyword, colors)
		if err != nil {
			return nil, err
		}
		return &File{base + ".json", "application/json", content}, nil
	case FormatTailwind:
		return &File{base + ".js", "text/javascript", renderTailwind(colors)}, nil
	case FormatFigma:
		return &File{base + ".txt", "text/plain", renderFigma(colors)}, nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("unknown export format %q", format))
}

var filenameSpaces = regexp.MustCompile(`\s+`)

func baseFilename(keyword string) string {
	return filenameSpaces.ReplaceAllString(strings.TrimSpace(keyword), "-") + "-palette"
}

func renderCSS(colors []string) string {
	var sb strings.Builder
	sb.WriteString(":root {\n")
	for i, color := range colors {
		fmt.Fprintf(&sb, "  --color-%d: %s;\n", i+1, color)
	}
	sb.WriteString("}")
	return sb.String()
}

func renderSCSS(colors []string) string {
	lines := make([]string, len(colors))
	for i, color := range colors {
		lines[i] = fmt.Sprintf("$color-%d: %s;", i+1, color)
	}
	return strings.Join(lines, "\n")
}

func renderTailwind(colors []string) string {
	var sb strings.Builder
	sb.WriteString("module.exports = {\n  theme: {\n    extend: {\n      colors: {\n")
	for i, color := range colors {
		fmt.Fprintf(&sb, "        'palette-%d': '%s',\n", i+1, color)
	}
	sb.WriteString("      }\n    }\n  }\n}")
	return sb.String()
}

func renderFigma(colors []string) string {
	lines := make([]string, len(colors))
	for i, color := range colors {
		lines[i] = fmt.Sprintf("%s,Color %d", strings.TrimPrefix(color, "#"), i+1)
	}
	return strings.Join(lines, "\n")
}

type rgb struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

type hsl struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

type jsonColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
	RGB  rgb    `json:"rgb"`
	HSL  hsl    `json:"hsl"`
}

type jsonPalette struct {
	Name   string      `json:"name"`
	Colors []jsonColor `json:"colors"`
}

func renderJSON(keyword string, colors []string) (string, error) {
	out := jsonPalette{Name: keyword, Colors: make([]jsonColor, len(colors))}
	for i, color := range colors {
		c := hexToRGB(color)
		out.Colors[i] = jsonColor{
			Name: fmt.Sprintf("Color %d", i+1),
			Hex:  color,
			RGB:  c,
			HSL:  rgbToHSL(c),
		}
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func hexToRGB(hex string) rgb {
	var c rgb
	fmt.Sscanf(strings.TrimPrefix(hex, "#"), "%02x%02x%02x", &c.R, &c.G, &c.B)
	return c
}

func rgbToHSL(c rgb) hsl {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2

	var h, s float64
	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}

	return hsl{
		H: int(math.Round(h * 360)),
		S: int(math.Round(s * 100)),
		L: int(math.Round(l * 100)),
	}
}
