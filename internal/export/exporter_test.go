package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleColors() []string {
	return []string{"#3B82F6", "#8B5CF6", "#10B981"}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSS ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSS, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestRenderCSS(t *testing.T) {
	file, err := Render(FormatCSS, "ocean breeze", sampleColors())
	require.NoError(t, err)

	assert.Equal(t, "ocean-breeze-palette.css", file.Filename)
	assert.True(t, strings.HasPrefix(file.Content, ":root {"))
	assert.Contains(t, file.Content, "--color-1: #3B82F6;")
	assert.Contains(t, file.Content, "--color-3: #10B981;")
	assert.True(t, strings.HasSuffix(file.Content, "}"))
}

func TestRenderSCSS(t *testing.T) {
	file, err := Render(FormatSCSS, "ocean", sampleColors())
	require.NoError(t, err)

	assert.Equal(t, "ocean-palette.scss", file.Filename)
	lines := strings.Split(file.Content, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "$color-1: #3B82F6;", lines[0])
}

func TestRenderAdobe(t *testing.T) {
	file, err := Render(FormatAdobe, "ocean", sampleColors())
	require.NoError(t, err)

	assert.Equal(t, "ocean-palette.txt", file.Filename)
	assert.Equal(t, "#3B82F6\n#8B5CF6\n#10B981", file.Content)
}

func TestRenderJSON(t *testing.T) {
	file, err := Render(FormatJSON, "ocean", []string{"#FF0000"})
	require.NoError(t, err)

	var decoded jsonPalette
	require.NoError(t, json.Unmarshal([]byte(file.Content), &decoded))

	assert.Equal(t, "ocean", decoded.Name)
	require.Len(t, decoded.Colors, 1)
	assert.Equal(t, "Color 1", decoded.Colors[0].Name)
	assert.Equal(t, rgb{R: 255, G: 0, B: 0}, decoded.Colors[0].RGB)
	assert.Equal(t, hsl{H: 0, S: 100, L: 50}, decoded.Colors[0].HSL)
}

func TestRenderTailwind(t *testing.T) {
	file, err := Render(FormatTailwind, "ocean", sampleColors())
	require.NoError(t, err)

	assert.Equal(t, "ocean-palette.js", file.Filename)
	assert.Contains(t, file.Content, "'palette-1': '#3B82F6',")
	assert.Contains(t, file.Content, "module.exports")
}

func TestRenderFigma(t *testing.T) {
	file, err := Render(FormatFigma, "ocean", sampleColors())
	require.NoError(t, err)

	lines := strings.Split(file.Content, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "3B82F6,Color 1", lines[0])
}

func TestRenderValidation(t *testing.T) {
	_, err := Render(FormatCSS, "ocean", nil)
	assert.Error(t, err)

	_, err = Render(FormatCSS, "ocean", []string{"blue"})
	assert.Error(t, err)
}

func TestRenderBlankKeyword(t *testing.T) {
	file, err := Render(FormatCSS, "  ", sampleColors())
	require.NoError(t, err)
	assert.Equal(t, "palette-palette.css", file.Filename)
}

func TestRgbToHSLGrey(t *testing.T) {
	got := rgbToHSL(rgb{R: 128, G: 128, B: 128})
	assert.Equal(t, 0, got.H)
	assert.Equal(t, 0, got.S)
	assert.Equal(t, 50, got.L)
}
