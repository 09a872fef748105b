package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHexColor(t *testing.T) {
	t.Run("accepts six-digit hex with hash", func(t *testing.T) {
		assert.True(t, IsHexColor("#3B82F6"))
		assert.True(t, IsHexColor("#abcdef"))
		assert.True(t, IsHexColor("#000000"))
	})

	t.Run("rejects everything else", func(t *testing.T) {
		assert.False(t, IsHexColor("3B82F6"))
		assert.False(t, IsHexColor("#3B82F"))
		assert.False(t, IsHexColor("#3B82F6A"))
		assert.False(t, IsHexColor("#GGGGGG"))
		assert.False(t, IsHexColor(""))
		assert.False(t, IsHexColor("#fff"))
	})
}

func TestNormalizeHexColor(t *testing.T) {
	assert.Equal(t, "#ABCDEF", NormalizeHexColor("#abcdef"))
	assert.Equal(t, "not-a-color", NormalizeHexColor("not-a-color"))
}

func TestParseHexLines(t *testing.T) {
	t.Run("extracts clean hex lines", func(t *testing.T) {
		text := "#3B82F6\n  #8B5CF6  \n#10B981"
		colors := ParseHexLines(text, 11)
		assert.Equal(t, []string{"#3B82F6", "#8B5CF6", "#10B981"}, colors)
	})

	t.Run("skips prose and malformed lines", func(t *testing.T) {
		text := "Here is your palette:\n#3B82F6\nprimary: #FF0000 (red)\n#10B981"
		colors := ParseHexLines(text, 11)
		assert.Equal(t, []string{"#3B82F6", "#10B981"}, colors)
	})

	t.Run("caps at max", func(t *testing.T) {
		text := "#111111\n#222222\n#333333"
		colors := ParseHexLines(text, 2)
		assert.Len(t, colors, 2)
	})
}
