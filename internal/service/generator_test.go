package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huehive/collab-server-go/internal/model"
)

type stubCompletion struct {
	text string
	err  error
}

func (s *stubCompletion) Complete(context.Context, string, string, int64) (string, error) {
	return s.text, s.err
}

func newTestGenerator(client completionClient) *GeneratorService {
	return &GeneratorService{
		client:  client,
		model:   "claude-3-5-haiku-latest",
		timeout: 5 * time.Second,
	}
}

func elevenLines() string {
	return strings.Join([]string{
		"#1A1A2E", "#16213E", "#0F3460", "#533483", "#E94560", "#F5F5F5",
		"#FFD700", "#2ECC71", "#3498DB", "#E67E22", "#9B59B6",
	}, "\n")
}

func TestGenerateFromModel(t *testing.T) {
	svc := newTestGenerator(&stubCompletion{text: elevenLines()})

	palette, err := svc.Generate(context.Background(), "sunset")
	require.NoError(t, err)

	assert.Len(t, palette.Colors, 11)
	assert.Equal(t, "sunset", palette.Keyword)
	assert.Equal(t, model.PaletteSourceAI, palette.Source)
	assert.Equal(t, "#1A1A2E", palette.Colors[0])
}

func TestGenerateToleratesChatter(t *testing.T) {
	text := "Here are your colors:\n" + elevenLines() + "\nEnjoy!"
	svc := newTestGenerator(&stubCompletion{text: text})

	palette, err := svc.Generate(context.Background(), "ocean")
	require.NoError(t, err)

	assert.Len(t, palette.Colors, 11)
	assert.Equal(t, model.PaletteSourceAI, palette.Source)
}

func TestGenerateFallsBackOnModelError(t *testing.T) {
	svc := newTestGenerator(&stubCompletion{err: errors.New("rate limited")})

	palette, err := svc.Generate(context.Background(), "calm evening")
	require.NoError(t, err)

	assert.Len(t, palette.Colors, 11)
	assert.Equal(t, model.PaletteSourceFallback, palette.Source)
	assert.Equal(t, "#74B9FF", palette.Colors[0], "keyword containing 'calm' matches the calm palette")
}

func TestGenerateFallsBackOnShortOutput(t *testing.T) {
	svc := newTestGenerator(&stubCompletion{text: "#111111\n#222222"})

	palette, err := svc.Generate(context.Background(), "mystery")
	require.NoError(t, err)

	assert.Len(t, palette.Colors, 11)
	assert.Equal(t, model.PaletteSourceFallback, palette.Source)
	assert.Equal(t, "#0891B2", palette.Colors[0], "unmatched keyword gets the tech palette")
}

func TestGenerateWithoutClientUsesFallbacks(t *testing.T) {
	svc := newTestGenerator(nil)

	palette, err := svc.Generate(context.Background(), "lush nature walk")
	require.NoError(t, err)

	assert.Equal(t, model.PaletteSourceFallback, palette.Source)
	assert.Equal(t, "#00B894", palette.Colors[0])
}

func TestGenerateRequiresKeyword(t *testing.T) {
	svc := newTestGenerator(&stubCompletion{text: elevenLines()})

	_, err := svc.Generate(context.Background(), "   ")
	assert.Error(t, err)
}

func TestFallbackReturnsCopy(t *testing.T) {
	svc := newTestGenerator(nil)

	first, err := svc.Generate(context.Background(), "tech")
	require.NoError(t, err)
	first.Colors[0] = "#000000"

	second, err := svc.Generate(context.Background(), "tech")
	require.NoError(t, err)
	assert.Equal(t, "#0891B2", second.Colors[0], "curated palettes must not be mutated by callers")
}
