package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/config"
	apperrors "github.com/huehive/collab-server-go/internal/errors"
	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/util"
)

const generatorMaxTokens = 1024

// The model returns one hex code per line: 3 main colors, 4 light theme
// colors, 4 dark theme colors. Anything else falls through to the curated
// palettes.
const generatorPromptFormat = `Generate a complete color system based on the keyword/mood: "%s".

Create a comprehensive palette that includes:

MAIN COLORS (3 colors):
- Primary: Main brand/accent color
- Secondary: Supporting color that complements primary
- Accent: Highlight color for calls-to-action

LIGHT THEME COLORS (4 colors):
- Light Background: Main background color (very light)
- Light Foreground: Main text color (dark, high contrast against light background)
- Light Muted: Subtle background for cards/surfaces
- Light Border: Subtle border color

DARK THEME COLORS (4 colors):
- Dark Background: Main background color (very dark)
- Dark Foreground: Main text color (light, high contrast against dark background)
- Dark Muted: Subtle background for cards/surfaces in dark mode
- Dark Border: Subtle border color for dark mode

Requirements:
- Return EXACTLY 11 hex color codes (including the #)
- Each color on a new line in the exact order specified above
- No additional text, explanations, or formatting
- Ensure proper contrast ratios (4.5:1 minimum for text)
- Colors should work harmoniously together
- Consider color psychology for the given keyword

Example format:
#3B82F6
#8B5CF6
#10B981
#FFFFFF
#1F2937
#F9FAFB
#E5E7EB
#0F172A
#F8FAFC
#1E293B
#334155

Keyword: %s`

// fallbackPalettes are served when the model is unavailable or returns
// something other than eleven colors. Matched by substring on the keyword;
// "tech" is the default.
var fallbackPalettes = map[string][]string{
	"energetic": {
		"#FF6B6B", "#4ECDC4", "#45B7D1",
		"#FFFFFF", "#1F2937", "#F9FAFB", "#E5E7EB",
		"#0F172A", "#F8FAFC", "#1E293B", "#334155",
	},
	"calm": {
		"#74B9FF", "#A29BFE", "#6C5CE7",
		"#FFFFFF", "#2D3436", "#F8F9FA", "#DDD6FE",
		"#0F172A", "#F1F3F4", "#2C3E50", "#34495E",
	},
	"luxury": {
		"#2D3436", "#636E72", "#FD79A8",
		"#FFFFFF", "#2D3436", "#F8F9FA", "#E9ECEF",
		"#0F0F0F", "#F8F9FA", "#1A1A1A", "#2D2D2D",
	},
	"nature": {
		"#00B894", "#55A3FF", "#FDCB6E",
		"#FFFFFF", "#2D3436", "#F0FDF4", "#D1FAE5",
		"#0F172A", "#F0FDF4", "#1F2937", "#374151",
	},
	"tech": {
		"#0891B2", "#6366F1", "#8B5CF6",
		"#FFFFFF", "#1F2937", "#F8FAFC", "#E2E8F0",
		"#0F172A", "#F8FAFC", "#1E293B", "#334155",
	},
}

// completionClient is the slice of the Anthropic SDK the generator needs,
// kept narrow so tests can stub the model.
type completionClient interface {
	Complete(ctx context.Context, model, prompt string, maxTokens int64) (string, error)
}

type anthropicCompletion struct {
	client anthropic.Client
}

func (c *anthropicCompletion) Complete(ctx context.Context, modelName, prompt string, maxTokens int64) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.Text)
	}
	return sb.String(), nil
}

// GeneratorService turns a mood keyword into an eleven-color system.
type GeneratorService struct {
	client  completionClient
	model   string
	timeout time.Duration
}

// NewGeneratorService builds the generator. With an empty API key every
// request is served from the curated palettes.
func NewGeneratorService(cfg *config.Config) *GeneratorService {
	s := &GeneratorService{
		model:   cfg.GeneratorModel,
		timeout: cfg.GeneratorTimeout(),
	}
	if cfg.AnthropicAPIKey != "" {
		s.client = &anthropicCompletion{
			client: anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		}
	} else {
		log.Warn().Msg("no anthropic api key configured, palette generation will use fallbacks only")
	}
	return s
}

// Generate produces exactly eleven hex colors for the keyword. It never
// fails on model trouble; the curated palettes are the floor.
func (s *GeneratorService) Generate(ctx context.Context, keyword string) (*model.SharedPalette, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, apperrors.MissingRequired("keyword")
	}

	if s.client == nil {
		return s.fallback(keyword), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.Complete(ctx, s.model, fmt.Sprintf(generatorPromptFormat, keyword, keyword), generatorMaxTokens)
	if err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("palette generation failed, serving fallback")
		return s.fallback(keyword), nil
	}

	colors := util.ParseHexLines(text, config.PaletteSize)
	if len(colors) != config.PaletteSize {
		log.Warn().
			Str("keyword", keyword).
			Int("parsed", len(colors)).
			Msg("model returned wrong color count, serving fallback")
		return s.fallback(keyword), nil
	}

	return &model.SharedPalette{
		Colors:  colors,
		Keyword: keyword,
		Source:  model.PaletteSourceAI,
	}, nil
}

func (s *GeneratorService) fallback(keyword string) *model.SharedPalette {
	lower := strings.ToLower(keyword)
	colors := fallbackPalettes["tech"]
	for _, key := range []string{"energetic", "calm", "luxury", "nature", "tech"} {
		if strings.Contains(lower, key) {
			colors = fallbackPalettes[key]
			break
		}
	}

	out := make([]string, len(colors))
	copy(out, colors)
	return &model.SharedPalette{
		Colors:  out,
		Keyword: keyword,
		Source:  model.PaletteSourceFallback,
	}
}
