// Command agent is a headless session participant: it joins a collaboration
// session, logs roster and palette activity, and optionally publishes a
// generated palette. Useful for smoke-testing a deployment and for driving
// demo sessions.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/broker"
	"github.com/huehive/collab-server-go/internal/collab"
	"github.com/huehive/collab-server-go/internal/config"
	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/redis"
	"github.com/huehive/collab-server-go/internal/service"
	"github.com/huehive/collab-server-go/internal/ws"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		relayURL  = flag.String("relay", "", "relay websocket base url, e.g. ws://localhost:8080")
		redisURL  = flag.String("redis", "", "redis url; used instead of the relay when set")
		sessionID = flag.String("session", "palette-studio", "session id to join")
		name      = flag.String("name", "", "display name (default: generated handle)")
		keyword   = flag.String("generate", "", "generate a palette for this keyword and publish it")
		token     = flag.String("token", "", "api token for an authenticated identity")
	)
	flag.Parse()

	transport, err := buildTransport(*relayURL, *redisURL, *token)
	if err != nil {
		log.Fatal().Err(err).Msg("transport setup failed")
	}

	identityService := service.NewIdentityService()
	identity := identityService.Anonymous()
	if *name != "" {
		identity = identityService.Resume(identity.ID, *name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	session, err := collab.Join(ctx, transport, *sessionID, identity)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Str("sessionId", *sessionID).Msg("join failed")
	}
	defer session.Leave()

	log.Info().
		Str("sessionId", *sessionID).
		Str("participantId", identity.ID).
		Str("displayName", identity.DisplayName).
		Msg("joined session")

	session.Registry().OnJoin(func(p model.Participant) {
		log.Info().Str("participantId", p.ID).Str("displayName", p.DisplayName).Msg("participant joined")
	})
	session.Registry().OnLeave(func(participantID string) {
		log.Info().Str("participantId", participantID).Msg("participant left")
	})
	session.Palette().OnPaletteUpdated(func(palette model.SharedPalette, updatedBy string) {
		log.Info().
			Str("updatedBy", updatedBy).
			Str("keyword", palette.Keyword).
			Strs("colors", palette.Colors).
			Msg("palette updated")
	})
	session.Palette().OnColorSelected(func(participantID, color string) {
		log.Info().Str("participantId", participantID).Str("color", color).Msg("color selected")
	})

	select {
	case <-session.Synced():
		log.Info().Int("participants", len(session.Registry().Roster())).Msg("synced")
	case <-time.After(10 * time.Second):
		log.Warn().Msg("no presence snapshot yet, continuing anyway")
	}

	if *keyword != "" {
		publishGenerated(session, *keyword)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("leaving session")
	case <-session.Done():
		log.Warn().Msg("connection closed")
	}
}

func buildTransport(relayURL, redisURL, token string) (collab.Transport, error) {
	if redisURL != "" {
		client, err := redis.NewClient(redisURL)
		if err != nil {
			return nil, err
		}
		return broker.NewTransport(client), nil
	}
	if relayURL == "" {
		relayURL = "ws://localhost:8080"
	}
	return ws.NewDialTransport(relayURL, token), nil
}

func publishGenerated(session *collab.Session, keyword string) {
	generator := service.NewGeneratorService(&config.Config{
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		GeneratorModel:     "claude-3-5-haiku-latest",
		GeneratorTimeoutMS: 20000,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	palette, err := generator.Generate(ctx, keyword)
	if err != nil {
		log.Error().Err(err).Msg("generation failed")
		return
	}

	if err := session.Palette().PublishPaletteUpdate(*palette); err != nil {
		log.Error().Err(err).Msg("publish failed")
		return
	}
	log.Info().
		Str("keyword", keyword).
		Str("source", string(palette.Source)).
		Msg("published generated palette")
}
