package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/service"
)

type GenerateHandler struct {
	generator *service.GeneratorService
}

func NewGenerateHandler(generator *service.GeneratorService) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

func (h *GenerateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Generate)
	return r
}

// POST /v1/generate
// Turns a mood keyword into exactly eleven hex colors. Falls back to a
// curated palette when the model misbehaves, so the response shape never
// changes; the source field says which path produced it.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Keyword is required"})
		return
	}

	palette, err := h.generator.Generate(r.Context(), req.Keyword)
	if err != nil {
		writeError(w, err)
		return
	}

	log.Info().
		Str("keyword", palette.Keyword).
		Str("source", string(palette.Source)).
		Msg("palette generated")

	writeJSON(w, http.StatusOK, map[string]any{
		"colors":  palette.Colors,
		"keyword": palette.Keyword,
		"source":  palette.Source,
	})
}
