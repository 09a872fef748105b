package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huehive/collab-server-go/internal/middleware"
	"github.com/huehive/collab-server-go/internal/service"
)

type PaletteHandler struct {
	paletteService *service.PaletteService
}

func NewPaletteHandler(paletteService *service.PaletteService) *PaletteHandler {
	return &PaletteHandler{paletteService: paletteService}
}

func (h *PaletteHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Save)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Get("/{id}/versions", h.ListVersions)
	r.Post("/{id}/versions", h.SnapshotVersion)

	return r
}

// GET /v1/palettes
func (h *PaletteHandler) List(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	palettes, err := h.paletteService.List(r.Context(), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"palettes": palettes})
}

// POST /v1/palettes
func (h *PaletteHandler) Save(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		Name          string   `json:"name"`
		Description   *string  `json:"description"`
		Colors        []string `json:"colors"`
		Keywords      []string `json:"keywords"`
		IsAIGenerated bool     `json:"isAiGenerated"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	palette, err := h.paletteService.Save(r.Context(), account.ID, service.SavePaletteInput{
		Name:          req.Name,
		Description:   req.Description,
		Colors:        req.Colors,
		Keywords:      req.Keywords,
		IsAIGenerated: req.IsAIGenerated,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, palette)
}

// GET /v1/palettes/{id}
func (h *PaletteHandler) Get(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	palette, err := h.paletteService.Get(r.Context(), chi.URLParam(r, "id"), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, palette)
}

// PUT /v1/palettes/{id}
func (h *PaletteHandler) Update(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Colors      []string `json:"colors"`
		Keywords    []string `json:"keywords"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	palette, err := h.paletteService.Update(r.Context(), chi.URLParam(r, "id"), account.ID, service.UpdatePaletteInput{
		Name:        req.Name,
		Description: req.Description,
		Colors:      req.Colors,
		Keywords:    req.Keywords,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, palette)
}

// DELETE /v1/palettes/{id}
func (h *PaletteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	if err := h.paletteService.Delete(r.Context(), chi.URLParam(r, "id"), account.ID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// GET /v1/palettes/{id}/versions
func (h *PaletteHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	versions, err := h.paletteService.Versions(r.Context(), chi.URLParam(r, "id"), account.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

// POST /v1/palettes/{id}/versions
func (h *PaletteHandler) SnapshotVersion(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		Description *string `json:"description"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}
	}

	version, err := h.paletteService.SnapshotVersion(r.Context(), chi.URLParam(r, "id"), account.ID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, version)
}
