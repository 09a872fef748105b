package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huehive/collab-server-go/internal/export"
)

type ExportHandler struct{}

func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/formats", h.Formats)
	r.Post("/{format}", h.Export)
	return r
}

// GET /v1/export/formats
func (h *ExportHandler) Formats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": export.Formats()})
}

// POST /v1/export/{format}
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Keyword string   `json:"keyword"`
		Colors  []string `json:"colors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	file, err := export.Render(format, req.Keyword, req.Colors)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, file)
}
