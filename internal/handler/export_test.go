package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportRequest(t *testing.T, format, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Mount("/v1/export", NewExportHandler().Routes())

	req := httptest.NewRequest(http.MethodPost, "/v1/export/"+format, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExportHandler(t *testing.T) {
	body := `{"keyword":"ocean","colors":["#3B82F6","#8B5CF6"]}`

	t.Run("renders css", func(t *testing.T) {
		rec := exportRequest(t, "css", body)
		require.Equal(t, http.StatusOK, rec.Code)

		var file struct {
			Filename string `json:"filename"`
			Content  string `json:"content"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &file))
		assert.Equal(t, "ocean-palette.css", file.Filename)
		assert.Contains(t, file.Content, "--color-1: #3B82F6;")
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := exportRequest(t, "pdf", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid colors", func(t *testing.T) {
		rec := exportRequest(t, "css", `{"keyword":"ocean","colors":["blue"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("lists formats", func(t *testing.T) {
		r := chi.NewRouter()
		r.Mount("/v1/export", NewExportHandler().Routes())

		req := httptest.NewRequest(http.MethodGet, "/v1/export/formats", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "tailwind")
	})
}

func TestPaletteHandlerRequiresAccount(t *testing.T) {
	h := NewPaletteHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/palettes", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
