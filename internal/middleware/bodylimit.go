package middleware

import (
	"net/http"

	"github.com/huehive/collab-server-go/internal/config"
)

// BodyLimitMiddleware rejects oversized request bodies before any handler
// decodes them. Palette payloads are small, so the limit is tight; websocket
// upgrades carry no body and pass through untouched.
type BodyLimitMiddleware struct {
	maxSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = config.MaxRequestBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Declared length first; MaxBytesReader still catches chunked
		// bodies that lie about it.
		if r.ContentLength > m.maxSize {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxSize)
		next.ServeHTTP(w, r)
	})
}
