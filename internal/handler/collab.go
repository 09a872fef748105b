package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/middleware"
	"github.com/huehive/collab-server-go/internal/model"
	"github.com/huehive/collab-server-go/internal/service"
	"github.com/huehive/collab-server-go/internal/ws"
)

type CollabHandler struct {
	hub      *ws.Hub
	identity *service.IdentityService
	upgrader websocket.Upgrader
}

func NewCollabHandler(hub *ws.Hub, identity *service.IdentityService) *CollabHandler {
	return &CollabHandler{
		hub:      hub,
		identity: identity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Cross-origin browser clients are the normal case for the
			// studio; tokens, not origins, gate access.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *CollabHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{sessionID}", h.Join)
	r.Get("/{sessionID}/roster", h.Roster)
	return r
}

// GET /v1/collab/{sessionID}
// Upgrades to websocket and attaches the client to the session. The identity
// comes from the authenticated account when one is present; otherwise the
// query parameters resume a previous guest identity or a fresh one is minted.
func (h *CollabHandler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Session id is required"})
		return
	}

	var participant model.Participant
	if account := middleware.GetAccount(r.Context()); account != nil {
		participant = h.identity.ForAccount(account)
	} else {
		participant = h.identity.Resume(
			r.URL.Query().Get("participantId"),
			r.URL.Query().Get("displayName"),
		)
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Debug().Err(err).Str("sessionId", sessionID).Msg("websocket upgrade failed")
		return
	}

	go ws.NewClient(h.hub, sock, sessionID, participant).Serve()
}

// GET /v1/collab/{sessionID}/roster
// Snapshot of who is in the session right now, for debugging and dashboards.
func (h *CollabHandler) Roster(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	roster := h.hub.Roster(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":    sessionID,
		"participants": roster,
		"clientCount":  h.hub.ClientCount(sessionID),
	})
}
