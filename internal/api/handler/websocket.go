package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/middleware"
	"github.com/utsav306/farmconnect-sub000/internal/websockets"
)

// WebSocketHandler upgrades authenticated clients onto the hub. Browsers
// cannot set headers on a websocket handshake, so the token travels in the
// query string; the Authorization header is accepted too.
type WebSocketHandler struct {
	hub      *websockets.Hub
	authn    middleware.Authenticator
	upgrader *websocket.Upgrader
	fail     api.ErrorWriter
	log      *zap.Logger
}

func NewWebSocketHandler(hub *websockets.Hub, authn middleware.Authenticator, allowedOrigins []string, fail api.ErrorWriter, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		authn:    authn,
		upgrader: websockets.NewUpgrader(allowedOrigins),
		fail:     fail,
		log:      log,
	}
}

// ServeHTTP upgrades the connection and streams the caller's notifications
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var err error
		if token, err = middleware.BearerToken(r); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	user, err := h.authn.Authenticate(r.Context(), token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response.
		h.log.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	websockets.ServeWs(h.hub, conn, user.ID)
}
