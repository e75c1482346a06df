package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/api"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	log *zap.Logger
}

func NewHealthHandler(db Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

type healthResponse struct {
	Status string `json:"status"`
}

// ServeHTTP reports whether the database answers
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))
		api.RespondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	api.RespondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
