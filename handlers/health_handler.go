package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthHandler struct {
	check func(ctx context.Context) error
}

// NewHealthHandler reports unhealthy when check fails. check may be nil.
func NewHealthHandler(check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{check: check}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			errorResponse(w, r, http.StatusServiceUnavailable, "store unavailable", nil)
			return
		}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "ok"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
