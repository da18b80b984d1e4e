package handler

import (
	"encoding/json"
	"net/http"

	"github.com/visitsafe-api/internal/application/broadcast"
	"github.com/visitsafe-api/internal/domain"
	"github.com/visitsafe-api/internal/transport/http/middleware"
)

const maxBroadcastBody = 64 << 10

// BroadcastHandler handles admin broadcasts to every registered device of a residency.
type BroadcastHandler struct {
	svc broadcast.Service
}

func NewBroadcastHandler(svc broadcast.Service) *BroadcastHandler {
	return &BroadcastHandler{svc: svc}
}

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.BroadcastRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBroadcastBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Authenticated admins may only broadcast to their own residency.
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && claims.ResidencyID != req.ResidencyID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	res, err := h.svc.Send(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
