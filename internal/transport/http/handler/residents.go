package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/visitsafe-api/internal/application/resident"
	"github.com/visitsafe-api/internal/domain"
	"github.com/visitsafe-api/internal/transport/http/middleware"
)

// ResidentHandler manages push device registration for residents and the
// residency admin device.
type ResidentHandler struct {
	svc resident.Service
}

func NewResidentHandler(svc resident.Service) *ResidentHandler {
	return &ResidentHandler{svc: svc}
}

// SetDeviceToken registers the caller's device. Admins may register a
// device for any resident of their residency.
func (h *ResidentHandler) SetDeviceToken(w http.ResponseWriter, r *http.Request) {
	residencyID, residentID, ok := h.authorizeResident(w, r)
	if !ok {
		return
	}
	token, ok := decodeToken(w, r)
	if !ok {
		return
	}
	if err := h.svc.SetDeviceToken(r.Context(), residencyID, residentID, token); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "device token registered"})
}

func (h *ResidentHandler) ClearDeviceToken(w http.ResponseWriter, r *http.Request) {
	residencyID, residentID, ok := h.authorizeResident(w, r)
	if !ok {
		return
	}
	if err := h.svc.ClearDeviceToken(r.Context(), residencyID, residentID); err != nil {
		httpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAdminDeviceToken registers the residency admin device. Mounted behind
// RequireRole(admin).
func (h *ResidentHandler) SetAdminDeviceToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	residencyID := chi.URLParam(r, "residencyID")
	if claims.Role != domain.RoleAdmin || claims.ResidencyID != residencyID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	token, ok := decodeToken(w, r)
	if !ok {
		return
	}
	if err := h.svc.SetAdminDeviceToken(r.Context(), residencyID, token); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "admin device token registered"})
}

func (h *ResidentHandler) authorizeResident(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", "", false
	}
	residencyID := chi.URLParam(r, "residencyID")
	residentID := chi.URLParam(r, "residentID")
	if !claims.CanActFor(residencyID, residentID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", "", false
	}
	return residencyID, residentID, true
}

// maxTokenBody bounds device-token registration bodies.
const maxTokenBody = 16 << 10

func decodeToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req domain.UpdateDeviceTokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTokenBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	return req.Token, true
}
