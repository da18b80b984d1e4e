package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/visitsafe-api/internal/application/visitor"
	"github.com/visitsafe-api/internal/domain"
)

// maxSubmitBody leaves room for a base64 visitor photo.
const maxSubmitBody = 8 << 20

// VisitorRequestHandler handles gate-side visitor submissions.
type VisitorRequestHandler struct {
	svc           visitor.Service
	publicBaseURL string
	trustProxy    bool
}

func NewVisitorRequestHandler(svc visitor.Service, publicBaseURL string, trustProxy bool) *VisitorRequestHandler {
	return &VisitorRequestHandler{svc: svc, publicBaseURL: publicBaseURL, trustProxy: trustProxy}
}

func (h *VisitorRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitVisitorRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Submit(r.Context(), req, h.baseURL(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitEnvelope{Success: true, RequestID: res.RequestID})
}

// baseURL is the origin embedded in action links: the configured public URL,
// else the scheme and host the caller reached us on. Forwarded headers count
// only behind a trusted proxy.
func (h *VisitorRequestHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}
	proto, host := "https", r.Host
	if h.trustProxy {
		if p := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); p != "" {
			proto = p
		}
		if fh := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fh != "" {
			host = fh
		}
	}
	return proto + "://" + host
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
