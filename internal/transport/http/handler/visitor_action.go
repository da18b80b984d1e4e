package handler

import (
	"net/http"
	"strings"

	"github.com/visitsafe-api/internal/application/visitoraction"
)

// VisitorActionHandler serves approve/reject decisions, both from action
// links opened in a browser and from programmatic callers.
type VisitorActionHandler struct {
	svc visitoraction.Service
}

func NewVisitorActionHandler(svc visitoraction.Service) *VisitorActionHandler {
	return &VisitorActionHandler{svc: svc}
}

// Handle accepts GET and POST. Browsers opening an action link are always
// redirected home, whatever the outcome; other callers get JSON.
func (h *VisitorActionHandler) Handle(w http.ResponseWriter, r *http.Request) {
	direct := isDirectNavigation(r)

	req, err := parseActionRequest(r)
	if err != nil {
		h.fail(w, r, direct, err)
		return
	}
	res, err := h.svc.Act(r.Context(), req)
	if err != nil {
		h.fail(w, r, direct, err)
		return
	}
	if direct {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *VisitorActionHandler) fail(w http.ResponseWriter, r *http.Request, direct bool, err error) {
	if direct {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	httpError(w, err)
}

// isDirectNavigation reports a browser opening an action link, as opposed to
// a programmatic call.
func isDirectNavigation(r *http.Request) bool {
	return r.Method == http.MethodGet && !strings.Contains(r.Header.Get("Accept"), "application/json")
}
