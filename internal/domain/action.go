package domain

import (
	"fmt"
	"strings"
)

// Action is a resident decision on a visitor request.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// AdminRecipientID tags the residency admin device. Actions carrying it skip
// the resident-to-unit check.
const AdminRecipientID = "admin"

// DefaultActionBy is recorded when the caller identifies neither a resident nor a user.
const DefaultActionBy = "notification_action"

var actionSynonyms = map[string]Action{
	"approve":  ActionApprove,
	"approved": ActionApprove,
	"accept":   ActionApprove,
	"allow":    ActionApprove,
	"reject":   ActionReject,
	"rejected": ActionReject,
	"deny":     ActionReject,
	"decline":  ActionReject,
}

// ParseAction normalizes raw action names from links, bodies and notification
// buttons ("APPROVE_VISITOR", " Reject ", "approved") into an Action.
func ParseAction(raw string) (Action, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "_visitor")
	s = strings.TrimSuffix(s, "-visitor")
	if a, ok := actionSynonyms[s]; ok {
		return a, nil
	}
	return "", fmt.Errorf("invalid action %q: %w", raw, ErrBadRequest)
}

// ResultingStatus is the status a pending request moves to under this action.
func (a Action) ResultingStatus() VisitorStatus {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// ActionRequest is the normalized input of the visitor action endpoint,
// regardless of whether values arrived in the query string or the body.
type ActionRequest struct {
	Action      Action
	RequestID   string
	ResidencyID string
	ResidentID  string
	Token       string
	ActionBy    string
}

func (r ActionRequest) Validate() error {
	if r.Action != ActionApprove && r.Action != ActionReject {
		return fmt.Errorf("invalid action: %w", ErrBadRequest)
	}
	if r.ResidencyID == "" || r.RequestID == "" {
		return fmt.Errorf("missing residencyId or requestId: %w", ErrBadRequest)
	}
	return nil
}

// Actor is the identity recorded in actionBy and the approvedBy/rejectedBy fields.
func (r ActionRequest) Actor() string {
	switch {
	case r.ResidentID != "":
		return r.ResidentID
	case r.ActionBy != "":
		return r.ActionBy
	default:
		return DefaultActionBy
	}
}

// ActionResult is what the endpoint reports to programmatic callers.
// Status is always the stored truth, InputAction echoes what the caller asked for.
type ActionResult struct {
	Success          bool          `json:"success"`
	Status           VisitorStatus `json:"status"`
	InputAction      Action        `json:"inputAction"`
	AlreadyProcessed bool          `json:"alreadyProcessed,omitempty"`
	Message          string        `json:"message,omitempty"`
}
