package domain

import "errors"

// Notification data-payload keys. Clients read these from the push data map,
// so the names are part of the wire contract.
const (
	DataType          = "type"
	DataActionType    = "actionType"
	DataRequestID     = "requestId"
	DataResidencyID   = "residencyId"
	DataResidentID    = "residentId"
	DataApprovalToken = "approvalToken"
	DataVisitorName   = "visitorName"
	DataFlatID        = "flatId"
	DataClickAction   = "click_action"
	DataApproveURL    = "approveUrl"
	DataRejectURL     = "rejectUrl"
	DataTimestamp     = "timestamp"
)

// Notification type values.
const (
	NotificationTypeVisitorRequest     = "visitor_request"
	NotificationTypeBroadcast          = "admin-broadcast"
	NotificationTypeActionConfirmation = "action_confirmation"
	ActionTypeVisitorRequest           = "VISITOR_REQUEST"
)

// PushMessage is what the push collaborator delivers to a single device token.
type PushMessage struct {
	Title        string
	Body         string
	ImageURL     string
	Data         map[string]string
	HighPriority bool
}

// PushResult is the per-token outcome of a dispatch.
type PushResult struct {
	Token string
	Err   error
}

func (r PushResult) Success() bool { return r.Err == nil }

// Stale reports a permanent rejection of the token. Transient and
// configuration failures are not stale.
func (r PushResult) Stale() bool { return errors.Is(r.Err, ErrStaleToken) }

type BroadcastRequest struct {
	ResidencyID string `json:"residencyId" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Body        string `json:"body" validate:"required"`
}

type BroadcastResult struct {
	Success      bool   `json:"success"`
	SentCount    int    `json:"sentCount"`
	FailureCount int    `json:"failureCount"`
	Message      string `json:"message,omitempty"`
}
