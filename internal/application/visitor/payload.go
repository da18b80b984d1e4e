package visitor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/visitsafe-api/internal/domain"
)

// ActionPath is the route of the visitor action endpoint.
const ActionPath = "/v1/visitor-action"

// ActionLink builds an approve or reject link for one recipient.
func ActionLink(baseURL string, action domain.Action, v *domain.VisitorRequest, residentID string) string {
	q := url.Values{}
	q.Set("action", string(action))
	q.Set("residencyId", v.ResidencyID)
	q.Set("requestId", v.RequestID)
	if residentID != "" {
		q.Set("residentId", residentID)
	}
	q.Set("token", v.ActionToken)
	return strings.TrimRight(baseURL, "/") + ActionPath + "?" + q.Encode()
}

func buildMessage(v *domain.VisitorRequest, rcpt domain.Recipient, baseURL, imageURL string) domain.PushMessage {
	return domain.PushMessage{
		Title:    "New Visitor Request",
		Body:     messageBody(v),
		ImageURL: imageURL,
		Data: map[string]string{
			domain.DataType:          domain.NotificationTypeVisitorRequest,
			domain.DataActionType:    domain.ActionTypeVisitorRequest,
			domain.DataRequestID:     v.RequestID,
			domain.DataResidencyID:   v.ResidencyID,
			domain.DataResidentID:    rcpt.ResidentID,
			domain.DataApprovalToken: v.ActionToken,
			domain.DataVisitorName:   v.VisitorName,
			domain.DataFlatID:        v.UnitID,
			domain.DataClickAction:   ClickActionPath,
			domain.DataApproveURL:    ActionLink(baseURL, domain.ActionApprove, v, rcpt.ResidentID),
			domain.DataRejectURL:     ActionLink(baseURL, domain.ActionReject, v, rcpt.ResidentID),
		},
		HighPriority: true,
	}
}

func messageBody(v *domain.VisitorRequest) string {
	body := fmt.Sprintf("%s is requesting entry.", v.VisitorName)
	if v.Purpose != "" {
		body = fmt.Sprintf("%s is requesting entry (%s).", v.VisitorName, v.Purpose)
	}
	return body
}

func buildSMS(v *domain.VisitorRequest, residentID, baseURL string) string {
	return fmt.Sprintf("%s Approve: %s Reject: %s",
		messageBody(v),
		ActionLink(baseURL, domain.ActionApprove, v, residentID),
		ActionLink(baseURL, domain.ActionReject, v, residentID),
	)
}
