package agent

import (
	"fmt"

	"github.com/visitsafe-api/internal/domain"
)

func confirmationData() map[string]string {
	return map[string]string{domain.DataType: domain.NotificationTypeActionConfirmation}
}

// confirmationNotification is derived from the status the server reports,
// never from the action the user clicked.
func confirmationNotification(res *domain.ActionResult) Notification {
	n := Notification{Data: confirmationData()}
	switch res.Status {
	case domain.StatusApproved:
		n.Title, n.Body = "Visitor Approved", "Access granted successfully."
	case domain.StatusRejected:
		n.Title, n.Body = "Visitor Rejected", "Access denied."
	default:
		n.Title, n.Body = "Visitor Request Updated", fmt.Sprintf("Request is %s.", res.Status)
	}
	if res.AlreadyProcessed {
		n.Body = fmt.Sprintf("This request was already %s.", res.Status)
	}
	return n
}

func failureNotification(err error) Notification {
	return Notification{
		Title: "Action Failed",
		Body:  fmt.Sprintf("Could not process visitor request: %v", err),
		Data:  confirmationData(),
	}
}
