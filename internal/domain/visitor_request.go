package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type VisitorStatus string

const (
	StatusPending  VisitorStatus = "pending"
	StatusApproved VisitorStatus = "approved"
	StatusRejected VisitorStatus = "rejected"
)

// VisitorRequest is a single visit awaiting (or past) a resident decision.
// PK: residency_id, SK: request_id.
type VisitorRequest struct {
	RequestID     string        `json:"id" dynamodbav:"request_id"`
	ResidencyID   string        `json:"residencyId" dynamodbav:"residency_id"`
	UnitID        string        `json:"flatId" dynamodbav:"unit_id"`
	UnitNumber    string        `json:"unitNumber,omitempty" dynamodbav:"unit_number,omitempty"`
	BlockName     string        `json:"blockName,omitempty" dynamodbav:"block_name,omitempty"`
	VisitorName   string        `json:"visitorName" dynamodbav:"visitor_name"`
	VisitorPhone  string        `json:"visitorPhone" dynamodbav:"visitor_phone"`
	Purpose       string        `json:"purpose" dynamodbav:"purpose"`
	VehicleNumber *string       `json:"vehicleNumber" dynamodbav:"vehicle_number"`
	PhotoKey      string        `json:"photoKey,omitempty" dynamodbav:"photo_key,omitempty"`
	Status        VisitorStatus `json:"status" dynamodbav:"status"`
	ActionToken   string        `json:"-" dynamodbav:"action_token,omitempty"` // set once at creation
	ActionBy      string        `json:"actionBy,omitempty" dynamodbav:"action_by,omitempty"`
	ApprovedBy    string        `json:"approvedBy,omitempty" dynamodbav:"approved_by,omitempty"`
	ApprovedAt    *time.Time    `json:"approvedAt,omitempty" dynamodbav:"approved_at,omitempty"`
	RejectedBy    string        `json:"rejectedBy,omitempty" dynamodbav:"rejected_by,omitempty"`
	RejectedAt    *time.Time    `json:"rejectedAt,omitempty" dynamodbav:"rejected_at,omitempty"`
	CreatedAt     time.Time     `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" dynamodbav:"updated_at"`
}

// UnitRef returns the legacy (number, block) pair stamped on the request, if any.
func (v *VisitorRequest) UnitRef() UnitRef {
	return UnitRef{Number: v.UnitNumber, BlockName: v.BlockName}
}

// SubmitVisitorRequest is the gate-side submission body.
type SubmitVisitorRequest struct {
	ResidencyID   string     `json:"residencyId" validate:"required"`
	VisitorName   string     `json:"visitorName" validate:"required"`
	VisitorPhone  string     `json:"visitorPhone"`
	UnitID        FlexString `json:"flatId" validate:"required"`
	Purpose       string     `json:"purpose"`
	VehicleNumber *string    `json:"vehicleNumber"`
	VisitorPhoto  string     `json:"visitorPhoto,omitempty"` // base64, optionally a data URL
}

// Transition is the single pending→resolved mutation applied to a request.
type Transition struct {
	Status   VisitorStatus
	ActionBy string
	At       time.Time
}

// FlexString accepts either a JSON string or a JSON number. Gate clients
// historically send flat identifiers as numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("flexstring: expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }
