package domain

import "time"

// Residency is a gated community. PK: residency_id.
type Residency struct {
	ResidencyID      string  `json:"id" dynamodbav:"residency_id"`
	Name             string  `json:"name" dynamodbav:"name"`
	AdminDeviceToken *string `json:"-" dynamodbav:"admin_device_token,omitempty"`
}

// Resident belongs to a residency and lives in one unit, addressed either by
// UnitID or by the legacy (UnitNumber, BlockName) pair.
// PK: residency_id, SK: resident_id.
type Resident struct {
	ResidentID           string     `json:"id" dynamodbav:"resident_id"`
	ResidencyID          string     `json:"residencyId" dynamodbav:"residency_id"`
	Name                 string     `json:"name" dynamodbav:"name"`
	Phone                *string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	UnitID               string     `json:"flatId,omitempty" dynamodbav:"unit_id,omitempty"`
	UnitNumber           string     `json:"unitNumber,omitempty" dynamodbav:"unit_number,omitempty"`
	BlockName            string     `json:"blockName,omitempty" dynamodbav:"block_name,omitempty"`
	DeviceToken          *string    `json:"-" dynamodbav:"device_token,omitempty"`
	DeviceTokenUpdatedAt *time.Time `json:"deviceTokenUpdatedAt,omitempty" dynamodbav:"device_token_updated_at,omitempty"`
}

func (r *Resident) UnitRef() UnitRef {
	return UnitRef{Number: r.UnitNumber, BlockName: r.BlockName}
}

// HasDevice reports whether the resident holds a registered push token.
func (r *Resident) HasDevice() bool {
	return r.DeviceToken != nil && *r.DeviceToken != ""
}

type UpdateDeviceTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// Recipient pairs a device token with the resident it was resolved for.
// Computed per dispatch, never persisted.
type Recipient struct {
	DeviceToken string
	ResidentID  string
}
