package dynamo

// DynamoDB attribute names used in keys, conditions and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldResidencyID          = "residency_id"
	fieldResidentID           = "resident_id"
	fieldRequestID            = "request_id"
	fieldUnitID               = "unit_id"
	fieldBlockID              = "block_id"
	fieldUnitNumber           = "unit_number"
	fieldStatus               = "status" // reserved word, always aliased
	fieldUpdatedAt            = "updated_at"
	fieldActionBy             = "action_by"
	fieldApprovedBy           = "approved_by"
	fieldApprovedAt           = "approved_at"
	fieldRejectedBy           = "rejected_by"
	fieldRejectedAt           = "rejected_at"
	fieldDeviceToken          = "device_token"
	fieldDeviceTokenUpdatedAt = "device_token_updated_at"
	fieldAdminDeviceToken     = "admin_device_token"
)
