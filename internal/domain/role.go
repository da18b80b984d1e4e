package domain

// Bearer token roles. Residents manage their own device; admins manage the
// residency admin device and send broadcasts.
const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
)
