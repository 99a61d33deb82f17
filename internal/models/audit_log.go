package models

import "time"

// Audit actions recorded by the core flows
const (
	AuditLogin                = "LOGIN"
	AuditRequestPasswordReset = "REQUEST_PASSWORD_RESET"
	AuditResetPassword        = "RESET_PASSWORD"
	AuditVerifyMFASuccess     = "VERIFY_MFA_SUCCESS"
	AuditVerifyMFAFailed      = "VERIFY_MFA_FAILED"
	AuditCreateEvent          = "CREATE_EVENT"
	AuditUpdateEvent          = "UPDATE_EVENT"
	AuditDeleteEvent          = "DELETE_EVENT"
	AuditProvisionUser        = "PROVISION_USER"
)

// AuditLog is one persisted audit entry. UserID is empty for actions with no
// acting user (e.g. provisioning by a bootstrap script); Metadata holds the
// serialized form of whatever context the caller attached.
type AuditLog struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
