package models

import (
	"encoding/json"
	"time"
)

// AuditAction values written to audit_logs.action by the application.
const (
	AuditActionNfcScan                = "nfc_scan"
	AuditActionNfcLinkCreate          = "nfc_link_create"
	AuditActionProfileUpdate          = "profile_update"
	AuditActionProfileUpdateAdmin     = "profile_update_admin"
	AuditActionProfileUpdateAdminBulk = "profile_update_admin_bulk"
	AuditActionRoleUpdate             = "role_update"
	AuditActionUserDelete             = "user_delete"
	AuditActionCreateDataOnlyUser     = "create_data_only_user"
	AuditActionUserLogin              = "user_login"
	AuditActionEmergencyAdminLogin    = "emergency_admin_login"
	AuditActionUserApproved           = "user_approved"
	AuditActionUserRejected           = "user_rejected"
)

// AuditActions lists every action the application records, in the order above.
var AuditActions = []string{
	AuditActionNfcScan,
	AuditActionNfcLinkCreate,
	AuditActionProfileUpdate,
	AuditActionProfileUpdateAdmin,
	AuditActionProfileUpdateAdminBulk,
	AuditActionRoleUpdate,
	AuditActionUserDelete,
	AuditActionCreateDataOnlyUser,
	AuditActionUserLogin,
	AuditActionEmergencyAdminLogin,
	AuditActionUserApproved,
	AuditActionUserRejected,
}

// AuditLog represents an append-only audit trail record. The name/email
// columns snapshot the actor and target so entries stay readable after the
// referenced users are deleted.
type AuditLog struct {
	ID              int64           `db:"id" json:"id"`
	ActorID         *string         `db:"actor_id" json:"actor_id,omitempty"`
	TargetUserID    *string         `db:"target_user_id" json:"target_user_id,omitempty"`
	Action          string          `db:"action" json:"action"`
	Details         json.RawMessage `db:"details" json:"details,omitempty"`
	IPAddress       *string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent       *string         `db:"user_agent" json:"user_agent,omitempty"`
	ActorName       *string         `db:"actor_name" json:"actor_name,omitempty"`
	ActorEmail      *string         `db:"actor_email" json:"actor_email,omitempty"`
	TargetUserName  *string         `db:"target_user_name" json:"target_user_name,omitempty"`
	TargetUserEmail *string         `db:"target_user_email" json:"target_user_email,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
