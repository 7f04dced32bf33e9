package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ApprovalStatus gates account activation.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// AllApprovalStatuses lists the values accepted by the users.approval_status check constraint.
var AllApprovalStatuses = []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected}

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ParseApprovalStatus converts raw text into an ApprovalStatus.
func ParseApprovalStatus(raw string) (ApprovalStatus, error) {
	s := ApprovalStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown approval status %q", raw)
	}
	return s, nil
}

// Value implements driver.Valuer.
func (s ApprovalStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown approval status %q", string(s))
	}
	return string(s), nil
}

// Scan implements sql.Scanner.
func (s *ApprovalStatus) Scan(src interface{}) error {
	raw, err := enumText(src)
	if err != nil {
		return fmt.Errorf("scan approval status: %w", err)
	}
	parsed, err := ParseApprovalStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// User represents an attendee or staff account stored in the users table.
type User struct {
	ID             string         `db:"id" json:"id"`
	Email          string         `db:"email" json:"email"`
	Name           string         `db:"name" json:"name"`
	Image          *string        `db:"image" json:"image,omitempty"`
	RoleID         int            `db:"role_id" json:"role_id"`
	PasswordHash   *string        `db:"password_hash" json:"-"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	ApprovedBy     *string        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
