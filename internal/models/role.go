package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// UserRole is the closed set of values of the user_role enum type.
type UserRole string

const (
	RoleUser     UserRole = "user"
	RoleSecurity UserRole = "security"
	RoleOverseer UserRole = "overseer"
	RoleAdmin    UserRole = "admin"
)

// BaseRoleID is the roles.id the users.role_id column defaults to.
const BaseRoleID = 1

// AllRoles lists roles in seed order; the base role comes first.
var AllRoles = []UserRole{RoleUser, RoleSecurity, RoleOverseer, RoleAdmin}

var roleDescriptions = map[UserRole]string{
	RoleUser:     "Standard user with basic access",
	RoleSecurity: "Can update bags_checked and attendance",
	RoleOverseer: "Read-only access to all user data",
	RoleAdmin:    "Full access to all features",
}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	_, ok := roleDescriptions[r]
	return ok
}

// Description returns the seeded description of the role.
func (r UserRole) Description() string {
	return roleDescriptions[r]
}

// ParseUserRole converts raw text into a UserRole.
func ParseUserRole(raw string) (UserRole, error) {
	r := UserRole(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown user role %q", raw)
	}
	return r, nil
}

// Value implements driver.Valuer.
func (r UserRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown user role %q", string(r))
	}
	return string(r), nil
}

// Scan implements sql.Scanner.
func (r *UserRole) Scan(src interface{}) error {
	raw, err := enumText(src)
	if err != nil {
		return fmt.Errorf("scan user role: %w", err)
	}
	parsed, err := ParseUserRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Role represents a row of the roles table.
type Role struct {
	ID          int       `db:"id" json:"id"`
	Name        UserRole  `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// enumText accepts the representations drivers use for enum columns.
func enumText(src interface{}) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case nil:
		return "", fmt.Errorf("null value")
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}
