package models

import "time"

// SessionToken stores the hash of an issued session token, never the raw value.
type SessionToken struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	TokenHash  string    `db:"token_hash" json:"-"`
	ExpiresAt  time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastUsedAt time.Time `db:"last_used_at" json:"last_used_at"`
}
