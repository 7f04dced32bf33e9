package models

import "time"

// RateLimit is one counter row per (identifier, action, window_start) bucket.
type RateLimit struct {
	ID          int64     `db:"id" json:"id"`
	Identifier  string    `db:"identifier" json:"identifier"`
	Action      string    `db:"action" json:"action"`
	Count       int       `db:"count" json:"count"`
	WindowStart time.Time `db:"window_start" json:"window_start"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
