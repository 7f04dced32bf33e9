package models

import "time"

// NfcLink binds a physical badge to a user. BadgeID maps to the nfc_links.uuid column.
type NfcLink struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	BadgeID       string     `db:"uuid" json:"uuid"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	LastScannedAt *time.Time `db:"last_scanned_at" json:"last_scanned_at,omitempty"`
	ScanCount     int        `db:"scan_count" json:"scan_count"`
}
