package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DietType is the closed set of values of the diet_type enum type.
type DietType string

const (
	DietVeg    DietType = "veg"
	DietNonVeg DietType = "nonveg"
)

// DefaultDiet is applied by the profiles.diet column default.
const DefaultDiet = DietVeg

var AllDietTypes = []DietType{DietVeg, DietNonVeg}

func (d DietType) Valid() bool {
	return d == DietVeg || d == DietNonVeg
}

// ParseDietType converts raw text into a DietType.
func ParseDietType(raw string) (DietType, error) {
	d := DietType(raw)
	if !d.Valid() {
		return "", fmt.Errorf("unknown diet type %q", raw)
	}
	return d, nil
}

// Value implements driver.Valuer.
func (d DietType) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown diet type %q", string(d))
	}
	return string(d), nil
}

// Scan implements sql.Scanner.
func (d *DietType) Scan(src interface{}) error {
	raw, err := enumText(src)
	if err != nil {
		return fmt.Errorf("scan diet type: %w", err)
	}
	parsed, err := ParseDietType(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Profile holds per-user event logistics; at most one per user.
type Profile struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	BagsChecked  bool      `db:"bags_checked" json:"bags_checked"`
	Attendance   bool      `db:"attendance" json:"attendance"`
	ReceivedFood bool      `db:"received_food" json:"received_food"`
	Diet         DietType  `db:"diet" json:"diet"`
	Allergens    *string   `db:"allergens" json:"allergens,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
