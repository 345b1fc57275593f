package models

import "time"

// Ceremony and Degree are reference data owned by the admin CRUD surface;
// the check-in core only reads them.

type Ceremony struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	DateTime time.Time `json:"date_time" db:"date_time"`
	Location string    `json:"location" db:"location"`
}

type Degree struct {
	Name       string `json:"name" db:"name"`
	CeremonyID *int64 `json:"ceremony_id,omitempty" db:"ceremony_id"`
}
