package dto

import "time"

type CeremonyResponse struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	DateTime time.Time `json:"date_time"`
	Location string    `json:"location"`
}

type DegreeResponse struct {
	Name       string `json:"name"`
	CeremonyID *int64 `json:"ceremony_id,omitempty"`
}
