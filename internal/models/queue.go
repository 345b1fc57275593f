package models

import "time"

type QueueStatus string

const (
	QueueStatusPending QueueStatus = "pending"
	QueueStatusCalled  QueueStatus = "called"
)

// QueueEntry is one student's place in a ceremony's line.
// The (StudentID, CeremonyID) pair is the primary key; a student can hold at
// most one entry per ceremony and the entry only ever moves pending -> called.
type QueueEntry struct {
	StudentID  string      `json:"student_id" db:"student_id"`
	CeremonyID int64       `json:"ceremony_id" db:"ceremony_id"`
	TimeQueued time.Time   `json:"time_queued" db:"time_queued"`
	Status     QueueStatus `json:"status" db:"status"`
}

// QueuePosition is a queue entry joined with the student it belongs to,
// as returned by the view operation.
type QueuePosition struct {
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	DegreeName *string   `json:"degree_name,omitempty"`
	DegreeType *string   `json:"degree_type,omitempty"`
	TimeQueued time.Time `json:"time_queued"`
}
