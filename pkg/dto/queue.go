package dto

import "time"

type PushRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

type PopRequest struct {
	CeremonyID int64 `json:"ceremony_id" binding:"required"`
}

type QueueEntryResponse struct {
	StudentID  string    `json:"student_id"`
	CeremonyID int64     `json:"ceremony_id"`
	TimeQueued time.Time `json:"time_queued"`
	Status     string    `json:"status"`
}

type QueuePositionResponse struct {
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	DegreeName *string   `json:"degree_name,omitempty"`
	DegreeType *string   `json:"degree_type,omitempty"`
	TimeQueued time.Time `json:"time_queued"`
}

type QueueViewResponse struct {
	Pending []QueuePositionResponse `json:"pending"`
	Called  []QueuePositionResponse `json:"called"`
}

type CalledStudentResponse struct {
	Student    StudentResponse `json:"student"`
	CeremonyID int64           `json:"ceremony_id"`
	Status     string          `json:"status"`
}

// WSEvent is what display clients receive over the websocket feed.
type WSEvent struct {
	Type       string      `json:"type"`
	CeremonyID int64       `json:"ceremony_id"`
	Data       interface{} `json:"data"`
}
