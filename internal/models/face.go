package models

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDim is the output dimensionality of the ArcFace embedding model.
// Records with any other vector length are rejected before they reach storage.
const EmbeddingDim = 512

type FaceRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	ImageRef  string    `json:"image_ref" db:"image_ref"`
	Embedding []float32 `json:"-" db:"embedding"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
