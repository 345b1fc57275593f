package models

import "errors"

// Domain errors. Handlers translate each of these to a stable HTTP status;
// anything else is treated as an infrastructure failure.
var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrDuplicateStudent    = errors.New("student with this PID or email already exists")
	ErrAlreadyQueued       = errors.New("student is already queued for this ceremony")
	ErrQueueEmpty          = errors.New("no pending students in queue")
	ErrDegreeHasNoCeremony = errors.New("no ceremony assigned for this degree")
	ErrNoFaceDetected      = errors.New("no face detected in image")
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
	ErrEmptyFaceStore      = errors.New("no enrolled faces to match against")
	ErrNoMatch             = errors.New("no matching student found")
	ErrBadImage            = errors.New("image could not be decoded")

	// ErrBiometricsUnavailable means the ONNX runtime failed to initialize;
	// the rest of the service keeps working without face endpoints.
	ErrBiometricsUnavailable = errors.New("biometric pipeline unavailable")
)
