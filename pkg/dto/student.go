package dto

// EnrollStudentRequest creates a student. Photo is a base64 image, with or
// without a data-URL header, and must be present when opt_in_biometric is
// set.
type EnrollStudentRequest struct {
	PID            string  `json:"pid" binding:"required"`
	Name           string  `json:"name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	DegreeName     *string `json:"degree_name,omitempty"`
	DegreeType     *string `json:"degree_type,omitempty"`
	OptInBiometric bool    `json:"opt_in_biometric"`
	Photo          string  `json:"photo,omitempty"`
}

type StudentResponse struct {
	PID            string  `json:"pid"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	DegreeName     *string `json:"degree_name,omitempty"`
	DegreeType     *string `json:"degree_type,omitempty"`
	OptInBiometric bool    `json:"opt_in_biometric"`
	FaceCount      int     `json:"face_count"`
}

// AddFaceRequest enrolls an additional photo for an existing student.
type AddFaceRequest struct {
	Photo string `json:"photo" binding:"required"`
}

type FaceRecordResponse struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	ImageRef  string `json:"image_ref"`
	CreatedAt string `json:"created_at"`
}

type IdentifyRequest struct {
	Photo string `json:"photo" binding:"required"`
}

// IdentifyResponse carries the nearest match and its cosine distance. No
// similarity cutoff is applied server-side; callers decide what distance is
// good enough.
type IdentifyResponse struct {
	Student  StudentResponse `json:"student"`
	Distance float64         `json:"distance"`
}
