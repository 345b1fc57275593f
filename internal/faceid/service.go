package faceid

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/internal/observability"
)

// Store is the relational persistence the pipeline needs.
type Store interface {
	CreateStudent(ctx context.Context, st *models.Student) error
	EnrollStudentWithFace(ctx context.Context, st *models.Student, imageRef string, embedding []float32) (*models.FaceRecord, error)
	GetStudent(ctx context.Context, pid string) (*models.Student, error)
	DeleteStudent(ctx context.Context, pid string) ([]string, error)
	AddFaceRecord(ctx context.Context, studentID, imageRef string, embedding []float32) (*models.FaceRecord, error)
	NearestFace(ctx context.Context, probe []float32) (*models.FaceRecord, float64, error)
}

// BlobStore holds the enrolled face images.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	DeleteObjects(ctx context.Context, keys []string) error
}

// Extractor produces a face embedding and a detection confidence for an image.
type Extractor interface {
	Extract(img image.Image) ([]float32, float32, error)
}

// Service implements student enrollment and face identification.
type Service struct {
	store     Store
	blobs     BlobStore
	extractor Extractor
}

func NewService(store Store, blobs BlobStore, extractor Extractor) *Service {
	return &Service{store: store, blobs: blobs, extractor: extractor}
}

// EnrollInput carries the fields of a student creation request. Photo is a
// base64 image (optionally a data URL) and is required when OptInBiometric
// is set.
type EnrollInput struct {
	PID            string
	Name           string
	Email          string
	DegreeName     *string
	DegreeType     *string
	OptInBiometric bool
	Photo          string
}

// EnrollStudent creates the student record and, for biometric opt-ins, stores
// the photo and its embedding. The operation is all-or-nothing: the embedding
// is extracted before anything is written, the student and face rows share a
// transaction, and the uploaded blob is removed again if that transaction
// fails. A failed extraction therefore leaves no student behind.
func (s *Service) EnrollStudent(ctx context.Context, in EnrollInput) (*models.Student, error) {
	st := &models.Student{
		PID:            strings.TrimSpace(in.PID),
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		DegreeName:     in.DegreeName,
		DegreeType:     in.DegreeType,
		OptInBiometric: in.OptInBiometric,
	}
	if st.PID == "" || st.Name == "" || st.Email == "" {
		return nil, fmt.Errorf("pid, name and email are required")
	}

	if !in.OptInBiometric {
		if err := s.store.CreateStudent(ctx, st); err != nil {
			return nil, err
		}
		observability.Enrollments.WithLabelValues("false").Inc()
		return st, nil
	}

	if s.extractor == nil {
		return nil, models.ErrBiometricsUnavailable
	}

	data, ext, err := DecodePhoto(in.Photo)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	embedding, _, err := s.extractor.Extract(img)
	if err != nil {
		return nil, err
	}

	key := imageKey(st.PID, ext)
	if err := s.blobs.PutObject(ctx, key, data, "image/"+ext); err != nil {
		return nil, fmt.Errorf("store face image: %w", err)
	}

	if _, err := s.store.EnrollStudentWithFace(ctx, st, key, embedding); err != nil {
		if delErr := s.blobs.DeleteObject(ctx, key); delErr != nil {
			slog.Warn("orphaned face image after failed enrollment", "key", key, "error", delErr)
		}
		return nil, err
	}

	observability.Enrollments.WithLabelValues("true").Inc()
	return st, nil
}

// AddFace enrolls an additional photo for an existing student, so a
// re-enrollment improves matching instead of replacing the old image. The
// student is not looked up first: a record for an unknown PID fails the
// foreign key and comes back as ErrStudentNotFound, and the uploaded blob
// is removed again.
func (s *Service) AddFace(ctx context.Context, pid, photo string) (*models.FaceRecord, error) {
	if s.extractor == nil {
		return nil, models.ErrBiometricsUnavailable
	}

	data, ext, err := DecodePhoto(photo)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}

	embedding, _, err := s.extractor.Extract(img)
	if err != nil {
		return nil, err
	}

	key := imageKey(pid, ext)
	if err := s.blobs.PutObject(ctx, key, data, "image/"+ext); err != nil {
		return nil, fmt.Errorf("store face image: %w", err)
	}

	rec, err := s.store.AddFaceRecord(ctx, pid, key, embedding)
	if err != nil {
		if delErr := s.blobs.DeleteObject(ctx, key); delErr != nil {
			slog.Warn("orphaned face image after failed add", "key", key, "error", delErr)
		}
		return nil, err
	}

	observability.Enrollments.WithLabelValues("true").Inc()
	return rec, nil
}

// Identify finds the enrolled student whose face is nearest to the probe.
// The cosine distance of the match is returned alongside the student; no
// similarity cutoff is applied here, so callers that care should inspect the
// distance themselves.
func (s *Service) Identify(ctx context.Context, src ImageSource) (*models.Student, float64, error) {
	if s.extractor == nil {
		return nil, 0, models.ErrBiometricsUnavailable
	}

	data := src.data
	if src.ref != "" {
		var err error
		data, err = s.blobs.GetObject(ctx, src.ref)
		if err != nil {
			return nil, 0, fmt.Errorf("load probe image: %w", err)
		}
	}

	img, err := decodeImage(data)
	if err != nil {
		observability.Identifications.WithLabelValues("bad_image").Inc()
		return nil, 0, err
	}

	embedding, _, err := s.extractor.Extract(img)
	if err != nil {
		if errors.Is(err, models.ErrNoFaceDetected) {
			observability.Identifications.WithLabelValues("no_face").Inc()
		}
		return nil, 0, err
	}

	record, distance, err := s.store.NearestFace(ctx, embedding)
	if err != nil {
		if errors.Is(err, models.ErrEmptyFaceStore) {
			observability.Identifications.WithLabelValues("no_match").Inc()
			return nil, 0, models.ErrNoMatch
		}
		return nil, 0, err
	}

	// Cascade deletes should make a dangling record impossible, but a match
	// pointing at a missing student must not surface as success.
	st, err := s.store.GetStudent(ctx, record.StudentID)
	if err != nil {
		return nil, 0, err
	}

	observability.Identifications.WithLabelValues("matched").Inc()
	return st, distance, nil
}

// DeleteStudent removes the student row (queue entries and face records go
// via cascade) and cleans up the stored face images.
func (s *Service) DeleteStudent(ctx context.Context, pid string) error {
	refs, err := s.store.DeleteStudent(ctx, pid)
	if err != nil {
		return err
	}
	if err := s.blobs.DeleteObjects(ctx, refs); err != nil {
		slog.Warn("delete face images", "pid", pid, "error", err)
	}
	return nil
}
