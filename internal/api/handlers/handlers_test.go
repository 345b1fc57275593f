package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/gradgate/internal/checkin"
	"github.com/your-org/gradgate/internal/faceid"
	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/pkg/dto"
)

type stubStudents struct {
	student    *models.Student
	record     *models.FaceRecord
	faceCount  int
	enrollErr  error
	addFaceErr error
	deleteErr  error
	getErr     error
}

func (s *stubStudents) EnrollStudent(ctx context.Context, in faceid.EnrollInput) (*models.Student, error) {
	if s.enrollErr != nil {
		return nil, s.enrollErr
	}
	return s.student, nil
}

func (s *stubStudents) AddFace(ctx context.Context, pid, photo string) (*models.FaceRecord, error) {
	if s.addFaceErr != nil {
		return nil, s.addFaceErr
	}
	return s.record, nil
}

func (s *stubStudents) DeleteStudent(ctx context.Context, pid string) error {
	return s.deleteErr
}

func (s *stubStudents) GetStudent(ctx context.Context, pid string) (*models.Student, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.student, nil
}

func (s *stubStudents) ListStudents(ctx context.Context) ([]models.Student, error) {
	if s.student == nil {
		return nil, nil
	}
	return []models.Student{*s.student}, nil
}

func (s *stubStudents) CountFaceRecords(ctx context.Context, studentID string) (int, error) {
	return s.faceCount, nil
}

type stubIdentifier struct {
	student  *models.Student
	distance float64
	err      error
}

func (s *stubIdentifier) Identify(ctx context.Context, src faceid.ImageSource) (*models.Student, float64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.student, s.distance, nil
}

type stubQueue struct {
	entry   *models.QueueEntry
	student *models.Student
	view    *checkin.QueueView
	pushErr error
	popErr  error
}

func (s *stubQueue) Push(ctx context.Context, pid string) (*models.QueueEntry, error) {
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	return s.entry, nil
}

func (s *stubQueue) Pop(ctx context.Context, ceremonyID int64) (*models.Student, error) {
	if s.popErr != nil {
		return nil, s.popErr
	}
	return s.student, nil
}

func (s *stubQueue) View(ctx context.Context, ceremonyID int64) (*checkin.QueueView, error) {
	return s.view, nil
}

func perform(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func testStudent() *models.Student {
	return &models.Student{PID: "s001", Name: "Ada Lovelace", Email: "ada@example.edu"}
}

func TestStudentCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubStudents{student: testStudent()}
	r := gin.New()
	h := NewStudentHandler(stub, stub)
	r.POST("/students", h.Create)

	w := perform(r, http.MethodPost, "/students", dto.EnrollStudentRequest{
		PID: "s001", Name: "Ada Lovelace", Email: "ada@example.edu",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201: %s", w.Code, w.Body.String())
	}

	var resp dto.StudentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.PID != "s001" {
		t.Errorf("pid = %q; want s001", resp.PID)
	}
}

func TestStudentCreateValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubStudents{student: testStudent()}
	r := gin.New()
	h := NewStudentHandler(stub, stub)
	r.POST("/students", h.Create)

	tests := []struct {
		name string
		body dto.EnrollStudentRequest
	}{
		{"missing pid", dto.EnrollStudentRequest{Name: "x", Email: "x@example.edu"}},
		{"bad email", dto.EnrollStudentRequest{PID: "s001", Name: "x", Email: "not-an-email"}},
		{"opt-in without photo", dto.EnrollStudentRequest{PID: "s001", Name: "x", Email: "x@example.edu", OptInBiometric: true}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, "/students", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d; want 400", w.Code)
			}
		})
	}
}

func TestErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"duplicate student", models.ErrDuplicateStudent, http.StatusConflict},
		{"no face", models.ErrNoFaceDetected, http.StatusUnprocessableEntity},
		{"bad image", models.ErrBadImage, http.StatusUnprocessableEntity},
		{"dimension mismatch", models.ErrDimensionMismatch, http.StatusUnprocessableEntity},
		{"biometrics down", models.ErrBiometricsUnavailable, http.StatusServiceUnavailable},
		{"infrastructure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubStudents{enrollErr: tc.err}
			r := gin.New()
			h := NewStudentHandler(stub, stub)
			r.POST("/students", h.Create)

			w := perform(r, http.MethodPost, "/students", dto.EnrollStudentRequest{
				PID: "s001", Name: "Ada", Email: "ada@example.edu",
			})
			if w.Code != tc.want {
				t.Errorf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestStudentGetIncludesFaceCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubStudents{student: testStudent(), faceCount: 3}
	r := gin.New()
	h := NewStudentHandler(stub, stub)
	r.GET("/students/:pid", h.Get)

	w := perform(r, http.MethodGet, "/students/s001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var resp dto.StudentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FaceCount != 3 {
		t.Errorf("face_count = %d; want 3", resp.FaceCount)
	}
}

func TestStudentAddFace(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubStudents{record: &models.FaceRecord{
		ID:        uuid.New(),
		StudentID: "s001",
		ImageRef:  "faces/s001_abc.jpg",
		CreatedAt: time.Now(),
	}}
	r := gin.New()
	h := NewStudentHandler(stub, stub)
	r.POST("/students/:pid/faces", h.AddFace)

	w := perform(r, http.MethodPost, "/students/s001/faces", dto.AddFaceRequest{Photo: "aGVsbG8="})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201: %s", w.Code, w.Body.String())
	}

	var resp dto.FaceRecordResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.StudentID != "s001" || resp.ImageRef != "faces/s001_abc.jpg" {
		t.Errorf("resp = %+v; want s001 record", resp)
	}
}

func TestStudentAddFaceStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown student", models.ErrStudentNotFound, http.StatusNotFound},
		{"wrong dimension", models.ErrDimensionMismatch, http.StatusUnprocessableEntity},
		{"no face", models.ErrNoFaceDetected, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubStudents{addFaceErr: tc.err}
			r := gin.New()
			h := NewStudentHandler(stub, stub)
			r.POST("/students/:pid/faces", h.AddFace)

			w := perform(r, http.MethodPost, "/students/s001/faces", dto.AddFaceRequest{Photo: "aGVsbG8="})
			if w.Code != tc.want {
				t.Errorf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestStudentAddFaceRequiresPhoto(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubStudents{}
	r := gin.New()
	h := NewStudentHandler(stub, stub)
	r.POST("/students/:pid/faces", h.AddFace)

	w := perform(r, http.MethodPost, "/students/s001/faces", dto.AddFaceRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", w.Code)
	}
}

func TestStudentGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubStudents{getErr: models.ErrStudentNotFound}
	r := gin.New()
	h := NewStudentHandler(stub, stub)
	r.GET("/students/:pid", h.Get)

	w := perform(r, http.MethodGet, "/students/nobody", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}

func TestIdentify(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubIdentifier{student: testStudent(), distance: 0.12}
	r := gin.New()
	r.POST("/identify", NewIdentifyHandler(stub).Identify)

	w := perform(r, http.MethodPost, "/identify", dto.IdentifyRequest{Photo: "aGVsbG8="})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200: %s", w.Code, w.Body.String())
	}

	var resp dto.IdentifyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Student.PID != "s001" {
		t.Errorf("pid = %q; want s001", resp.Student.PID)
	}
	if resp.Distance != 0.12 {
		t.Errorf("distance = %f; want 0.12", resp.Distance)
	}
}

func TestIdentifyStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"no match", models.ErrNoMatch, http.StatusNotFound},
		{"no face detected", models.ErrNoFaceDetected, http.StatusUnprocessableEntity},
		{"biometrics down", models.ErrBiometricsUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/identify", NewIdentifyHandler(&stubIdentifier{err: tc.err}).Identify)

			w := perform(r, http.MethodPost, "/identify", dto.IdentifyRequest{Photo: "aGVsbG8="})
			if w.Code != tc.want {
				t.Errorf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestIdentifyRejectsBadBase64(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/identify", NewIdentifyHandler(&stubIdentifier{}).Identify)

	w := perform(r, http.MethodPost, "/identify", dto.IdentifyRequest{Photo: "!!!"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d; want 422", w.Code)
	}
}

func TestQueuePush(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubQueue{entry: &models.QueueEntry{
		StudentID:  "s001",
		CeremonyID: 1,
		TimeQueued: time.Now(),
		Status:     models.QueueStatusPending,
	}}
	r := gin.New()
	r.POST("/queue/push", NewQueueHandler(stub).Push)

	w := perform(r, http.MethodPost, "/queue/push", dto.PushRequest{StudentID: "s001"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want 201: %s", w.Code, w.Body.String())
	}
}

func TestQueuePushStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"already queued", models.ErrAlreadyQueued, http.StatusConflict},
		{"unknown student", models.ErrStudentNotFound, http.StatusNotFound},
		{"degree without ceremony", models.ErrDegreeHasNoCeremony, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/queue/push", NewQueueHandler(&stubQueue{pushErr: tc.err}).Push)

			w := perform(r, http.MethodPost, "/queue/push", dto.PushRequest{StudentID: "s001"})
			if w.Code != tc.want {
				t.Errorf("status = %d; want %d", w.Code, tc.want)
			}
		})
	}
}

func TestQueuePop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubQueue{student: testStudent()}
	r := gin.New()
	r.POST("/queue/pop", NewQueueHandler(stub).Pop)

	w := perform(r, http.MethodPost, "/queue/pop", dto.PopRequest{CeremonyID: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200: %s", w.Code, w.Body.String())
	}

	var resp dto.CalledStudentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Student.PID != "s001" || resp.Status != "called" {
		t.Errorf("resp = %+v; want s001 called", resp)
	}
}

func TestQueuePopEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/queue/pop", NewQueueHandler(&stubQueue{popErr: models.ErrQueueEmpty}).Pop)

	w := perform(r, http.MethodPost, "/queue/pop", dto.PopRequest{CeremonyID: 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}

func TestQueueView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubQueue{view: &checkin.QueueView{
		Pending: []models.QueuePosition{{StudentID: "s002", Name: "Grace"}},
		Called:  []models.QueuePosition{{StudentID: "s001", Name: "Ada"}},
	}}
	r := gin.New()
	r.GET("/queue/:ceremonyId", NewQueueHandler(stub).View)

	w := perform(r, http.MethodGet, "/queue/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}

	var resp dto.QueueViewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Pending) != 1 || len(resp.Called) != 1 {
		t.Errorf("pending=%d called=%d; want 1/1", len(resp.Pending), len(resp.Called))
	}
}

func TestQueueViewBadCeremonyID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/queue/:ceremonyId", NewQueueHandler(&stubQueue{}).View)

	w := perform(r, http.MethodGet, "/queue/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", w.Code)
	}
}
