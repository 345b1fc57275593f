package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gradgate/internal/faceid"
	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/pkg/dto"
)

// StudentService is the enrollment side of the student lifecycle.
type StudentService interface {
	EnrollStudent(ctx context.Context, in faceid.EnrollInput) (*models.Student, error)
	AddFace(ctx context.Context, pid, photo string) (*models.FaceRecord, error)
	DeleteStudent(ctx context.Context, pid string) error
}

// StudentStore is the read side.
type StudentStore interface {
	GetStudent(ctx context.Context, pid string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
	CountFaceRecords(ctx context.Context, studentID string) (int, error)
}

type StudentHandler struct {
	svc   StudentService
	store StudentStore
}

func NewStudentHandler(svc StudentService, store StudentStore) *StudentHandler {
	return &StudentHandler{svc: svc, store: store}
}

func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OptInBiometric && req.Photo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo is required for biometric opt-in"})
		return
	}

	st, err := h.svc.EnrollStudent(c.Request.Context(), faceid.EnrollInput{
		PID:            req.PID,
		Name:           req.Name,
		Email:          req.Email,
		DegreeName:     req.DegreeName,
		DegreeType:     req.DegreeType,
		OptInBiometric: req.OptInBiometric,
		Photo:          req.Photo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, studentResponse(st))
}

func (h *StudentHandler) Get(c *gin.Context) {
	st, err := h.store.GetStudent(c.Request.Context(), c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return
	}

	faceCount, _ := h.store.CountFaceRecords(c.Request.Context(), st.PID)

	resp := studentResponse(st)
	resp.FaceCount = faceCount
	c.JSON(http.StatusOK, resp)
}

func (h *StudentHandler) List(c *gin.Context) {
	students, err := h.store.ListStudents(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		faceCount, _ := h.store.CountFaceRecords(c.Request.Context(), students[i].PID)
		sr := studentResponse(&students[i])
		sr.FaceCount = faceCount
		resp = append(resp, sr)
	}

	c.JSON(http.StatusOK, gin.H{"students": resp, "total": len(resp)})
}

// AddFace enrolls an additional photo for an existing student.
func (h *StudentHandler) AddFace(c *gin.Context) {
	var req dto.AddFaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.AddFace(c.Request.Context(), c.Param("pid"), req.Photo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FaceRecordResponse{
		ID:        rec.ID.String(),
		StudentID: rec.StudentID,
		ImageRef:  rec.ImageRef,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
	})
}

func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteStudent(c.Request.Context(), c.Param("pid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
