package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gradgate/internal/checkin"
	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/pkg/dto"
)

// QueueService is the ceremony check-in line.
type QueueService interface {
	Push(ctx context.Context, pid string) (*models.QueueEntry, error)
	Pop(ctx context.Context, ceremonyID int64) (*models.Student, error)
	View(ctx context.Context, ceremonyID int64) (*checkin.QueueView, error)
}

type QueueHandler struct {
	svc QueueService
}

func NewQueueHandler(svc QueueService) *QueueHandler {
	return &QueueHandler{svc: svc}
}

func (h *QueueHandler) Push(c *gin.Context) {
	var req dto.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.svc.Push(c.Request.Context(), req.StudentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.QueueEntryResponse{
		StudentID:  entry.StudentID,
		CeremonyID: entry.CeremonyID,
		TimeQueued: entry.TimeQueued,
		Status:     string(entry.Status),
	})
}

func (h *QueueHandler) Pop(c *gin.Context) {
	var req dto.PopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.svc.Pop(c.Request.Context(), req.CeremonyID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CalledStudentResponse{
		Student:    studentResponse(st),
		CeremonyID: req.CeremonyID,
		Status:     string(models.QueueStatusCalled),
	})
}

func (h *QueueHandler) View(c *gin.Context) {
	ceremonyID, err := strconv.ParseInt(c.Param("ceremonyId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ceremony id"})
		return
	}

	view, err := h.svc.View(c.Request.Context(), ceremonyID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QueueViewResponse{
		Pending: positionResponses(view.Pending),
		Called:  positionResponses(view.Called),
	})
}

func positionResponses(positions []models.QueuePosition) []dto.QueuePositionResponse {
	resp := make([]dto.QueuePositionResponse, 0, len(positions))
	for _, p := range positions {
		resp = append(resp, dto.QueuePositionResponse{
			StudentID:  p.StudentID,
			Name:       p.Name,
			DegreeName: p.DegreeName,
			DegreeType: p.DegreeType,
			TimeQueued: p.TimeQueued,
		})
	}
	return resp
}
