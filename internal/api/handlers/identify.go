package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gradgate/internal/faceid"
	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/pkg/dto"
)

// Identifier matches a probe photo against the enrolled face records.
type Identifier interface {
	Identify(ctx context.Context, src faceid.ImageSource) (*models.Student, float64, error)
}

type IdentifyHandler struct {
	svc Identifier
}

func NewIdentifyHandler(svc Identifier) *IdentifyHandler {
	return &IdentifyHandler{svc: svc}
}

func (h *IdentifyHandler) Identify(c *gin.Context) {
	var req dto.IdentifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, _, err := faceid.DecodePhoto(req.Photo)
	if err != nil {
		respondError(c, err)
		return
	}

	st, distance, err := h.svc.Identify(c.Request.Context(), faceid.FromBytes(data))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.IdentifyResponse{
		Student:  studentResponse(st),
		Distance: distance,
	})
}
