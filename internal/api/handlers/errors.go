package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/pkg/dto"
)

// respondError maps domain errors to HTTP statuses. Unknown errors are
// logged and surfaced as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrStudentNotFound),
		errors.Is(err, models.ErrNoMatch),
		errors.Is(err, models.ErrQueueEmpty):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateStudent),
		errors.Is(err, models.ErrAlreadyQueued):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDegreeHasNoCeremony):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrBadImage),
		errors.Is(err, models.ErrNoFaceDetected),
		errors.Is(err, models.ErrDimensionMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrBiometricsUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func studentResponse(st *models.Student) dto.StudentResponse {
	return dto.StudentResponse{
		PID:            st.PID,
		Name:           st.Name,
		Email:          st.Email,
		DegreeName:     st.DegreeName,
		DegreeType:     st.DegreeType,
		OptInBiometric: st.OptInBiometric,
	}
}
