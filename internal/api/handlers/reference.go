package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/gradgate/internal/models"
	"github.com/your-org/gradgate/pkg/dto"
)

// ReferenceStore serves the ceremony and degree catalogues.
type ReferenceStore interface {
	ListCeremonies(ctx context.Context) ([]models.Ceremony, error)
	ListDegrees(ctx context.Context) ([]models.Degree, error)
}

type ReferenceHandler struct {
	store ReferenceStore
}

func NewReferenceHandler(store ReferenceStore) *ReferenceHandler {
	return &ReferenceHandler{store: store}
}

func (h *ReferenceHandler) ListCeremonies(c *gin.Context) {
	ceremonies, err := h.store.ListCeremonies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.CeremonyResponse, 0, len(ceremonies))
	for _, cer := range ceremonies {
		resp = append(resp, dto.CeremonyResponse{
			ID:       cer.ID,
			Name:     cer.Name,
			DateTime: cer.DateTime,
			Location: cer.Location,
		})
	}

	c.JSON(http.StatusOK, gin.H{"ceremonies": resp, "total": len(resp)})
}

func (h *ReferenceHandler) ListDegrees(c *gin.Context) {
	degrees, err := h.store.ListDegrees(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]dto.DegreeResponse, 0, len(degrees))
	for _, d := range degrees {
		resp = append(resp, dto.DegreeResponse{
			Name:       d.Name,
			CeremonyID: d.CeremonyID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"degrees": resp, "total": len(resp)})
}
