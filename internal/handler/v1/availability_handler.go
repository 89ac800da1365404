package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turnomed/turnomed/internal/service"
)

type AvailabilityHandler struct {
	svc *service.AvailabilityService
}

func NewAvailabilityHandler(svc *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

func (h *AvailabilityHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/availability/:date", h.slots)
}

// slots returns the day's slot grid. professional_id may be repeated or
// comma-separated; omitted means all active professionals.
func (h *AvailabilityHandler) slots(c *gin.Context) {
	date := c.Param("date")

	var ids []uuid.UUID
	for _, raw := range c.QueryArray("professional_id") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid professional_id: " + part})
				return
			}
			ids = append(ids, id)
		}
	}

	day, err := h.svc.AvailableSlots(c.Request.Context(), date, ids)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, day)
}
