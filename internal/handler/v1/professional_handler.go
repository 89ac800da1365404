package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turnomed/turnomed/internal/domain/professional"
	"github.com/turnomed/turnomed/internal/service"
)

type ProfessionalHandler struct {
	svc *service.ProfessionalService
}

func NewProfessionalHandler(svc *service.ProfessionalService) *ProfessionalHandler {
	return &ProfessionalHandler{svc: svc}
}

func (h *ProfessionalHandler) Register(rg *gin.RouterGroup) {
	profs := rg.Group("/professionals")
	{
		profs.POST("", h.create)
		profs.GET("", h.list)
		profs.GET("/:id", h.get)
		profs.DELETE("/:id", h.delete)
	}
}

type createProfessionalRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (h *ProfessionalHandler) create(c *gin.Context) {
	var req createProfessionalRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Create(c.Request.Context(), &professional.CreateProfessionalCommand{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Specialty: req.Specialty,
		Phone:     req.Phone,
		Email:     req.Email,
		CreatedBy: actorID(c),
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *ProfessionalHandler) get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *ProfessionalHandler) list(c *gin.Context) {
	q := &professional.ListProfessionalsQuery{
		Specialty: c.Query("specialty"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := professional.Status(raw)
		if st != professional.StatusActive && st != professional.StatusInactive {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid status filter"})
			return
		}
		q.Status = &st
	}

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, page)
}

func (h *ProfessionalHandler) delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, actorID(c), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}
