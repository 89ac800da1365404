package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/service"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
}

func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func (h *AppointmentHandler) Register(rg *gin.RouterGroup) {
	appts := rg.Group("/appointments")
	{
		appts.POST("", h.create)
		appts.GET("", h.list)
		appts.GET("/:id", h.get)
		appts.PATCH("/:id", h.update)
		appts.DELETE("/:id", h.delete)

		appts.POST("/:id/approve", h.approve)
		appts.POST("/:id/reject", h.reject)
		appts.POST("/:id/confirm", h.confirm)
		appts.POST("/:id/cancel", h.cancel)
		appts.POST("/:id/complete", h.complete)
		appts.POST("/:id/no-show", h.noShow)
	}

	rg.POST("/booking-requests", h.requestBooking)
}

type createAppointmentRequest struct {
	PatientID      uuid.UUID `json:"patient_id" binding:"required"`
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	Date           string    `json:"date" binding:"required"`
	StartTime      string    `json:"start_time" binding:"required"`
	EndTime        string    `json:"end_time" binding:"required"`
	Reason         string    `json:"reason"`
	Notes          string    `json:"notes"`
	Priority       string    `json:"priority"`
}

func (h *AppointmentHandler) create(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.Create(c.Request.Context(), &appointment.CreateAppointmentCommand{
		PatientID:      req.PatientID,
		ProfessionalID: req.ProfessionalID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Reason:         req.Reason,
		Notes:          req.Notes,
		Priority:       appointment.Priority(req.Priority),
		CreatedBy:      actorID(c),
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

type candidateSlotRequest struct {
	Date           string     `json:"date" binding:"required"`
	StartTime      string     `json:"start_time" binding:"required"`
	EndTime        string     `json:"end_time" binding:"required"`
	ProfessionalID *uuid.UUID `json:"professional_id"`
}

type requestBookingRequest struct {
	PatientID uuid.UUID              `json:"patient_id" binding:"required"`
	Slots     []candidateSlotRequest `json:"slots" binding:"required"`
	Reason    string                 `json:"reason"`
	Priority  string                 `json:"priority"`
}

func (h *AppointmentHandler) requestBooking(c *gin.Context) {
	var req requestBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	slots := make([]appointment.CandidateSlot, 0, len(req.Slots))
	for _, s := range req.Slots {
		slots = append(slots, appointment.CandidateSlot{
			Date:           s.Date,
			StartTime:      s.StartTime,
			EndTime:        s.EndTime,
			ProfessionalID: s.ProfessionalID,
		})
	}

	created, err := h.svc.RequestBooking(c.Request.Context(), &appointment.RequestBookingCommand{
		PatientID: req.PatientID,
		Slots:     slots,
		Reason:    req.Reason,
		Priority:  appointment.Priority(req.Priority),
		CreatedBy: actorID(c),
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, created)
}

func (h *AppointmentHandler) get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) list(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid patient_id"})
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("professional_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid professional_id"})
			return
		}
		q.ProfessionalID = &id
	}
	if raw := c.Query("date"); raw != "" {
		q.Date = &raw
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.Status(raw)
		if !st.IsValid() {
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

type updateAppointmentRequest struct {
	Date               *string    `json:"date"`
	StartTime          *string    `json:"start_time"`
	EndTime            *string    `json:"end_time"`
	ProfessionalID     *uuid.UUID `json:"professional_id"`
	Status             *string    `json:"status"`
	Reason             *string    `json:"reason"`
	Notes              *string    `json:"notes"`
	Priority           *string    `json:"priority"`
	CancellationReason *string    `json:"cancellation_reason"`
}

func (h *AppointmentHandler) update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateAppointmentCommand{
		Date:               req.Date,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		ProfessionalID:     req.ProfessionalID,
		Reason:             req.Reason,
		Notes:              req.Notes,
		CancellationReason: req.CancellationReason,
		UpdatedBy:          actorID(c),
	}
	if req.Status != nil {
		st := appointment.Status(*req.Status)
		cmd.Status = &st
	}
	if req.Priority != nil {
		pr := appointment.Priority(*req.Priority)
		cmd.Priority = &pr
	}

	a, err := h.svc.Update(c.Request.Context(), id, cmd, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type approveRequest struct {
	Date           *string    `json:"date"`
	StartTime      *string    `json:"start_time"`
	EndTime        *string    `json:"end_time"`
	ProfessionalID *uuid.UUID `json:"professional_id"`
}

func (h *AppointmentHandler) approve(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req approveRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := actorID(c)
	if actor == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "X-Actor-ID header is required to approve"})
		return
	}

	a, err := h.svc.Approve(c.Request.Context(), id, &appointment.ApproveCommand{
		ApprovedBy:     *actor,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ProfessionalID: req.ProfessionalID,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type rejectRequest struct {
	Reason       string `json:"reason" binding:"required"`
	Alternatives string `json:"alternatives"`
}

func (h *AppointmentHandler) reject(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := actorID(c)
	if actor == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "X-Actor-ID header is required to reject"})
		return
	}

	a, err := h.svc.Reject(c.Request.Context(), id, &appointment.RejectCommand{
		RejectedBy:   *actor,
		Reason:       req.Reason,
		Alternatives: req.Alternatives,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) confirm(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.ConfirmSchedule(c.Request.Context(), id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *AppointmentHandler) cancel(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.Cancel(c.Request.Context(), id, req.Reason, actorID(c), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) complete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Complete(c.Request.Context(), id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) noShow(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.MarkNoShow(c.Request.Context(), id, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) delete(c *gin.Context) {
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
