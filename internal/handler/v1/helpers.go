package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/domain/patient"
	"github.com/turnomed/turnomed/internal/domain/professional"
	"github.com/turnomed/turnomed/internal/domain/schedule"
	"github.com/turnomed/turnomed/internal/service"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var conflict *appointment.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "requested slot is already taken",
			Code:  "SLOT_CONFLICT",
			Details: map[string]string{
				"appointment_id": conflict.Existing.ID.String(),
				"date":           conflict.Existing.Date,
				"start_time":     conflict.Existing.StartTime,
				"end_time":       conflict.Existing.EndTime,
			},
		})
		return
	}

	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, professional.ErrProfessionalNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrSlotConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "SLOT_CONFLICT"})

	case errors.Is(err, appointment.ErrInvalidState):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "INVALID_STATE"})

	case errors.Is(err, schedule.ErrInvalidInterval),
		errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, appointment.ErrProfessionalRequired),
		errors.Is(err, patient.ErrPatientInactive),
		errors.Is(err, professional.ErrProfessionalInactive):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// actorID reads the optional X-Actor-ID header carrying the acting user.
func actorID(c *gin.Context) *uuid.UUID {
	raw := c.GetHeader("X-Actor-ID")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
