package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/service"
	"github.com/turnomed/turnomed/pkg/metrics"
)

type RouterDeps struct {
	Appointments  *service.AppointmentService
	Availability  *service.AvailabilityService
	Patients      *service.PatientService
	Professionals *service.ProfessionalService
	Collector     *metrics.Collector
	Logger        *zap.Logger
	Environment   string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		RequestID(),
		Recovery(deps.Logger),
		RequestLogger(deps.Logger),
		Metrics(deps.Collector),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")
	NewAppointmentHandler(deps.Appointments).Register(api)
	NewAvailabilityHandler(deps.Availability).Register(api)
	NewPatientHandler(deps.Patients).Register(api)
	NewProfessionalHandler(deps.Professionals).Register(api)

	return r
}
