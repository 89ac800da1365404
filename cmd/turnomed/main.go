package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/config"
	v1 "github.com/turnomed/turnomed/internal/handler/v1"
	"github.com/turnomed/turnomed/internal/notification"
	"github.com/turnomed/turnomed/internal/repository"
	"github.com/turnomed/turnomed/internal/service"
	"github.com/turnomed/turnomed/pkg/database"
	"github.com/turnomed/turnomed/pkg/logger"
	"github.com/turnomed/turnomed/pkg/metrics"
	"github.com/turnomed/turnomed/pkg/tracer"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("loading configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("service exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector("turnomed")
	if sqlDB, err := db.DB(); err == nil {
		go func() {
			for range time.Tick(15 * time.Second) {
				collector.DBConnections.Set(float64(sqlDB.Stats().OpenConnections))
			}
		}()
	}

	apptRepo := repository.NewAppointmentRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	profRepo := repository.NewProfessionalRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	notifier := notification.NewLogNotifier(log)

	apptSvc := service.NewAppointmentService(apptRepo, patientRepo, profRepo, notifier, auditSvc, collector, log)
	availSvc := service.NewAvailabilityService(apptRepo, profRepo, cfg.Booking, collector, log)
	patientSvc := service.NewPatientService(patientRepo, auditSvc, log)
	profSvc := service.NewProfessionalService(profRepo, auditSvc, log)

	router := v1.NewRouter(v1.RouterDeps{
		Appointments:  apptSvc,
		Availability:  availSvc,
		Patients:      patientSvc,
		Professionals: profSvc,
		Collector:     collector,
		Logger:        log,
		Environment:   cfg.App.Environment,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go reminderLoop(rootCtx, apptSvc, cfg.Booking, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-rootCtx.Done():
	}

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// reminderLoop periodically sweeps for scheduled appointments entering the
// reminder lead window.
func reminderLoop(ctx context.Context, svc *service.AppointmentService, cfg config.BookingConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := svc.SendReminders(ctx, cfg.ReminderLead)
			if err != nil {
				log.Error("reminder sweep failed", zap.Error(err))
				continue
			}
			if sent > 0 {
				log.Info("reminder sweep", zap.Int("sent", sent))
			}
		}
	}
}
