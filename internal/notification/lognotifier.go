package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier is the in-process stand-in for the delivery system: it logs the
// requested event and reports it delivered. Deployments swap in a real
// transport behind the same interface.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) (Result, error) {
	fields := []zap.Field{
		zap.String("kind", string(ev.Kind)),
	}
	if ev.Appointment != nil {
		fields = append(fields,
			zap.String("appointment_id", ev.Appointment.ID.String()),
			zap.String("date", ev.Appointment.Date),
			zap.String("start_time", ev.Appointment.StartTime),
		)
	}
	if ev.Patient != nil {
		fields = append(fields, zap.String("patient", ev.Patient.FullName()))
	}
	if ev.Professional != nil {
		fields = append(fields, zap.String("professional", ev.Professional.FullName()))
	}
	n.log.Info("notification requested", fields...)
	return Result{Delivered: true}, nil
}
