package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/turnomed/turnomed/internal/config"
	"github.com/turnomed/turnomed/internal/domain/appointment"
	"github.com/turnomed/turnomed/internal/domain/professional"
	"github.com/turnomed/turnomed/internal/domain/schedule"
	"github.com/turnomed/turnomed/pkg/metrics"
)

// ProfessionalSlots is one professional's full slot grid for a day, each slot
// marked free or taken.
type ProfessionalSlots struct {
	ProfessionalID uuid.UUID       `json:"professional_id"`
	Name           string          `json:"name"`
	Specialty      string          `json:"specialty,omitempty"`
	Slots          []schedule.Slot `json:"slots"`
}

// DaySchedule is the availability answer for one date: the per-professional
// grids plus a flat list of the free slots across all of them.
type DaySchedule struct {
	Date          string              `json:"date"`
	Professionals []ProfessionalSlots `json:"professionals"`
	Available     []schedule.Slot     `json:"available_slots"`
}

// AvailabilityService generates the bookable slot grid from configured
// business hours and subtracts each professional's committed appointments.
type AvailabilityService struct {
	repo      appointment.Repository
	profRepo  professional.Repository
	booking   config.BookingConfig
	collector *metrics.Collector
	log       *zap.Logger
}

func NewAvailabilityService(
	repo appointment.Repository,
	profRepo professional.Repository,
	booking config.BookingConfig,
	collector *metrics.Collector,
	log *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		repo:      repo,
		profRepo:  profRepo,
		booking:   booking,
		collector: collector,
		log:       log,
	}
}

// AvailableSlots computes the day's slot grid for the given professionals.
// An empty professionalIDs means every active professional. Identical inputs
// and identical committed appointments always produce the identical answer.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, date string, professionalIDs []uuid.UUID) (*DaySchedule, error) {
	if err := schedule.ValidateBookable(date); err != nil {
		return nil, err
	}

	grid, err := schedule.Grid(s.booking.OpenTime, s.booking.CloseTime, s.booking.SlotMinutes)
	if err != nil {
		return nil, fmt.Errorf("building slot grid: %w", err)
	}

	professionals, err := s.resolveProfessionals(ctx, professionalIDs)
	if err != nil {
		return nil, err
	}

	s.collector.AvailabilityQueries.Inc()

	out := &DaySchedule{Date: date, Professionals: make([]ProfessionalSlots, 0, len(professionals))}
	for _, prof := range professionals {
		// One query per professional; overlap classification is in-memory.
		booked, err := s.repo.ListForDay(ctx, prof.ID, date, appointment.ActiveStatuses)
		if err != nil {
			return nil, fmt.Errorf("loading appointments for %s: %w", prof.ID, err)
		}

		taken := make([]schedule.Interval, 0, len(booked))
		for _, a := range booked {
			iv, err := a.Interval()
			if err != nil {
				s.log.Warn("ignoring appointment with malformed times",
					zap.String("appointment_id", a.ID.String()), zap.Error(err))
				continue
			}
			taken = append(taken, iv)
		}

		slots := make([]schedule.Slot, 0, len(grid))
		for _, cell := range grid {
			free := true
			for _, iv := range taken {
				if cell.Overlaps(iv) {
					free = false
					break
				}
			}
			slot := schedule.Slot{
				ProfessionalID: prof.ID,
				StartTime:      cell.StartClock(),
				EndTime:        cell.EndClock(),
				Available:      free,
				Interval:       cell,
			}
			slots = append(slots, slot)
			if free {
				out.Available = append(out.Available, slot)
			}
		}

		out.Professionals = append(out.Professionals, ProfessionalSlots{
			ProfessionalID: prof.ID,
			Name:           prof.FullName(),
			Specialty:      prof.Specialty,
			Slots:          slots,
		})
	}

	sort.SliceStable(out.Available, func(i, j int) bool {
		a, b := out.Available[i], out.Available[j]
		if a.Interval.Start != b.Interval.Start {
			return a.Interval.Start < b.Interval.Start
		}
		return a.ProfessionalID.String() < b.ProfessionalID.String()
	})

	return out, nil
}

func (s *AvailabilityService) resolveProfessionals(ctx context.Context, ids []uuid.UUID) ([]*professional.Professional, error) {
	if len(ids) > 0 {
		out := make([]*professional.Professional, 0, len(ids))
		for _, id := range ids {
			prof, err := s.profRepo.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			// Same rule as the default listing: only active calendars.
			if !prof.IsActive() {
				return nil, professional.ErrProfessionalInactive
			}
			out = append(out, prof)
		}
		return out, nil
	}

	active := professional.StatusActive
	page, err := s.profRepo.List(ctx, &professional.ListProfessionalsQuery{
		Status:   &active,
		Page:     1,
		PageSize: 100,
	})
	if err != nil {
		return nil, fmt.Errorf("listing professionals: %w", err)
	}
	return page.Professionals, nil
}
