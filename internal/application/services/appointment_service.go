package services

import (
	"context"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/domain/repositories"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// AppointmentService books and cancels appointments and keeps the member
// context cache consistent with committed changes
type AppointmentService struct {
	repo     repositories.AppointmentRepository
	notifier changeNotifier
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(
	repo repositories.AppointmentRepository,
	cache CacheInvalidator,
	events providers.EventBus,
	instanceID string,
) *AppointmentService {
	return &AppointmentService{
		repo:     repo,
		notifier: changeNotifier{cache: cache, events: events, instanceID: instanceID},
	}
}

// Schedule books the first available provider at the requested date and
// time. The cache is invalidated only after the booking commits.
func (s *AppointmentService) Schedule(ctx context.Context, req entities.BookingRequest) (*entities.Appointment, error) {
	if req.MemberPhone == "" {
		return nil, apperrors.NewValidationError("phone number is required")
	}
	if req.Date.IsZero() {
		return nil, apperrors.NewValidationError("appointment date is required")
	}

	appt, err := s.repo.Book(ctx, req)
	if err != nil {
		return nil, err
	}

	s.notifier.memberChanged(ctx, req.MemberPhone, "appointment_scheduled", map[string]interface{}{
		"appointment_id": appt.ID,
		"provider_id":    appt.ProviderID,
	})
	return appt, nil
}

// Cancel cancels a scheduled appointment belonging to phone
func (s *AppointmentService) Cancel(ctx context.Context, id int64, phone string) (*entities.CancellationResult, error) {
	if id <= 0 {
		return nil, apperrors.NewValidationError("appointment id must be a positive number")
	}
	if phone == "" {
		return nil, apperrors.NewValidationError("phone number is required")
	}

	res, err := s.repo.Cancel(ctx, id, phone)
	if err != nil {
		return nil, err
	}

	s.notifier.memberChanged(ctx, phone, "appointment_cancelled", map[string]interface{}{
		"appointment_id": id,
		"slot_restored":  res.SlotRestored,
	})
	return res, nil
}
