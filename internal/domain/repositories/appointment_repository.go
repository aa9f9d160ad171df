package repositories

import (
	"context"

	"github.com/zatekoja/careline/internal/domain/entities"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	// ListByPhone retrieves every appointment for a member phone, newest first
	ListByPhone(ctx context.Context, phone string) ([]*entities.AppointmentDetail, error)

	// Book claims one available slot covering the requested time and inserts
	// a scheduled appointment, atomically
	Book(ctx context.Context, req entities.BookingRequest) (*entities.Appointment, error)

	// Cancel marks a scheduled appointment cancelled and releases its slot
	Cancel(ctx context.Context, id int64, phone string) (*entities.CancellationResult, error)
}
