package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careline/internal/application/services"
	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/mocks"
	"github.com/zatekoja/careline/internal/domain/providers"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

const phone = "215-932-4488"

type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Invalidate(phone string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, phone)
}

func (c *recordingCache) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

func bookingRequest() entities.BookingRequest {
	date, _ := time.Parse(entities.DateLayout, "2025-03-10")
	clock, _ := time.Parse(entities.TimeLayout, "14:00")
	return entities.BookingRequest{MemberPhone: phone, Date: date, Time: clock}
}

func TestAppointmentService_Schedule(t *testing.T) {
	t.Run("invalidates and publishes after a committed booking", func(t *testing.T) {
		repo := new(mocks.AppointmentRepository)
		bus := new(mocks.EventBus)
		cache := &recordingCache{}
		service := services.NewAppointmentService(repo, cache, bus, "replica-a")

		req := bookingRequest()
		repo.On("Book", mock.Anything, req).Return(&entities.Appointment{ID: 101, ProviderID: 3}, nil)
		bus.On("Publish", mock.Anything, providers.EventChannelMemberUpdates, mock.MatchedBy(func(e *entities.MemberEvent) bool {
			return e.Type == entities.MemberEventTypeUpdated && e.PhoneNumber == phone && e.Origin == "replica-a"
		})).Return(nil)

		appt, err := service.Schedule(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(101), appt.ID)
		assert.Equal(t, []string{phone}, cache.calls())
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("leaves cache untouched when booking fails", func(t *testing.T) {
		repo := new(mocks.AppointmentRepository)
		cache := &recordingCache{}
		service := services.NewAppointmentService(repo, cache, nil, "replica-a")

		repo.On("Book", mock.Anything, mock.Anything).
			Return(nil, apperrors.NewConflictError("No provider available at the specified date and time."))

		_, err := service.Schedule(context.Background(), bookingRequest())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		assert.Empty(t, cache.calls())
	})

	t.Run("publish failure does not fail the booking", func(t *testing.T) {
		repo := new(mocks.AppointmentRepository)
		bus := new(mocks.EventBus)
		cache := &recordingCache{}
		service := services.NewAppointmentService(repo, cache, bus, "replica-a")

		repo.On("Book", mock.Anything, mock.Anything).Return(&entities.Appointment{ID: 7}, nil)
		bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := service.Schedule(context.Background(), bookingRequest())
		require.NoError(t, err)
		assert.Equal(t, []string{phone}, cache.calls())
	})

	t.Run("rejects a request without a phone", func(t *testing.T) {
		service := services.NewAppointmentService(new(mocks.AppointmentRepository), &recordingCache{}, nil, "")
		req := bookingRequest()
		req.MemberPhone = ""

		_, err := service.Schedule(context.Background(), req)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestAppointmentService_Cancel(t *testing.T) {
	t.Run("invalidates after a committed cancellation", func(t *testing.T) {
		repo := new(mocks.AppointmentRepository)
		cache := &recordingCache{}
		service := services.NewAppointmentService(repo, cache, nil, "replica-a")

		repo.On("Cancel", mock.Anything, int64(101), phone).
			Return(&entities.CancellationResult{AppointmentID: 101, SlotRestored: true}, nil)

		res, err := service.Cancel(context.Background(), 101, phone)
		require.NoError(t, err)
		assert.True(t, res.SlotRestored)
		assert.Equal(t, []string{phone}, cache.calls())
	})

	t.Run("already cancelled produces no invalidation", func(t *testing.T) {
		repo := new(mocks.AppointmentRepository)
		cache := &recordingCache{}
		service := services.NewAppointmentService(repo, cache, nil, "replica-a")

		repo.On("Cancel", mock.Anything, int64(101), phone).
			Return(nil, apperrors.NewNotFoundError("appointment 101 not found or already cancelled"))

		_, err := service.Cancel(context.Background(), 101, phone)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.Empty(t, cache.calls())
	})

	t.Run("rejects non-positive ids", func(t *testing.T) {
		service := services.NewAppointmentService(new(mocks.AppointmentRepository), &recordingCache{}, nil, "")
		_, err := service.Cancel(context.Background(), 0, phone)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})
}

func TestEscalationService_Escalate(t *testing.T) {
	t.Run("records escalation and notifies supervisors", func(t *testing.T) {
		repo := new(mocks.EscalationRepository)
		bus := new(mocks.EventBus)
		service := services.NewEscalationService(repo, bus, "replica-a")

		repo.On("Create", mock.Anything, mock.MatchedBy(func(e *entities.Escalation) bool {
			return e.PhoneNumber == phone && e.Status == entities.EscalationStatusEscalated
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*entities.Escalation).ID = 12
		}).Return(nil)
		bus.On("Publish", mock.Anything, providers.EventChannelEscalations, mock.MatchedBy(func(e *entities.MemberEvent) bool {
			return e.Type == entities.MemberEventTypeEscalated && e.Reason == "caller requested a supervisor"
		})).Return(nil)

		esc, err := service.Escalate(context.Background(), phone, "  caller requested a supervisor ")
		require.NoError(t, err)
		assert.Equal(t, int64(12), esc.ID)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("requires a description", func(t *testing.T) {
		service := services.NewEscalationService(new(mocks.EscalationRepository), nil, "")
		_, err := service.Escalate(context.Background(), phone, " ")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("store failure is returned", func(t *testing.T) {
		repo := new(mocks.EscalationRepository)
		service := services.NewEscalationService(repo, nil, "")
		repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.NewInternalError("failed to create escalation", assert.AnError))

		_, err := service.Escalate(context.Background(), phone, "chest pain follow-up")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
	})
}
