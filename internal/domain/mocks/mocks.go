// Package mocks provides testify mocks of the domain ports for unit tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
)

// MemberRepository mocks repositories.MemberRepository
type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) GetByPhone(ctx context.Context, phone string) (*entities.Member, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *MemberRepository) Update(ctx context.Context, phone string, update *entities.MemberUpdate) (*entities.Member, error) {
	args := m.Called(ctx, phone, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

// ProviderRepository mocks repositories.ProviderRepository
type ProviderRepository struct {
	mock.Mock
}

func (m *ProviderRepository) GetByID(ctx context.Context, id int64) (*entities.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Provider), args.Error(1)
}

// AppointmentRepository mocks repositories.AppointmentRepository
type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) ListByPhone(ctx context.Context, phone string) ([]*entities.AppointmentDetail, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AppointmentDetail), args.Error(1)
}

func (m *AppointmentRepository) Book(ctx context.Context, req entities.BookingRequest) (*entities.Appointment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Appointment), args.Error(1)
}

func (m *AppointmentRepository) Cancel(ctx context.Context, id int64, phone string) (*entities.CancellationResult, error) {
	args := m.Called(ctx, id, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CancellationResult), args.Error(1)
}

// EscalationRepository mocks repositories.EscalationRepository
type EscalationRepository struct {
	mock.Mock
}

func (m *EscalationRepository) Create(ctx context.Context, escalation *entities.Escalation) error {
	args := m.Called(ctx, escalation)
	return args.Error(0)
}

// EventBus mocks providers.EventBus
type EventBus struct {
	mock.Mock
}

func (m *EventBus) Publish(ctx context.Context, channel string, event *entities.MemberEvent) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

func (m *EventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MemberEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *entities.MemberEvent), args.Error(1)
}

func (m *EventBus) Unsubscribe(ctx context.Context, channel string) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *EventBus) Close() error {
	args := m.Called()
	return args.Error(0)
}

// LLMProvider mocks providers.LLMProvider
type LLMProvider struct {
	mock.Mock
}

func (m *LLMProvider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.Completion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.Completion), args.Error(1)
}

func (m *LLMProvider) Name() string {
	return "mock"
}

// InstructionApplier mocks providers.InstructionApplier
type InstructionApplier struct {
	mock.Mock
}

func (m *InstructionApplier) ApplyInstruction(ctx context.Context, phone, instruction string) (string, error) {
	args := m.Called(ctx, phone, instruction)
	return args.String(0), args.Error(1)
}
