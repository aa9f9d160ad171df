package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/internal/domain/repositories"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// EscalationService records supervisor call-back requests
type EscalationService struct {
	repo     repositories.EscalationRepository
	notifier changeNotifier
}

// NewEscalationService creates a new escalation service
func NewEscalationService(repo repositories.EscalationRepository, events providers.EventBus, instanceID string) *EscalationService {
	return &EscalationService{
		repo:     repo,
		notifier: changeNotifier{events: events, instanceID: instanceID},
	}
}

// Escalate appends an escalation row and notifies supervisor tooling.
// It never touches the member context cache.
func (s *EscalationService) Escalate(ctx context.Context, phone, description string) (*entities.Escalation, error) {
	description = strings.TrimSpace(description)
	if phone == "" {
		return nil, apperrors.NewValidationError("phone number is required")
	}
	if description == "" {
		return nil, apperrors.NewValidationError("a description of the issue is required")
	}

	escalation := &entities.Escalation{
		PhoneNumber: phone,
		Status:      entities.EscalationStatusEscalated,
		Description: description,
	}
	if err := s.repo.Create(ctx, escalation); err != nil {
		return nil, err
	}

	log.Info().Int64("escalation_id", escalation.ID).Str("phone_number", phone).Msg("call escalated")

	if s.notifier.events != nil {
		event := entities.NewMemberEvent(entities.MemberEventTypeEscalated, phone, description, map[string]interface{}{
			"escalation_id": escalation.ID,
		})
		event.Origin = s.notifier.instanceID
		s.notifier.publish(ctx, providers.EventChannelEscalations, event)
	}

	return escalation, nil
}
