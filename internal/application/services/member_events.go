package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
)

const publishTimeout = 3 * time.Second

// CacheInvalidator marks a phone's member context stale
type CacheInvalidator interface {
	Invalidate(phone string)
}

// changeNotifier runs the post-commit steps shared by every member mutation:
// local invalidation first, then a best-effort broadcast to other replicas.
type changeNotifier struct {
	cache      CacheInvalidator
	events     providers.EventBus
	instanceID string
}

func (n changeNotifier) memberChanged(ctx context.Context, phone, reason string, data map[string]interface{}) {
	if n.cache != nil {
		n.cache.Invalidate(phone)
	}
	if n.events == nil {
		return
	}

	event := entities.NewMemberEvent(entities.MemberEventTypeUpdated, phone, reason, data)
	event.Origin = n.instanceID
	n.publish(ctx, providers.EventChannelMemberUpdates, event)
}

func (n changeNotifier) publish(ctx context.Context, channel string, event *entities.MemberEvent) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := n.events.Publish(pubCtx, channel, event); err != nil {
		log.Warn().Err(err).
			Str("channel", channel).
			Str("event_type", string(event.Type)).
			Str("phone_number", event.PhoneNumber).
			Msg("failed to publish event")
	}
}
