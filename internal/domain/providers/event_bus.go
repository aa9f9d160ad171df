package providers

import (
	"context"

	"github.com/zatekoja/careline/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.MemberEvent) error

	// Subscribe subscribes to events on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.MemberEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// Event channels
const (
	// EventChannelMemberUpdates carries member.updated events
	EventChannelMemberUpdates = "member:updates"

	// EventChannelEscalations carries escalation.created events for supervisor tooling
	EventChannelEscalations = "escalations"
)
