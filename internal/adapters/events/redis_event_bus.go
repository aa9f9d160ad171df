package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
	redisclient "github.com/zatekoja/careline/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 100

// subscription is the part of *redis.PubSub the bus reads from
type subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// transport publishes payloads and opens one subscription per channel
type transport interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) subscription
}

type redisTransport struct {
	client *redis.Client
}

func (t redisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	return t.client.Publish(ctx, channel, payload).Err()
}

func (t redisTransport) Subscribe(ctx context.Context, channel string) subscription {
	return t.client.Subscribe(ctx, channel)
}

// channelState is the shared Redis subscription for one channel and the
// local subscribers it fans out to
type channelState struct {
	sub         subscription
	subscribers map[chan *entities.MemberEvent]struct{}
}

// RedisEventBus implements providers.EventBus over Redis pub/sub so every
// API replica sees member changes and escalations made by the others. Each
// channel holds a single Redis subscription regardless of local subscriber
// count.
type RedisEventBus struct {
	transport transport
	channels  map[string]*channelState
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	return newRedisEventBus(redisTransport{client: client.Client()})
}

func newRedisEventBus(t transport) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		transport: t,
		channels:  make(map[string]*channelState),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Publish broadcasts event to every replica subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.MemberEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.transport.Publish(ctx, channel, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("type", string(event.Type)).Msg("published event")
	return nil
}

// Subscribe returns a buffered stream of events on channel. The stream is
// closed when ctx is done or the bus is closed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.MemberEvent, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, fmt.Errorf("event bus closed: %w", err)
	}

	b.mu.Lock()
	state, ok := b.channels[channel]
	if !ok {
		state = &channelState{
			sub:         b.transport.Subscribe(b.ctx, channel),
			subscribers: make(map[chan *entities.MemberEvent]struct{}),
		}
		b.channels[channel] = state
		go b.receive(channel, state.sub)
	}

	events := make(chan *entities.MemberEvent, subscriberBuffer)
	state.subscribers[events] = struct{}{}
	count := len(state.subscribers)
	b.mu.Unlock()

	log.Info().Str("channel", channel).Int("subscribers", count).Msg("subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, events)
	}()

	return events, nil
}

func (b *RedisEventBus) receive(channel string, sub subscription) {
	defer func() {
		if err := b.release(channel, sub); err != nil {
			log.Error().Err(err).Str("channel", channel).Msg("failed to release channel")
		}
	}()

	messages := sub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.dispatch(channel, msg.Payload)
		}
	}
}

func (b *RedisEventBus) dispatch(channel, payload string) {
	var event entities.MemberEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Warn().Err(err).Str("channel", channel).Msg("dropping malformed event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	state, ok := b.channels[channel]
	if !ok {
		return
	}
	for subscriber := range state.subscribers {
		e := event
		select {
		case subscriber <- &e:
		default:
			log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, events chan *entities.MemberEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.channels[channel]
	if !ok {
		return
	}
	if _, ok := state.subscribers[events]; !ok {
		return
	}

	delete(state.subscribers, events)
	close(events)

	if len(state.subscribers) == 0 {
		delete(b.channels, channel)
		_ = state.sub.Close()
		log.Info().Str("channel", channel).Msg("closed subscription")
	}
}

// release closes channel's subscribers and its Redis subscription. A
// non-nil owner limits the release to that subscription, so a receive loop
// that outlived its subscription cannot tear down a newer one.
func (b *RedisEventBus) release(channel string, owner subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.channels[channel]
	if !ok || (owner != nil && state.sub != owner) {
		return nil
	}

	for subscriber := range state.subscribers {
		close(subscriber)
	}
	delete(b.channels, channel)

	if err := state.sub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe drops every local subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return b.release(channel, nil)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	channels := make([]string, 0, len(b.channels))
	for channel := range b.channels {
		channels = append(channels, channel)
	}
	b.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := b.release(channel, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
