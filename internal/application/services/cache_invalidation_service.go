package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
)

// CacheInvalidationService invalidates the local member context cache when
// another replica commits a change for a member
type CacheInvalidationService struct {
	cache      CacheInvalidator
	eventBus   providers.EventBus
	instanceID string
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	started    atomic.Bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache CacheInvalidator, eventBus providers.EventBus, instanceID string) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:      cache,
		eventBus:   eventBus,
		instanceID: instanceID,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Start begins listening for member updates
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelMemberUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to member updates: %w", err)
	}

	s.started.Store(true)
	go s.processEvents(eventChan)
	log.Info().Str("instance_id", s.instanceID).Msg("cache invalidation service started")
	return nil
}

// Stop stops the service and waits for the event loop to exit. It returns
// immediately if Start never subscribed.
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if !s.started.Load() {
		return
	}
	<-s.done
	log.Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.MemberEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.MemberEvent) {
	if event == nil || event.Type != entities.MemberEventTypeUpdated || event.PhoneNumber == "" {
		return
	}
	// The publishing replica already invalidated its own cache.
	if event.Origin != "" && event.Origin == s.instanceID {
		return
	}

	s.cache.Invalidate(event.PhoneNumber)
	log.Debug().
		Str("event_id", event.ID).
		Str("phone_number", event.PhoneNumber).
		Str("reason", event.Reason).
		Msg("invalidated member context from remote update")
}
