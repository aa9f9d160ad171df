package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
	"github.com/zatekoja/careline/pkg/utils"
)

// SSEHandler streams supervisor notifications, such as new escalations,
// as Server-Sent Events
type SSEHandler struct {
	eventBus  providers.EventBus
	heartbeat time.Duration
	clients   map[chan *entities.MemberEvent]struct{}
	mu        sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &SSEHandler{
		eventBus:  eventBus,
		heartbeat: heartbeat,
		clients:   make(map[chan *entities.MemberEvent]struct{}),
	}
}

// StreamEscalations streams escalation.created events, optionally for one
// phone number
// GET /api/stream/escalations?phone_number=215-932-4488
func (h *SSEHandler) StreamEscalations(w http.ResponseWriter, r *http.Request) {
	var phone string
	if raw := r.URL.Query().Get("phone_number"); raw != "" {
		normalized, err := utils.NormalizePhone(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid phone_number parameter")
			return
		}
		phone = normalized
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	eventChan, err := h.eventBus.Subscribe(r.Context(), providers.EventChannelEscalations)
	if err != nil {
		log.Error().Err(err).Msg("failed to subscribe to escalations")
		respondWithError(w, http.StatusServiceUnavailable, "escalation stream unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.MemberEvent, 20)
	h.registerClient(clientChan)
	defer h.unregisterClient(clientChan)

	h.sendEvent(w, "connected", map[string]interface{}{
		"phone_number": phone,
		"timestamp":    time.Now(),
	})
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan, phone)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

// forwardEvents copies matching events to the client, dropping them when
// the client falls behind
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.MemberEvent, clientChan chan<- *entities.MemberEvent, phone string) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event.Type != entities.MemberEventTypeEscalated {
				continue
			}
			if phone != "" && event.PhoneNumber != phone {
				continue
			}
			select {
			case clientChan <- event:
			default:
				log.Warn().Str("event_id", event.ID).Msg("escalation stream client is slow, dropping event")
			}
		}
	}
}

func (h *SSEHandler) registerClient(clientChan chan *entities.MemberEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[clientChan] = struct{}{}
	log.Debug().Int("clients", len(h.clients)).Msg("escalation stream client registered")
}

func (h *SSEHandler) unregisterClient(clientChan chan *entities.MemberEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, clientChan)
	log.Debug().Int("clients", len(h.clients)).Msg("escalation stream client unregistered")
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
