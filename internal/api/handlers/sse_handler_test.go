package handlers

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/careline/internal/adapters/events"
	"github.com/zatekoja/careline/internal/domain/entities"
	"github.com/zatekoja/careline/internal/domain/providers"
)

func readSSEEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var eventType, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && eventType != "":
			return eventType, data
		}
	}
}

func TestSSEHandler_StreamEscalations(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	h := NewSSEHandler(bus, time.Hour)

	server := httptest.NewServer(http.HandlerFunc(h.StreamEscalations))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?phone_number=215-932-4488", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	eventType, _ := readSSEEvent(t, reader)
	require.Equal(t, "connected", eventType)
	assert.Equal(t, 1, h.GetClientCount())

	other := entities.NewMemberEvent(entities.MemberEventTypeEscalated, "555-000-1111", "other caller", nil)
	mine := entities.NewMemberEvent(entities.MemberEventTypeEscalated, "215-932-4488", "wants a supervisor", nil)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelEscalations, other))
	require.NoError(t, bus.Publish(ctx, providers.EventChannelEscalations, mine))

	eventType, data := readSSEEvent(t, reader)
	assert.Equal(t, string(entities.MemberEventTypeEscalated), eventType)
	assert.Contains(t, data, mine.ID)
	assert.NotContains(t, data, other.ID)
}

func TestSSEHandler_InvalidPhone(t *testing.T) {
	h := NewSSEHandler(events.NewMemoryEventBus(), 0)
	rec := httptest.NewRecorder()

	h.StreamEscalations(rec, httptest.NewRequest(http.MethodGet, "/api/stream/escalations?phone_number=12", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
