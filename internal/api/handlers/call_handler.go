package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zatekoja/careline/internal/infrastructure/observability"
	"github.com/zatekoja/careline/pkg/utils"
)

// Live call frame types
const (
	FrameUtterance = "utterance"
	FrameHangup    = "hangup"
	FrameReply     = "reply"
	FrameError     = "error"
)

const (
	callIdleTimeout  = 10 * time.Minute
	callWriteTimeout = 10 * time.Second
	maxFrameBytes    = 64 << 10
)

// CallFrame is one JSON message on the live call socket
type CallFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// CallHandler runs a live call over a websocket. The transcript is held
// per connection and every caller utterance goes through the same turn
// boundary as POST /run_agent.
type CallHandler struct {
	turns    TurnService
	greeting string
	upgrader websocket.Upgrader
}

// NewCallHandler creates a new live call handler
func NewCallHandler(turns TurnService, greeting string) *CallHandler {
	return &CallHandler{
		turns:    turns,
		greeting: greeting,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}
}

// ServeCall handles a live call session
// GET /ws/call?phone_number=215-932-4488
func (h *CallHandler) ServeCall(w http.ResponseWriter, r *http.Request) {
	phone, err := utils.NormalizePhone(r.URL.Query().Get("phone_number"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "phone_number query parameter must be a 10-digit US number")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	sessionID := uuid.NewString()
	logger := observability.LoggerFromContext(ctx).With().
		Str("call_session", sessionID).
		Str("phone_number", phone).
		Logger()
	logger.Info().Msg("live call started")

	transcript := []string{h.greeting}
	if err := h.write(conn, CallFrame{Type: FrameReply, Text: h.greeting}); err != nil {
		return
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(callIdleTimeout))

		var frame CallFrame
		if err := conn.ReadJSON(&frame); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				logger.Debug().Err(err).Msg("live call read ended")
			}
			break
		}

		switch frame.Type {
		case FrameHangup:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "goodbye"),
				time.Now().Add(callWriteTimeout))
			logger.Info().Int("turns", len(transcript)/2).Msg("live call ended by caller")
			return

		case FrameUtterance:
			text := strings.TrimSpace(frame.Text)
			if text == "" {
				_ = h.write(conn, CallFrame{Type: FrameError, Message: "utterance text is required"})
				continue
			}

			reply, err := h.turns.HandleTurn(ctx, append(transcript, text), phone)
			if err != nil {
				_, message := statusForError(err)
				logger.Warn().Err(err).Msg("live call turn failed")
				if h.write(conn, CallFrame{Type: FrameError, Message: message}) != nil {
					return
				}
				continue
			}

			transcript = append(transcript, text, reply)
			if err := h.write(conn, CallFrame{Type: FrameReply, Text: reply}); err != nil {
				return
			}

		default:
			_ = h.write(conn, CallFrame{Type: FrameError, Message: "unknown frame type " + frame.Type})
		}
	}

	logger.Info().Int("turns", len(transcript)/2).Msg("live call disconnected")
}

func (h *CallHandler) write(conn *websocket.Conn, frame CallFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(callWriteTimeout))
	return conn.WriteJSON(frame)
}
