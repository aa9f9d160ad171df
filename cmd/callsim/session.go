package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zatekoja/careline/internal/api/handlers"
)

// session is one simulated phone call
type session interface {
	// Greeting returns the agent's opening line
	Greeting() string
	// Say sends a caller utterance and returns the agent's reply
	Say(text string) (string, error)
	Close() error
}

// httpSession replays the growing transcript to POST /run_agent, the way a
// telephony bridge without a socket would.
type httpSession struct {
	endpoint   string
	phone      string
	client     *http.Client
	transcript []string
}

func newHTTPSession(baseURL, phone, greeting string) *httpSession {
	return &httpSession{
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/run_agent",
		phone:      phone,
		client:     &http.Client{Timeout: 90 * time.Second},
		transcript: []string{greeting},
	}
}

func (s *httpSession) Greeting() string { return s.transcript[0] }

func (s *httpSession) Say(text string) (string, error) {
	transcript := append(append([]string(nil), s.transcript...), text)
	body, err := json.Marshal(handlers.RunAgentRequest{PhoneNumber: s.phone, Transcript: transcript})
	if err != nil {
		return "", err
	}

	resp, err := s.client.Post(s.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out handlers.RunAgentResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("failed to decode agent reply: %w", err)
	}

	s.transcript = append(transcript, out.Result)
	return out.Result, nil
}

func (s *httpSession) Close() error { return nil }

// wsSession uses the live call socket, where the server keeps the transcript
type wsSession struct {
	conn     *websocket.Conn
	greeting string
}

func dialCall(baseURL, phone string) (*wsSession, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/call"
	u.RawQuery = url.Values{"phone_number": {phone}}.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open call: %w", err)
	}

	s := &wsSession{conn: conn}
	s.greeting, err = s.read()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *wsSession) Greeting() string { return s.greeting }

func (s *wsSession) Say(text string) (string, error) {
	if err := s.conn.WriteJSON(handlers.CallFrame{Type: handlers.FrameUtterance, Text: text}); err != nil {
		return "", err
	}
	return s.read()
}

func (s *wsSession) read() (string, error) {
	var frame handlers.CallFrame
	if err := s.conn.ReadJSON(&frame); err != nil {
		return "", err
	}
	if frame.Type == handlers.FrameError {
		return "", fmt.Errorf("agent error: %s", frame.Message)
	}
	return frame.Text, nil
}

func (s *wsSession) Close() error {
	_ = s.conn.WriteJSON(handlers.CallFrame{Type: handlers.FrameHangup})
	return s.conn.Close()
}

// endsCall reports whether the caller said goodbye
func endsCall(utterance string) bool {
	lower := strings.ToLower(utterance)
	return strings.Contains(lower, "bye")
}
