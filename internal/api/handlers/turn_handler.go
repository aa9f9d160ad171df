package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zatekoja/careline/internal/infrastructure/observability"
)

const maxTurnBodyBytes = 1 << 20

// TurnService produces the agent's next reply for a transcript
type TurnService interface {
	HandleTurn(ctx context.Context, transcript []string, phone string) (string, error)
}

// TurnHandler serves the POST turn boundary
type TurnHandler struct {
	turns TurnService
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(turns TurnService) *TurnHandler {
	return &TurnHandler{turns: turns}
}

// RunAgentRequest is the body of POST /run_agent
type RunAgentRequest struct {
	PhoneNumber string   `json:"phone_number"`
	Transcript  []string `json:"transcript"`
}

// RunAgentResponse is the reply of POST /run_agent
type RunAgentResponse struct {
	Result string `json:"result"`
}

// RunAgent handles one conversation turn
// POST /run_agent
func (h *TurnHandler) RunAgent(w http.ResponseWriter, r *http.Request) {
	var req RunAgentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTurnBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "request body must be JSON with phone_number and transcript")
		return
	}
	if len(req.Transcript) == 0 {
		respondWithError(w, http.StatusBadRequest, "transcript must contain at least one entry")
		return
	}
	if req.PhoneNumber == "" {
		respondWithError(w, http.StatusBadRequest, "phone_number is required")
		return
	}

	reply, err := h.turns.HandleTurn(r.Context(), req.Transcript, req.PhoneNumber)
	if err != nil {
		status, message := statusForError(err)
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Int("status", status).Msg("run_agent failed")
		respondWithError(w, status, message)
		return
	}

	respondWithJSON(w, http.StatusOK, RunAgentResponse{Result: reply})
}
