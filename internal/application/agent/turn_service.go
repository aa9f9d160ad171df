package agent

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/careline/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/careline/pkg/errors"
	"github.com/zatekoja/careline/pkg/utils"
)

// Runner runs one orchestrated turn
type Runner interface {
	Run(ctx context.Context, phone string, transcript []string) (*TurnResult, error)
}

// TurnService is the turn boundary shared by the HTTP and live-call
// transports
type TurnService struct {
	runner  Runner
	timeout time.Duration
	metrics *observability.Metrics
}

// NewTurnService creates a new turn service. A zero timeout disables the
// per-turn deadline.
func NewTurnService(runner Runner, timeout time.Duration, metrics *observability.Metrics) *TurnService {
	return &TurnService{runner: runner, timeout: timeout, metrics: metrics}
}

// HandleTurn validates the request and returns the agent's next reply.
// Errors are VALIDATION for malformed input and EXTERNAL when the
// language model is unavailable or the turn deadline passes.
func (s *TurnService) HandleTurn(ctx context.Context, transcript []string, phone string) (string, error) {
	if len(transcript) == 0 {
		return "", apperrors.NewValidationError("transcript must contain at least one entry")
	}
	if phone == "" {
		return "", apperrors.NewValidationError("phone_number is required")
	}
	normalized, err := utils.NormalizePhone(phone)
	if err != nil {
		return "", apperrors.NewValidationError("phone_number must be a 10-digit US number such as 215-932-4488")
	}

	ctx, span := observability.StartSpan(ctx, "agent.turn")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("call.phone_number", normalized),
		attribute.Int("call.transcript_length", len(transcript)),
	)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := observability.LoggerFromContext(ctx)
	start := time.Now()

	result, err := s.runner.Run(ctx, normalized, transcript)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = apperrors.NewExternalError("the assistant took too long to respond", err)
		}
		observability.RecordError(span, err)
		observability.RecordTurn(ctx, s.metrics, string(apperrors.TypeOf(err)), 0, time.Since(start))
		logger.Error().Err(err).Str("phone_number", normalized).Msg("turn failed")
		return "", err
	}

	outcome := "ok"
	if result.HitLimit {
		outcome = "iteration_limit"
	}
	observability.SetSpanAttributes(span,
		attribute.Int("agent.iterations", result.Iterations),
		attribute.StringSlice("agent.tools", result.ToolCalls),
	)
	observability.RecordTurn(ctx, s.metrics, outcome, result.Iterations, time.Since(start))
	logger.Info().
		Str("phone_number", normalized).
		Int("iterations", result.Iterations).
		Strs("tools", result.ToolCalls).
		Dur("duration", time.Since(start)).
		Msg("turn completed")

	return result.Reply, nil
}
