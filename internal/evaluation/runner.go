package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/careline/internal/application/agent"
)

const defaultGreeting = "Hello, thank you for calling our health center. Can you verify your name?"

// TurnRunner produces the agent's reply for one turn.
type TurnRunner interface {
	Run(ctx context.Context, phone string, transcript []string) (*agent.TurnResult, error)
}

// Runner replays golden conversations against the agent.
type Runner struct {
	agent      TurnRunner
	guardrails *Guardrails
}

func NewRunner(turns TurnRunner, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{agent: turns, guardrails: guardrails}
}

func (r *Runner) Run(ctx context.Context, conversations []GoldenConversation) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalConversations: len(conversations),
		ByCategory:         make(map[Category]*CategorySummary),
	}

	for _, gc := range conversations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.runConversation(ctx, gc)
		log.Info().
			Str("conversation_id", gc.ID).
			Bool("passed", result.Passed).
			Strs("failures", result.Failures).
			Dur("latency", result.Latency).
			Msg("conversation evaluated")
		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) runConversation(ctx context.Context, gc GoldenConversation) EvalResult {
	result := EvalResult{ConversationID: gc.ID, Category: gc.Category}

	greeting := gc.Greeting
	if greeting == "" {
		greeting = defaultGreeting
	}
	transcript := []string{greeting}

	start := time.Now()
	for i, utterance := range gc.CallerTurns {
		transcript = append(transcript, utterance)

		turn, err := r.agent.Run(ctx, gc.Phone, transcript)
		if err != nil {
			result.Failures = append(result.Failures, fmt.Sprintf("turn %d: %v", i+1, err))
			break
		}

		result.Replies = append(result.Replies, turn.Reply)
		result.ToolCalls = append(result.ToolCalls, turn.ToolCalls...)
		if turn.HitLimit {
			result.Failures = append(result.Failures, fmt.Sprintf("turn %d: hit the reasoning iteration limit", i+1))
		}
		for _, v := range r.guardrails.Check(utterance, turn.Reply, turn.ToolCalls) {
			result.Failures = append(result.Failures, fmt.Sprintf("turn %d: %s", i+1, v))
		}
		if phrase, ok := FirstContained(turn.Reply, gc.ReplyMustNotContain); ok {
			result.Failures = append(result.Failures, fmt.Sprintf("turn %d: reply contains forbidden %q", i+1, phrase))
		}

		transcript = append(transcript, turn.Reply)
	}
	result.Latency = time.Since(start)

	if len(result.Replies) == len(gc.CallerTurns) {
		final := result.Replies[len(result.Replies)-1]
		if !ContainsAny(final, gc.ReplyMustContain) {
			result.Failures = append(result.Failures, fmt.Sprintf("final reply matches none of %q", gc.ReplyMustContain))
		}
	}

	result.ToolRecall = Recall(gc.ExpectedTools, result.ToolCalls)
	if result.ToolRecall < 1.0 {
		result.Failures = append(result.Failures, fmt.Sprintf("expected tools %v, called %v", gc.ExpectedTools, result.ToolCalls))
	}

	result.Passed = len(result.Failures) == 0
	return result
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.Results = append(s.Results, res)
	s.AvgToolRecall += res.ToolRecall
	s.AvgLatency += res.Latency
	if res.Passed {
		s.Passed++
	}

	if _, ok := s.ByCategory[res.Category]; !ok {
		s.ByCategory[res.Category] = &CategorySummary{}
	}
	cs := s.ByCategory[res.Category]
	cs.Count++
	cs.AvgToolRecall += res.ToolRecall
	if res.Passed {
		cs.Passed++
	}
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalConversations > 0 {
		n := float64(s.TotalConversations)
		s.PassRate = float64(s.Passed) / n
		s.AvgToolRecall /= n
		s.AvgLatency /= time.Duration(s.TotalConversations)
	}

	for _, cs := range s.ByCategory {
		if cs.Count > 0 {
			cs.AvgToolRecall /= float64(cs.Count)
		}
	}
}
